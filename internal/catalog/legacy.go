package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// The legacy catalog schema predates per-machine material lists: a flat
// FDM cost table, a single resin rate, and a free-form material-type
// listing used only to populate the submission form. It maps onto two
// canonical machines, "fdm" (grams) and "resin" (milliliters). Resin
// material names come from MATERIAL_TYPES; each carries the shared
// per-ml rate. Both machines also accepted an operator-priced "Other"
// material, so the adapter synthesizes it on each.
type legacyFile struct {
	FDMCosts       map[string]float64  `json:"FDM_COSTS"`
	ResinCostPerML float64             `json:"RESIN_COST_PER_ML"`
	MaterialTypes  map[string][]string `json:"MATERIAL_TYPES"`
}

func parseLegacy(raw []byte) (*Catalog, error) {
	var doc legacyFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid legacy catalog document: %w", err)
	}
	if len(doc.FDMCosts) == 0 && len(doc.MaterialTypes) == 0 {
		return nil, errors.New("catalog matches no known schema")
	}

	machines := make(map[string]*Machine, 2)

	if len(doc.FDMCosts) > 0 {
		fdm := &Machine{ID: "fdm", DisplayName: "FDM", UnitSuffix: "g"}
		names := make([]string, 0, len(doc.FDMCosts))
		for name := range doc.FDMCosts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fdm.Materials = append(fdm.Materials, Material{
				Name:        name,
				CostPerUnit: doc.FDMCosts[name],
			})
		}
		appendCustomMaterial(fdm)
		machines["fdm"] = fdm
	}

	if len(doc.MaterialTypes) > 0 {
		resin := &Machine{ID: "resin", DisplayName: "Resin", UnitSuffix: "ml"}
		seen := make(map[string]bool)
		groups := make([]string, 0, len(doc.MaterialTypes))
		for group := range doc.MaterialTypes {
			groups = append(groups, group)
		}
		sort.Strings(groups)
		for _, group := range groups {
			for _, name := range doc.MaterialTypes[group] {
				if seen[name] {
					continue
				}
				seen[name] = true
				resin.Materials = append(resin.Materials, Material{
					Name:        name,
					CostPerUnit: doc.ResinCostPerML,
				})
			}
		}
		appendCustomMaterial(resin)
		machines["resin"] = resin
	}

	return &Catalog{machines: machines}, nil
}

// appendCustomMaterial adds the operator-priced "Other" entry unless the
// source document already names one.
func appendCustomMaterial(m *Machine) {
	for _, mat := range m.Materials {
		if mat.Name == "Other" {
			return
		}
	}
	m.Materials = append(m.Materials, Material{Name: "Other", CustomCost: true})
}
