// Package catalog loads the machine/material catalog that drives cost
// derivation. The catalog is read once at startup and treated as
// immutable; edits to the file take effect on the next process start.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

var (
	ErrMachineNotFound  = errors.New("machine not found in catalog")
	ErrMaterialNotFound = errors.New("material not found in catalog")
)

// Material describes one material a machine can consume.
type Material struct {
	Name        string  `json:"name"`
	CostPerUnit float64 `json:"cost_per_unit"`
	// CustomCost marks materials whose rate is supplied by the operator
	// at submission time instead of being read from the catalog.
	CustomCost bool `json:"custom_cost"`
}

// Machine describes one machine (or machine class) jobs can be logged
// against.
type Machine struct {
	ID          string     `json:"-"`
	DisplayName string     `json:"display_name"`
	UnitSuffix  string     `json:"unit_suffix"`
	Materials   []Material `json:"materials"`
}

// Catalog is the canonical in-memory configuration. It is read-only
// after Load returns.
type Catalog struct {
	machines map[string]*Machine
}

type catalogFile struct {
	Machines map[string]*Machine `json:"machines"`
}

// Load reads a catalog file. Both the canonical schema and the legacy
// flat cost-table schema are accepted; the legacy form is converted on
// the way in. Any read or decode failure is returned to the caller,
// which is expected to treat it as fatal.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes catalog bytes, sniffing the schema variant.
func Parse(raw []byte) (*Catalog, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("invalid catalog document: %w", err)
	}

	if _, ok := probe["machines"]; !ok {
		return parseLegacy(raw)
	}

	var doc catalogFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid catalog document: %w", err)
	}
	if len(doc.Machines) == 0 {
		return nil, errors.New("catalog defines no machines")
	}

	for id, m := range doc.Machines {
		m.ID = id
		if m.DisplayName == "" {
			m.DisplayName = id
		}
		seen := make(map[string]bool, len(m.Materials))
		for _, mat := range m.Materials {
			if mat.Name == "" {
				return nil, fmt.Errorf("machine %q has a material with no name", id)
			}
			if seen[mat.Name] {
				return nil, fmt.Errorf("machine %q lists material %q twice", id, mat.Name)
			}
			seen[mat.Name] = true
			if mat.CostPerUnit < 0 {
				return nil, fmt.Errorf("machine %q material %q has negative cost", id, mat.Name)
			}
		}
	}

	return &Catalog{machines: doc.Machines}, nil
}

// Machine looks up a machine by id.
func (c *Catalog) Machine(id string) (*Machine, error) {
	m, ok := c.machines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMachineNotFound, id)
	}
	return m, nil
}

// Material looks up a material by machine id and material name. A nil
// Material with ErrMaterialNotFound is returned for names absent from
// the catalog; callers decide whether that is an error or a zero-rate
// job.
func (c *Catalog) Material(machineID, name string) (*Material, error) {
	m, err := c.Machine(machineID)
	if err != nil {
		return nil, err
	}
	for i := range m.Materials {
		if m.Materials[i].Name == name {
			return &m.Materials[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrMaterialNotFound, machineID, name)
}

// Machines returns all machines sorted by id, for form rendering.
func (c *Catalog) Machines() []*Machine {
	out := make([]*Machine, 0, len(c.machines))
	for _, m := range c.machines {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
