package http

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/catalog"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/costing"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/job"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/ledger"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/service"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/storage"
)

// maxUploadBytes bounds a single sliced-model upload.
const maxUploadBytes = 64 << 20

// Handlers contains all HTTP request handlers.
type Handlers struct {
	jobs    *service.JobService
	uploads *storage.UploadStore
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(
	jobs *service.JobService,
	uploads *storage.UploadStore,
	cat *catalog.Catalog,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{jobs: jobs, uploads: uploads, catalog: cat, logger: logger}
}

// Response is the standard JSON envelope. Warning carries non-fatal
// conditions (printer trouble) alongside a successful result.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Warning string      `json:"warning,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// MaterialResponse mirrors one catalog material for form rendering.
type MaterialResponse struct {
	Name        string  `json:"name"`
	CostPerUnit float64 `json:"cost_per_unit"`
	CustomCost  bool    `json:"custom_cost"`
}

// MachineResponse mirrors one catalog machine for form rendering.
type MachineResponse struct {
	ID          string             `json:"id"`
	DisplayName string             `json:"display_name"`
	UnitSuffix  string             `json:"unit_suffix"`
	Materials   []MaterialResponse `json:"materials"`
}

// JobResponse is one ledger row in listing/submission responses, with
// the cost pre-formatted and the upload turned into a download link.
type JobResponse struct {
	JobID          string  `json:"job_id"`
	Timestamp      string  `json:"timestamp"`
	Operator       string  `json:"operator"`
	Email          string  `json:"email"`
	GroupKind      string  `json:"group_kind"`
	GroupName      string  `json:"group_name"`
	MachineID      string  `json:"machine_id"`
	MachineName    string  `json:"machine_name"`
	MachineUnit    string  `json:"machine_unit"`
	FileName       string  `json:"file_name"`
	FileURL        string  `json:"file_url,omitempty"`
	MaterialType   string  `json:"material_type"`
	MaterialAmount float64 `json:"material_amount"`
	MaterialSource string  `json:"material_source"`
	Brand          string  `json:"filament_brand"`
	Color          string  `json:"filament_color"`
	UnitSuffix     string  `json:"unit"`
	CostRate       float64 `json:"cost_rate"`
	Cost           string  `json:"cost"`
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"status": "healthy", "service": "fab-lab-ledger"},
	})
}

// GetCatalog handles GET /api/catalog.
func (h *Handlers) GetCatalog(c *gin.Context) {
	var machines []MachineResponse
	for _, m := range h.catalog.Machines() {
		mr := MachineResponse{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			UnitSuffix:  m.UnitSuffix,
		}
		for _, mat := range m.Materials {
			mr.Materials = append(mr.Materials, MaterialResponse{
				Name:        mat.Name,
				CostPerUnit: mat.CostPerUnit,
				CustomCost:  mat.CustomCost,
			})
		}
		machines = append(machines, mr)
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: machines})
}

// SubmitJob handles POST /api/jobs (multipart form with an optional
// file attachment).
func (h *Handlers) SubmitJob(c *gin.Context) {
	in := service.SubmitInput{
		MachineID:     c.PostForm("machine"),
		Operator:      c.PostForm("operator"),
		Email:         c.PostForm("email"),
		GroupKind:     c.PostForm("group_kind"),
		GroupName:     c.PostForm("group_name"),
		MachineUnit:   c.PostForm("machine_unit"),
		Material:      c.PostForm("material"),
		OtherMaterial: c.PostForm("other_material"),
		AmountRaw:     c.PostForm("amount"),
		Source:        c.PostForm("source"),
		CustomRateRaw: c.PostForm("custom_rate"),
		Brand:         c.PostForm("brand"),
		Color:         c.PostForm("color"),
	}

	// Upload failures don't reject the job; the record just carries no
	// file, matching how the original handled unsaveable uploads.
	if name, err := h.saveUpload(c); err != nil {
		h.logger.Warn("Upload not stored", zap.Error(err))
	} else {
		in.FileName = name
	}

	result, err := h.jobs.Submit(in)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, costing.ErrInvalidAmount) || errors.Is(err, catalog.ErrMachineNotFound) {
			status = http.StatusBadRequest
		}
		h.logger.Error("Job submission failed", zap.Error(err))
		c.JSON(status, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    h.toJobResponse(result.Record),
		Warning: result.PrintWarning,
	})
}

// ListJobs handles GET /api/jobs, newest first.
func (h *Handlers) ListJobs(c *gin.Context) {
	records, err := h.jobs.List()
	if err != nil {
		h.logger.Error("Failed to list jobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false, Error: "failed to read the ledger",
		})
		return
	}

	rows := make([]JobResponse, 0, len(records))
	for _, rec := range records {
		rows = append(rows, h.toJobResponse(rec))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rows})
}

// ExportJobs handles GET /api/ledger/export with an XLSX download.
func (h *Handlers) ExportJobs(c *gin.Context) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="receipts.xlsx"`)
	if err := h.jobs.Export(c.Writer); err != nil {
		h.logger.Error("Ledger export failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
	}
}

// ReprintJob handles POST /api/jobs/:id/reprint. The id is the record
// timestamp, URL-encoded.
func (h *Handlers) ReprintJob(c *gin.Context) {
	id := c.Param("id")
	if err := h.jobs.Reprint(id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			c.JSON(http.StatusNotFound, Response{
				Success: false, Error: fmt.Sprintf("job %s not found", id),
			})
			return
		}
		// Job exists; only the printer failed.
		c.JSON(http.StatusOK, Response{Success: true, Warning: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"message": fmt.Sprintf("receipt for job %s sent to printer", id)},
	})
}

// DownloadUpload handles GET /uploads/:filename.
func (h *Handlers) DownloadUpload(c *gin.Context) {
	name := c.Param("filename")
	path, err := h.uploads.Path(name)
	if err != nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "file not found"})
		return
	}
	c.FileAttachment(path, name)
}

// ReplaceCatalog handles PUT /api/admin/catalog. The new catalog is
// validated and written to disk; it applies on the next restart.
func (h *Handlers) ReplaceCatalog(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "failed to read body"})
		return
	}

	if err := h.jobs.ReplaceCatalog(raw); err != nil {
		h.logger.Error("Catalog replacement rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"message": "catalog saved; restart the service to apply"},
	})
}

// saveUpload stores the optional job file and returns its stored name.
func (h *Handlers) saveUpload(c *gin.Context) (string, error) {
	fh, err := c.FormFile("job_file")
	if err != nil {
		return "", nil // no file attached
	}
	if fh.Size > maxUploadBytes {
		return "", fmt.Errorf("upload too large: %d bytes", fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	return h.uploads.Save(fh.Filename, content)
}

func (h *Handlers) toJobResponse(rec job.Record) JobResponse {
	resp := JobResponse{
		JobID:          rec.JobID(),
		Timestamp:      rec.Timestamp,
		Operator:       rec.Operator,
		Email:          rec.Email,
		GroupKind:      rec.GroupKind,
		GroupName:      rec.GroupName,
		MachineID:      rec.MachineID,
		MachineName:    rec.MachineName,
		MachineUnit:    rec.MachineUnit,
		FileName:       rec.FileName,
		MaterialType:   rec.MaterialType,
		MaterialAmount: rec.MaterialAmount,
		MaterialSource: rec.MaterialSource,
		Brand:          rec.Brand,
		Color:          rec.Color,
		UnitSuffix:     rec.UnitSuffix,
		CostRate:       rec.CostRate,
		Cost:           fmt.Sprintf("$%.2f", rec.Cost),
	}
	if rec.FileName != job.NotAvailable {
		resp.FileURL = "/uploads/" + rec.FileName
	}
	return resp
}

// adminAuth gates admin routes behind the shared secret. This is a
// shared-secret check, not a real auth system.
func adminAuth(secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, Response{
				Success: false, Error: "admin access is not configured",
			})
			return
		}
		supplied := c.GetHeader("X-Admin-Secret")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
			logger.Warn("Rejected admin request", zap.String("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false, Error: "invalid admin secret",
			})
			return
		}
		c.Next()
	}
}
