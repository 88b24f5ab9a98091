package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/impact-track/impact-api/internal/dto"
	"github.com/impact-track/impact-api/internal/models"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
	"github.com/impact-track/impact-api/pkg/response"
)

// Bulk payloads are bounded to keep a single upload from exhausting memory.
const maxImportPayloadBytes = 8 << 20

type importManager interface {
	CreateJob(ctx context.Context, payload string) (*dto.ImportJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.ImportStatusResponse, error)
	List(ctx context.Context, page, limit int) ([]dto.ImportStatusResponse, *models.Pagination, error)
}

// ImportHandler exposes the bulk import endpoints.
type ImportHandler struct {
	imports importManager
}

// NewImportHandler constructs handler.
func NewImportHandler(imports importManager) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// CreateImport godoc
// @Summary Accept a bulk CSV import
// @Tags Imports
// @Accept plain
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /imports [post]
func (h *ImportHandler) CreateImport(c *gin.Context) {
	payload, err := readImportPayload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	job, err := h.imports.CreateJob(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// ImportStatus godoc
// @Summary Poll an import job snapshot
// @Tags Imports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /imports/{id} [get]
func (h *ImportHandler) ImportStatus(c *gin.Context) {
	status, err := h.imports.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// ListImports godoc
// @Summary List recent import jobs
// @Tags Imports
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /imports [get]
func (h *ImportHandler) ListImports(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	items, pagination, err := h.imports.List(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// readImportPayload pulls the CSV text either from a multipart "file" part or
// from the raw request body. Oversize payloads are rejected outright; a
// truncated read would silently drop rows and cut the boundary row mid-line.
func readImportPayload(c *gin.Context) (string, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to open uploaded file")
		}
		defer f.Close()
		return readBounded(f, "failed to read uploaded file")
	}

	return readBounded(c.Request.Body, "failed to read request body")
}

// readBounded reads one byte past the cap so oversize input is detected
// rather than clipped.
func readBounded(r io.Reader, readFailMsg string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImportPayloadBytes+1))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, readFailMsg)
	}
	if len(data) > maxImportPayloadBytes {
		return "", appErrors.ErrPayloadTooLarge
	}
	return string(data), nil
}
