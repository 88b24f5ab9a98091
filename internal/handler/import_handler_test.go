package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impact-track/impact-api/internal/dto"
	"github.com/impact-track/impact-api/internal/models"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
)

type fakeImportSrv struct {
	createResp  *dto.ImportJobResponse
	createErr   error
	lastPayload string
	statusResp  *dto.ImportStatusResponse
	statusErr   error
	lastID      string
	listItems   []dto.ImportStatusResponse
	listPage    int
	listLimit   int
}

func (f *fakeImportSrv) CreateJob(_ context.Context, payload string) (*dto.ImportJobResponse, error) {
	f.lastPayload = payload
	return f.createResp, f.createErr
}

func (f *fakeImportSrv) GetStatus(_ context.Context, id string) (*dto.ImportStatusResponse, error) {
	f.lastID = id
	return f.statusResp, f.statusErr
}

func (f *fakeImportSrv) List(_ context.Context, page, limit int) ([]dto.ImportStatusResponse, *models.Pagination, error) {
	f.listPage = page
	f.listLimit = limit
	return f.listItems, &models.Pagination{Page: page, PageSize: limit, TotalCount: len(f.listItems)}, nil
}

const samplePayload = "ngoId,month,people,events,funds\nNGO-1,2024-03,10,2,500.50"

func TestImportHandlerCreateFromRawBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeImportSrv{
		createResp: &dto.ImportJobResponse{ID: "job-1", Status: models.ImportStatusPending, TotalRows: 1},
	}
	handler := NewImportHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader(samplePayload))
	c.Request.Header.Set("Content-Type", "text/csv")

	handler.CreateImport(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, samplePayload, service.lastPayload)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "job-1", envelope.Data["id"])
	assert.Equal(t, "pending", envelope.Data["status"])
}

func TestImportHandlerCreateFromMultipartFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeImportSrv{
		createResp: &dto.ImportJobResponse{ID: "job-1", Status: models.ImportStatusPending, TotalRows: 1},
	}
	handler := NewImportHandler(service)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "reports.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(samplePayload))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/imports", &buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	handler.CreateImport(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, samplePayload, service.lastPayload)
}

func TestImportHandlerCreateRejectsOversizeBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeImportSrv{}
	handler := NewImportHandler(service)

	oversize := strings.Repeat("NGO-1,2024-03,10,2,500.50\n", maxImportPayloadBytes/26+1)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader(oversize))
	c.Request.Header.Set("Content-Type", "text/csv")

	handler.CreateImport(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, service.lastPayload, "oversize payload must not reach the service")
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, envelope.Error["code"])
}

func TestImportHandlerCreateRejectsOversizeMultipart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeImportSrv{}
	handler := NewImportHandler(service)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "reports.csv")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), maxImportPayloadBytes+1))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/imports", &buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	handler.CreateImport(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, service.lastPayload)
}

func TestImportHandlerCreateAcceptsBodyAtLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeImportSrv{
		createResp: &dto.ImportJobResponse{ID: "job-1", Status: models.ImportStatusPending, TotalRows: 1},
	}
	handler := NewImportHandler(service)

	exact := strings.Repeat("x", maxImportPayloadBytes)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader(exact))
	c.Request.Header.Set("Content-Type", "text/csv")

	handler.CreateImport(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, service.lastPayload, maxImportPayloadBytes)
}

func TestImportHandlerCreateEmptyPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(&fakeImportSrv{createErr: appErrors.ErrEmptyPayload})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader(""))

	handler.CreateImport(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, appErrors.ErrEmptyPayload.Code, envelope.Error["code"])
}

func TestImportHandlerStatusSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeImportSrv{
		statusResp: &dto.ImportStatusResponse{
			ID:             "job-1",
			Status:         models.ImportStatusProcessing,
			TotalRows:      12,
			ProcessedRows:  5,
			SuccessfulRows: 4,
			FailedRows:     1,
			Errors:         []string{"Row 3: invalid number format"},
		},
	}
	handler := NewImportHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/imports/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}

	handler.ImportStatus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "job-1", service.lastID)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "processing", envelope.Data["status"])
	assert.Equal(t, float64(5), envelope.Data["processedRows"])
}

func TestImportHandlerStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(&fakeImportSrv{
		statusErr: appErrors.Clone(appErrors.ErrNotFound, "import job not found"),
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/imports/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.ImportStatus(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportHandlerListPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeImportSrv{
		listItems: []dto.ImportStatusResponse{{ID: "job-1"}, {ID: "job-2"}},
	}
	handler := NewImportHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/imports?page=2&limit=5", nil)

	handler.ListImports(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, service.listPage)
	assert.Equal(t, 5, service.listLimit)
}
