// src/handlers/dashboard_handler_test.go
package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/charts"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/config"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/logger"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/models"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/parsers/priceworkbook"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/services"
)

func TestMain(m *testing.M) {
	config.Cfg = &config.AppConfig{MaxUploadSizeBytes: 10 << 20}
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// MockDashboardService is a mock implementation of services.DashboardService.
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) ProcessUpload(ctx context.Context, data []byte) (*services.DashboardResult, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardResult), args.Error(1)
}

func (m *MockDashboardService) GetDashboard(uploadID string) (*services.DashboardResult, error) {
	args := m.Called(uploadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardResult), args.Error(1)
}

func (m *MockDashboardService) GetCombinedChart(uploadID string) (*charts.ChartConfig, error) {
	args := m.Called(uploadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*charts.ChartConfig), args.Error(1)
}

func (m *MockDashboardService) GetMonthChart(uploadID string, month int) (*charts.ChartConfig, error) {
	args := m.Called(uploadID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*charts.ChartConfig), args.Error(1)
}

func (m *MockDashboardService) GetWeightSummary(ctx context.Context) ([]models.MonthlyTransporterSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MonthlyTransporterSummary), args.Error(1)
}

func (m *MockDashboardService) GetWeightShares(ctx context.Context) ([]models.MonthlyShare, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MonthlyShare), args.Error(1)
}

// newTestRouter wires the handlers onto the same routes main registers.
func newTestRouter(service services.DashboardService) http.Handler {
	dashboardHandler := NewDashboardHandler(service)
	weightHandler := NewWeightHandler(service)

	r := chi.NewRouter()
	r.Use(ContextualLoggerMiddleware)
	r.Route("/api", func(r chi.Router) {
		r.Post("/dashboard/upload", dashboardHandler.HandleUpload)
		r.Get("/dashboard/{uploadID}", dashboardHandler.HandleGetDashboard)
		r.Get("/dashboard/{uploadID}/charts/combined", dashboardHandler.HandleGetCombinedChart)
		r.Get("/dashboard/{uploadID}/charts/month/{month}", dashboardHandler.HandleGetMonthChart)
		r.Get("/weights/summary", weightHandler.HandleGetWeightSummary)
		r.Get("/weights/shares", weightHandler.HandleGetWeightShares)
	})
	return r
}

// fakeXlsx carries the zip signature, which is all the upload handler
// checks before handing the bytes to the mocked service.
var fakeXlsx = []byte("PK\x03\x04 not really a spreadsheet")

var oleBytes = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00, 0x00}

func multipartWorkbook(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, "prices.xlsx")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func postUpload(t *testing.T, router http.Handler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/dashboard/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleUpload_Success(t *testing.T) {
	mockService := new(MockDashboardService)
	mockService.On("ProcessUpload", mock.Anything, fakeXlsx).
		Return(&services.DashboardResult{UploadID: "abc123", Mode: "demo"}, nil)
	router := newTestRouter(mockService)

	body, contentType := multipartWorkbook(t, "workbook", fakeXlsx)
	rec := postUpload(t, router, body, contentType)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"upload_id":"abc123"`)
	mockService.AssertExpectations(t)
}

func TestHandleUpload_WrongFieldName(t *testing.T) {
	mockService := new(MockDashboardService)
	router := newTestRouter(mockService)

	body, contentType := multipartWorkbook(t, "file", fakeXlsx)
	rec := postUpload(t, router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "workbook")
	mockService.AssertNotCalled(t, "ProcessUpload")
}

func TestHandleUpload_NotAZipPayload(t *testing.T) {
	mockService := new(MockDashboardService)
	router := newTestRouter(mockService)

	body, contentType := multipartWorkbook(t, "workbook", []byte("plain text pretending"))
	rec := postUpload(t, router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not look like an xlsx workbook")
	mockService.AssertNotCalled(t, "ProcessUpload")
}

func TestHandleUpload_LegacyXlsRejected(t *testing.T) {
	mockService := new(MockDashboardService)
	router := newTestRouter(mockService)

	body, contentType := multipartWorkbook(t, "workbook", oleBytes)
	rec := postUpload(t, router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ".xls")
	mockService.AssertNotCalled(t, "ProcessUpload")
}

func TestHandleUpload_DeclaredContentTypeRejected(t *testing.T) {
	mockService := new(MockDashboardService)
	router := newTestRouter(mockService)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="workbook"; filename="prices.csv"`)
	header.Set("Content-Type", "text/csv")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(fakeXlsx)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := postUpload(t, router, &body, writer.FormDataContentType())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "ProcessUpload")
}

func TestHandleUpload_FileTooLarge(t *testing.T) {
	previous := config.Cfg.MaxUploadSizeBytes
	config.Cfg.MaxUploadSizeBytes = 8
	defer func() { config.Cfg.MaxUploadSizeBytes = previous }()

	mockService := new(MockDashboardService)
	router := newTestRouter(mockService)

	body, contentType := multipartWorkbook(t, "workbook", fakeXlsx)
	rec := postUpload(t, router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "ProcessUpload")
}

func TestHandleUpload_NoValidSheet(t *testing.T) {
	mockService := new(MockDashboardService)
	mockService.On("ProcessUpload", mock.Anything, mock.Anything).
		Return(nil, priceworkbook.ErrNoValidSheet)
	router := newTestRouter(mockService)

	body, contentType := multipartWorkbook(t, "workbook", fakeXlsx)
	rec := postUpload(t, router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tot. H.T")
}

func TestHandleUpload_SourceUnavailable(t *testing.T) {
	mockService := new(MockDashboardService)
	mockService.On("ProcessUpload", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: live mode: connection refused", services.ErrSourceUnavailable))
	router := newTestRouter(mockService)

	body, contentType := multipartWorkbook(t, "workbook", fakeXlsx)
	rec := postUpload(t, router, body, contentType)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleUpload_InternalErrorIsOpaque(t *testing.T) {
	mockService := new(MockDashboardService)
	mockService.On("ProcessUpload", mock.Anything, mock.Anything).
		Return(nil, errors.New("summarizing weights: boom"))
	router := newTestRouter(mockService)

	body, contentType := multipartWorkbook(t, "workbook", fakeXlsx)
	rec := postUpload(t, router, body, contentType)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal error processing upload")
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestHandleGetDashboard_Found(t *testing.T) {
	mockService := new(MockDashboardService)
	mockService.On("GetDashboard", "abc123").
		Return(&services.DashboardResult{UploadID: "abc123"}, nil)
	router := newTestRouter(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/abc123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"upload_id":"abc123"`)
	mockService.AssertExpectations(t)
}

func TestHandleGetDashboard_NotFound(t *testing.T) {
	mockService := new(MockDashboardService)
	mockService.On("GetDashboard", "missing").
		Return(nil, fmt.Errorf("%w: missing", services.ErrReportNotFound))
	router := newTestRouter(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetCombinedChart(t *testing.T) {
	mockService := new(MockDashboardService)
	mockService.On("GetCombinedChart", "abc123").
		Return(&charts.ChartConfig{Title: "Total Weight & Waste Cost (€)"}, nil)
	router := newTestRouter(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/abc123/charts/combined", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Total Weight")
}

func TestHandleGetMonthChart_ParsesMonth(t *testing.T) {
	mockService := new(MockDashboardService)
	mockService.On("GetMonthChart", "abc123", 2).
		Return(&charts.ChartConfig{Title: "Month 2"}, nil)
	router := newTestRouter(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/abc123/charts/month/02", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Month 2")
	mockService.AssertExpectations(t)
}

func TestHandleGetMonthChart_RejectsBadMonth(t *testing.T) {
	mockService := new(MockDashboardService)
	router := newTestRouter(mockService)

	for _, month := range []string{"13", "0", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/abc123/charts/month/"+month, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "month %q", month)
		assert.Contains(t, rec.Body.String(), "between 1 and 12")
	}
	mockService.AssertNotCalled(t, "GetMonthChart")
}
