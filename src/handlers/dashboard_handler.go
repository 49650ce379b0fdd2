// src/handlers/dashboard_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/config"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/logger"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/parsers/priceworkbook"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/security/validation"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/services"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/utils"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(service services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: service,
	}
}

// HandleUpload accepts a price workbook in the multipart field "workbook",
// runs the dashboard pipeline and returns the full result. Re-uploading the
// same bytes returns the cached result under the same upload_id.
func (h *DashboardHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("failed to read upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("workbook")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'workbook' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		ctxLogger.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("file too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		ctxLogger.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := validation.ValidateWorkbookMagicBytes(file); err != nil {
		ctxLogger.Warn("Workbook content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		ctxLogger.Error("Failed to read uploaded file", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, "failed to read uploaded file", http.StatusInternalServerError)
		return
	}

	ctxLogger.Info("Processing upload request", "filename", fileHeader.Filename, "bytes", len(data))

	result, err := h.dashboardService.ProcessUpload(r.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, priceworkbook.ErrNoValidSheet):
			ctxLogger.Warn("Upload rejected, no usable sheet", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrParsingFailed):
			ctxLogger.Warn("Upload rejected, workbook unreadable", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrSourceUnavailable):
			ctxLogger.Error("Weight source unavailable during upload", "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadGateway)
		default:
			ctxLogger.Error("Error processing upload", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "internal error processing upload", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		ctxLogger.Error("Error encoding JSON response for upload result", "uploadID", result.UploadID, "error", err)
	}
}

func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	result, err := h.dashboardService.GetDashboard(uploadID)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.FromContext(r.Context()).Error("Error encoding dashboard response", "uploadID", uploadID, "error", err)
	}
}

func (h *DashboardHandler) HandleGetCombinedChart(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	cfg, err := h.dashboardService.GetCombinedChart(uploadID)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		logger.FromContext(r.Context()).Error("Error encoding combined chart response", "uploadID", uploadID, "error", err)
	}
}

func (h *DashboardHandler) HandleGetMonthChart(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	monthStr := chi.URLParam(r, "month")
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		utils.SendJSONError(w, "month must be a number between 1 and 12", http.StatusBadRequest)
		return
	}
	cfg, err := h.dashboardService.GetMonthChart(uploadID, month)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		logger.FromContext(r.Context()).Error("Error encoding month chart response", "uploadID", uploadID, "month", month, "error", err)
	}
}

func (h *DashboardHandler) sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctxLogger := logger.FromContext(r.Context())
	switch {
	case errors.Is(err, services.ErrReportNotFound):
		ctxLogger.Debug("Dashboard report not found", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrSourceUnavailable):
		ctxLogger.Error("Weight source unavailable", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadGateway)
	default:
		ctxLogger.Error("Error handling dashboard request", "error", err)
		utils.SendJSONError(w, "internal error", http.StatusInternalServerError)
	}
}
