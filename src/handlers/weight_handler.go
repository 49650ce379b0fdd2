// src/handlers/weight_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/logger"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/services"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/utils"
)

// WeightHandler exposes the weight-only views that need no uploaded
// workbook: the monthly summary and the program share table.
type WeightHandler struct {
	dashboardService services.DashboardService
}

func NewWeightHandler(service services.DashboardService) *WeightHandler {
	return &WeightHandler{
		dashboardService: service,
	}
}

func (h *WeightHandler) HandleGetWeightSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboardService.GetWeightSummary(r.Context())
	if err != nil {
		h.sendWeightError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		logger.FromContext(r.Context()).Error("Error encoding weight summary response", "error", err)
	}
}

func (h *WeightHandler) HandleGetWeightShares(w http.ResponseWriter, r *http.Request) {
	shares, err := h.dashboardService.GetWeightShares(r.Context())
	if err != nil {
		h.sendWeightError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(shares); err != nil {
		logger.FromContext(r.Context()).Error("Error encoding weight shares response", "error", err)
	}
}

func (h *WeightHandler) sendWeightError(w http.ResponseWriter, r *http.Request, err error) {
	ctxLogger := logger.FromContext(r.Context())
	if errors.Is(err, services.ErrSourceUnavailable) {
		ctxLogger.Error("Weight source unavailable", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	ctxLogger.Error("Error handling weight request", "error", err)
	utils.SendJSONError(w, "internal error", http.StatusInternalServerError)
}
