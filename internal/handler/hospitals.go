package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"BloodLink/internal/models"
	"BloodLink/pkg/response"
)

// NearbyHospitals ranks partner hospitals around a point for one blood
// group, the same ranking the pipeline uses.
func (h *Handlers) NearbyHospitals(c *gin.Context) {
	bloodGroup := c.Query("blood_group")
	if !models.ValidBloodGroup(bloodGroup) {
		response.Fail(c, "blood_group query parameter is required", nil)
		return
	}
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		response.Fail(c, "lat and lng query parameters are required", nil)
		return
	}
	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil || quantity < 1 {
		quantity = 1
	}

	candidates, err := h.matcher.Match(c.Request.Context(), bloodGroup, quantity, &lat, &lng)
	if err != nil {
		h.log.Error("nearby lookup failed", zap.Error(err))
		response.Error(c, "could not search hospitals")
		return
	}

	out := make([]gin.H, 0, len(candidates))
	for _, cand := range candidates {
		out = append(out, gin.H{
			"name":            cand.Hospital.Name,
			"address":         cand.Hospital.Address,
			"city":            cand.Hospital.City,
			"emergency_phone": cand.Hospital.EmergencyPhone,
			"distance_km":     cand.DistanceKM,
			"travel_minutes":  cand.TravelTime,
			"units_available": cand.AvailableUnits,
			"priority_score":  cand.PriorityScore,
		})
	}
	response.Success(c, "ok", gin.H{"hospitals": out})
}

// Inventory lists current stock with any active alerts.
func (h *Handlers) Inventory(c *gin.Context) {
	ctx := c.Request.Context()
	rows, err := h.stock.All(ctx)
	if err != nil {
		h.log.Error("inventory lookup failed", zap.Error(err))
		response.Error(c, "could not load inventory")
		return
	}
	active, err := h.alerts.Active(ctx)
	if err != nil {
		h.log.Error("alert lookup failed", zap.Error(err))
		response.Error(c, "could not load inventory")
		return
	}

	alertFor := make(map[[2]string]string, len(active))
	for _, a := range active {
		alertFor[[2]string{strconv.FormatUint(uint64(a.HospitalID), 10), a.BloodGroup}] = a.AlertLevel
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		entry := gin.H{
			"hospital":        row.Hospital.Name,
			"blood_group":     row.BloodGroup,
			"units_available": row.UnitsAvailable,
			"last_updated":    row.LastUpdated,
		}
		key := [2]string{strconv.FormatUint(uint64(row.HospitalID), 10), row.BloodGroup}
		if level, ok := alertFor[key]; ok {
			entry["alert_level"] = level
		}
		out = append(out, entry)
	}
	response.Success(c, "ok", gin.H{"inventory": out})
}

type updateStockInput struct {
	HospitalID uint   `json:"hospital_id" binding:"required"`
	BloodGroup string `json:"blood_group" binding:"required"`
	Units      int    `json:"units"`
}

// UpdateStock is the external inventory feed: absolute set, followed by
// an alert refresh.
func (h *Handlers) UpdateStock(c *gin.Context) {
	var in updateStockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	if !models.ValidBloodGroup(in.BloodGroup) {
		response.Fail(c, "unknown blood group", nil)
		return
	}
	if in.Units < 0 {
		response.Fail(c, "units cannot be negative", nil)
		return
	}

	ctx := c.Request.Context()
	if err := h.stock.SetUnits(ctx, in.HospitalID, in.BloodGroup, in.Units); err != nil {
		h.log.Error("stock update failed", zap.Error(err))
		response.Error(c, "could not update stock")
		return
	}
	if err := h.alerts.Upsert(ctx, in.HospitalID, in.BloodGroup, in.Units); err != nil {
		h.log.Warn("alert refresh failed", zap.Error(err))
	}
	response.Success(c, "stock updated", nil)
}
