package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookflipfinder/models"
)

type alertCreateRequest struct {
	UserID                string   `json:"user_id" binding:"required"`
	ProfitMarginThreshold *float64 `json:"profit_margin_threshold"`
	MinStock              *int     `json:"min_stock"`
	IncludeRetailers      []string `json:"include_retailers"`
	AlertFrequency        string   `json:"alert_frequency"`
}

type alertUpdateRequest struct {
	ProfitMarginThreshold *float64 `json:"profit_margin_threshold"`
	MinStock              *int     `json:"min_stock"`
	IncludeRetailers      []string `json:"include_retailers"`
	AlertFrequency        *string  `json:"alert_frequency"`
	IsActive              *bool    `json:"is_active"`
}

type alertResponse struct {
	ID                    string   `json:"id"`
	UserID                string   `json:"user_id"`
	ProfitMarginThreshold float64  `json:"profit_margin_threshold"`
	MinStock              int      `json:"min_stock"`
	IncludeRetailers      []string `json:"include_retailers"`
	AlertFrequency        string   `json:"alert_frequency"`
	IsActive              bool     `json:"is_active"`
}

func toAlertResponse(pref *models.AlertPreference) alertResponse {
	retailers := pref.Retailers()
	if retailers == nil {
		retailers = []string{}
	}
	return alertResponse{
		ID:                    pref.ID,
		UserID:                pref.UserID,
		ProfitMarginThreshold: pref.ProfitMarginThreshold,
		MinStock:              pref.MinStock,
		IncludeRetailers:      retailers,
		AlertFrequency:        pref.AlertFrequency,
		IsActive:              pref.IsActive,
	}
}

func (s *Server) handleCreateAlert(c *gin.Context) {
	var req alertCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	pref := &models.AlertPreference{
		UserID:                req.UserID,
		ProfitMarginThreshold: 20,
		MinStock:              1,
		AlertFrequency:        models.FrequencyDaily,
		IsActive:              true,
	}
	if req.ProfitMarginThreshold != nil {
		pref.ProfitMarginThreshold = *req.ProfitMarginThreshold
	}
	if req.MinStock != nil {
		pref.MinStock = *req.MinStock
	}
	if len(req.IncludeRetailers) > 0 {
		pref.SetRetailers(req.IncludeRetailers)
	}
	if req.AlertFrequency != "" {
		if !models.ValidFrequency(req.AlertFrequency) {
			badRequest(c, "alert_frequency must be one of immediate, hourly, daily, weekly")
			return
		}
		pref.AlertFrequency = req.AlertFrequency
	}

	if err := s.alerts.Create(c.Request.Context(), nil, pref); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAlertResponse(pref))
}

func (s *Server) handleGetAlert(c *gin.Context) {
	pref, err := s.alerts.GetByUserID(c.Request.Context(), nil, c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAlertResponse(pref))
}

func (s *Server) handleUpdateAlert(c *gin.Context) {
	var req alertUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	pref, err := s.alerts.GetByUserID(ctx, nil, c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if req.ProfitMarginThreshold != nil {
		pref.ProfitMarginThreshold = *req.ProfitMarginThreshold
	}
	if req.MinStock != nil {
		pref.MinStock = *req.MinStock
	}
	if req.IncludeRetailers != nil {
		pref.SetRetailers(req.IncludeRetailers)
	}
	if req.AlertFrequency != nil {
		if !models.ValidFrequency(*req.AlertFrequency) {
			badRequest(c, "alert_frequency must be one of immediate, hourly, daily, weekly")
			return
		}
		pref.AlertFrequency = *req.AlertFrequency
	}
	if req.IsActive != nil {
		pref.IsActive = *req.IsActive
	}

	if err := s.alerts.Update(ctx, nil, pref); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAlertResponse(pref))
}

func (s *Server) handleDeleteAlert(c *gin.Context) {
	if err := s.alerts.Delete(c.Request.Context(), nil, c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "alert preference deleted"})
}
