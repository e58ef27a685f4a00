package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"rachmat-backend/internal/database"
	"rachmat-backend/internal/middleware"
	"rachmat-backend/internal/models"
)

type DesignersHandler struct {
	dbClient *database.Client
}

func NewDesignersHandler(dbClient *database.Client) *DesignersHandler {
	return &DesignersHandler{
		dbClient: dbClient,
	}
}

// GetMyEarnings godoc
// @Summary     Get my earnings
// @Description Returns the authenticated designer's accumulated earnings, the amount already paid out and the outstanding balance.
// @Tags        designers
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.EarningsResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /designers/me/earnings [get]
func (h *DesignersHandler) GetMyEarnings(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	designerID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	designer, err := h.dbClient.GetDesigner(designerID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "designer not found"})
		return
	}

	c.JSON(http.StatusOK, models.EarningsResponse{
		DesignerID:   designer.ID.String(),
		Earnings:     designer.Earnings,
		PaidEarnings: designer.PaidEarnings,
		Outstanding:  designer.Earnings - designer.PaidEarnings,
	})
}

// RecordPayout godoc
// @Summary     Record a designer payout
// @Description Increases a designer's paid-earnings figure after a manual payout. Admin only. Never touches the earnings accumulator.
// @Tags        designers
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       designer_id path string true "Designer ID (UUID)"
// @Param       request body models.RecordPayoutRequest true "Payout amount"
// @Success     200 {object} models.EarningsResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/designers/{designer_id}/payouts [post]
func (h *DesignersHandler) RecordPayout(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	designerID, err := uuid.Parse(c.Param("designer_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid designer id"})
		return
	}

	var req models.RecordPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	if err := h.dbClient.RecordPayout(designerID, req.Amount); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "designer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to record payout",
			Message: err.Error(),
		})
		return
	}

	designer, err := h.dbClient.GetDesigner(designerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to reload designer",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.EarningsResponse{
		DesignerID:   designer.ID.String(),
		Earnings:     designer.Earnings,
		PaidEarnings: designer.PaidEarnings,
		Outstanding:  designer.Earnings - designer.PaidEarnings,
	})
}
