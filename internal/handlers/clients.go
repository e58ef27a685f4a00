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

type ClientsHandler struct {
	dbClient *database.Client
}

func NewClientsHandler(dbClient *database.Client) *ClientsHandler {
	return &ClientsHandler{
		dbClient: dbClient,
	}
}

// UnlinkTelegram godoc
// @Summary     Unlink Telegram
// @Description Clears the authenticated client's Telegram chat link. Orders for this client will fail the delivery pre-check until a new link is made.
// @Tags        clients
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Success     200 {object} map[string]string "message"
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /clients/me/telegram [delete]
func (h *ClientsHandler) UnlinkTelegram(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	clientID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	if err := h.dbClient.ClearTelegramLink(clientID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to unlink telegram",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "telegram link removed"})
}
