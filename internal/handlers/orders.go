package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"rachmat-backend/internal/database"
	"rachmat-backend/internal/middleware"
	"rachmat-backend/internal/models"
	"rachmat-backend/internal/services"
)

type OrdersHandler struct {
	dbClient   *database.Client
	completion *services.CompletionService
}

func NewOrdersHandler(dbClient *database.Client, completion *services.CompletionService) *OrdersHandler {
	return &OrdersHandler{
		dbClient:   dbClient,
		completion: completion,
	}
}

// CreateOrder godoc
// @Summary     Create an order
// @Description Creates a pending order for the authenticated client. Each pattern id becomes a line item carrying the pattern's current price; the same pattern may be ordered more than once.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateOrderRequest true "Patterns to purchase"
// @Success     200 {object} models.OrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     422 {object} models.ErrorResponse
// @Router      /orders [post]
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
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

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	var items []models.OrderLineItem
	var amount int64
	for _, idStr := range req.PatternIDs {
		patternID, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid pattern id", Message: idStr})
			return
		}

		pattern, err := h.dbClient.GetPattern(patternID)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:   "pattern not found",
				Message: idStr,
			})
			return
		}
		if !pattern.Active {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:   "pattern not available",
				Message: pattern.Title,
			})
			return
		}

		items = append(items, models.OrderLineItem{
			ID:        uuid.New(),
			PatternID: pattern.ID,
			Price:     pattern.Price,
			Pattern:   pattern,
		})
		amount += pattern.Price
	}

	order := &models.Order{
		ID:       uuid.New(),
		ClientID: clientID,
		Amount:   amount,
	}
	if req.PaymentMethod != "" {
		order.PaymentMethod = sql.NullString{String: req.PaymentMethod, Valid: true}
	}

	order, err = h.dbClient.CreateOrder(order, items)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create order",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, orderResponse(order))
}

// ListOrders godoc
// @Summary     List orders
// @Description Returns all orders, optionally filtered by status. Admin only.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       status query string false "Filter by status (pending, completed, rejected)"
// @Success     200 {object} models.OrderListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	status := c.Query("status")
	orders, err := h.dbClient.ListOrders(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list orders",
			Message: err.Error(),
		})
		return
	}

	summaries := make([]models.OrderSummary, len(orders))
	for i, o := range orders {
		summaries[i] = models.OrderSummary{
			ID:        o.ID.String(),
			ClientID:  o.ClientID.String(),
			Status:    o.Status,
			Amount:    o.Amount,
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.UpdatedAt,
		}
	}

	c.JSON(http.StatusOK, models.OrderListResponse{Orders: summaries})
}

// GetOrder godoc
// @Summary     Get order details
// @Description Returns one order with its line items. Admin only.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.OrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/orders/{order_id} [get]
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id"})
		return
	}

	order, err := h.dbClient.GetOrder(orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "order not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, orderResponse(order))
}

// UpdateStatus godoc
// @Summary     Review an order
// @Description Applies the admin decision. "completed" validates deliverability, sends every purchased file to the client's Telegram chat and credits designers; "rejected" needs a rejection reason. Terminal orders are never re-processed.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       request body models.UpdateOrderStatusRequest true "Decision"
// @Success     200 {object} models.OrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     422 {object} models.DeliveryCheckResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /admin/orders/{order_id}/status [put]
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	if h.dbClient == nil || h.completion == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id"})
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	switch req.Status {
	case models.OrderStatusCompleted:
		h.complete(c, orderID, req.AdminNotes)
	case models.OrderStatusRejected:
		h.reject(c, orderID, req.RejectionReason, req.AdminNotes)
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid status",
			Message: "status must be completed or rejected",
		})
	}
}

func (h *OrdersHandler) complete(c *gin.Context, orderID uuid.UUID, adminNotes string) {
	validation, dispatch, err := h.completion.Complete(orderID, adminNotes)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found"})
		case errors.Is(err, services.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "order already processed"})
		case errors.Is(err, services.ErrValidationFailed):
			c.JSON(http.StatusUnprocessableEntity, models.DeliveryCheckResponse{
				OrderID:   orderID.String(),
				CanSend:   false,
				Issues:    validation.IssueMessages(),
				FileCount: validation.FileCount,
				TotalSize: validation.TotalSize,
			})
		case errors.Is(err, services.ErrDispatchFailed):
			message := dispatch.Error
			if message == "" && dispatch.FailedFile != "" {
				message = "failed to deliver " + dispatch.FailedFile
			}
			c.JSON(http.StatusBadGateway, models.ErrorResponse{
				Error:   "file delivery failed",
				Message: message,
			})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to complete order",
				Message: err.Error(),
			})
		}
		return
	}

	h.respondWithOrder(c, orderID)
}

func (h *OrdersHandler) reject(c *gin.Context, orderID uuid.UUID, reason, adminNotes string) {
	err := h.completion.Reject(orderID, reason, adminNotes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRejectionReasonRequired):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "rejection reason is required"})
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found"})
		case errors.Is(err, services.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "order already processed"})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to reject order",
				Message: err.Error(),
			})
		}
		return
	}

	h.respondWithOrder(c, orderID)
}

// DeliveryCheck godoc
// @Summary     Pre-check file delivery
// @Description Read-only check of whether an order's files can be delivered: client link, per-pattern file lists and physical presence in storage. Reports every issue at once.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.DeliveryCheckResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/orders/{order_id}/delivery-check [get]
func (h *OrdersHandler) DeliveryCheck(c *gin.Context) {
	if h.completion == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id"})
		return
	}

	validation, err := h.completion.Precheck(orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "order not found",
			Message: err.Error(),
		})
		return
	}

	files := make([]models.FileCheckDetail, len(validation.Files))
	for i, f := range validation.Files {
		files[i] = models.FileCheckDetail{
			PatternID:    f.PatternID.String(),
			PatternTitle: f.PatternTitle,
			Path:         f.Path,
			OriginalName: f.OriginalName,
			Size:         f.Size,
			Exists:       f.Exists,
		}
	}

	c.JSON(http.StatusOK, models.DeliveryCheckResponse{
		OrderID:   orderID.String(),
		CanSend:   validation.OK,
		Issues:    validation.IssueMessages(),
		FileCount: validation.FileCount,
		TotalSize: validation.TotalSize,
		Files:     files,
	})
}

func (h *OrdersHandler) respondWithOrder(c *gin.Context, orderID uuid.UUID) {
	order, err := h.dbClient.GetOrder(orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to reload order",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func orderResponse(order *models.Order) models.OrderResponse {
	response := models.OrderResponse{
		ID:        order.ID.String(),
		ClientID:  order.ClientID.String(),
		Status:    order.Status,
		Amount:    order.Amount,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}

	if order.PaymentMethod.Valid {
		response.PaymentMethod = order.PaymentMethod.String
	}
	if order.AdminNotes.Valid {
		response.AdminNotes = order.AdminNotes.String
	}
	if order.RejectionReason.Valid {
		response.RejectionReason = order.RejectionReason.String
	}
	response.ConfirmedAt = nullTimePtr(order.ConfirmedAt)
	response.FileSentAt = nullTimePtr(order.FileSentAt)
	response.CompletedAt = nullTimePtr(order.CompletedAt)
	response.RejectedAt = nullTimePtr(order.RejectedAt)

	for _, item := range order.ResolvedLineItems() {
		line := models.LineItemResponse{
			PatternID: item.PatternID.String(),
			Price:     item.Price,
		}
		if item.Pattern != nil {
			line.PatternTitle = item.Pattern.Title
		}
		response.LineItems = append(response.LineItems, line)
	}

	return response
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
