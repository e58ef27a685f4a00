package models

type CreateOrderRequest struct {
	// Patterns being purchased. The server snapshots each pattern's current
	// price into the line item; the same pattern may appear more than once.
	PatternIDs    []string `json:"pattern_ids" binding:"required,min=1"`
	PaymentMethod string   `json:"payment_method,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status          string `json:"status" binding:"required"`
	AdminNotes      string `json:"admin_notes,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

type CreatePatternRequest struct {
	Title string `json:"title" binding:"required"`
	Price int64  `json:"price" binding:"required,gt=0"`
}

type RecordPayoutRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Notes  string `json:"notes,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
