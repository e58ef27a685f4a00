package models

import "time"

type OrderResponse struct {
	ID              string              `json:"order_id"`
	ClientID        string              `json:"client_id"`
	Status          string              `json:"status"`
	Amount          int64               `json:"amount"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
	AdminNotes      string              `json:"admin_notes,omitempty"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
	ConfirmedAt     *time.Time          `json:"confirmed_at,omitempty"`
	FileSentAt      *time.Time          `json:"file_sent_at,omitempty"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	RejectedAt      *time.Time          `json:"rejected_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	LineItems       []LineItemResponse  `json:"line_items,omitempty"`
}

type LineItemResponse struct {
	PatternID    string `json:"pattern_id"`
	PatternTitle string `json:"pattern_title,omitempty"`
	Price        int64  `json:"price"`
}

type OrderListResponse struct {
	Orders []OrderSummary `json:"orders"`
}

type OrderSummary struct {
	ID        string    `json:"order_id"`
	ClientID  string    `json:"client_id"`
	Status    string    `json:"status"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DeliveryCheckResponse struct {
	OrderID   string            `json:"order_id"`
	CanSend   bool              `json:"can_send"`
	Issues    []string          `json:"issues,omitempty"`
	FileCount int               `json:"file_count"`
	TotalSize int64             `json:"total_size"`
	Files     []FileCheckDetail `json:"files,omitempty"`
}

type FileCheckDetail struct {
	PatternID    string `json:"pattern_id"`
	PatternTitle string `json:"pattern_title"`
	Path         string `json:"path"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	Exists       bool   `json:"exists"`
}

type PatternResponse struct {
	ID            string                `json:"pattern_id"`
	DesignerID    string                `json:"designer_id"`
	Title         string                `json:"title"`
	Price         int64                 `json:"price"`
	Active        bool                  `json:"active"`
	Files         []PatternFileResponse `json:"files"`
	PreviewImages []string              `json:"preview_images,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

type PatternFileResponse struct {
	OriginalName string `json:"original_name"`
	Format       string `json:"format"`
	Size         int64  `json:"size"`
	Primary      bool   `json:"primary"`
}

type PatternListResponse struct {
	Patterns []PatternResponse `json:"patterns"`
}

type EarningsResponse struct {
	DesignerID   string `json:"designer_id"`
	Earnings     int64  `json:"earnings"`
	PaidEarnings int64  `json:"paid_earnings"`
	Outstanding  int64  `json:"outstanding"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
