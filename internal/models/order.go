package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Order statuses. Orders start pending and move to exactly one terminal state.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusRejected  = "rejected"
)

type Order struct {
	ID              uuid.UUID
	ClientID        uuid.UUID
	PatternID       uuid.NullUUID // legacy single-item orders reference a pattern directly
	Amount          int64
	Status          string
	PaymentMethod   sql.NullString
	AdminNotes      sql.NullString
	RejectionReason sql.NullString
	ConfirmedAt     sql.NullTime
	FileSentAt      sql.NullTime
	CompletedAt     sql.NullTime
	RejectedAt      sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Eagerly loaded associations.
	Client    *Client
	Pattern   *Pattern
	LineItems []OrderLineItem
}

type OrderLineItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	PatternID uuid.UUID
	Price     int64 // snapshot of the pattern price at purchase time, minor units
	CreatedAt time.Time

	Pattern *Pattern
}

// IsTerminal reports whether the order already reached a final state.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusRejected
}

// ResolvedLineItems normalizes the two order shapes into one. A legacy order
// that references a pattern directly synthesizes a single line item carrying
// the order amount as the price snapshot; multi-item orders return their line
// items as stored. Callers never branch on the order shape themselves.
func (o *Order) ResolvedLineItems() []OrderLineItem {
	if len(o.LineItems) > 0 {
		return o.LineItems
	}
	if o.PatternID.Valid && o.Pattern != nil {
		return []OrderLineItem{{
			OrderID:   o.ID,
			PatternID: o.PatternID.UUID,
			Price:     o.Amount,
			Pattern:   o.Pattern,
		}}
	}
	return nil
}

// DistinctPatterns returns the patterns referenced by the order, deduplicated
// by pattern id. The same pattern purchased twice appears once here.
func (o *Order) DistinctPatterns() []*Pattern {
	seen := make(map[uuid.UUID]bool)
	var patterns []*Pattern
	for _, item := range o.ResolvedLineItems() {
		if item.Pattern == nil || seen[item.Pattern.ID] {
			continue
		}
		seen[item.Pattern.ID] = true
		patterns = append(patterns, item.Pattern)
	}
	return patterns
}
