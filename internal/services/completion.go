// Package services holds the order review workflow: the admin decision is
// applied here, on top of the delivery pre-check and dispatcher.
package services

import (
	"database/sql"
	"errors"
	"log"
	"math"

	"github.com/google/uuid"
	"rachmat-backend/internal/database"
	"rachmat-backend/internal/delivery"
	"rachmat-backend/internal/models"
)

var (
	// ErrAlreadyProcessed is returned when the order already reached a
	// terminal state. Completing twice would double-credit designers, so
	// the transition is guarded both here and in the database update.
	ErrAlreadyProcessed = errors.New("order already processed")
	// ErrValidationFailed means the delivery pre-check found issues; the
	// order was not touched.
	ErrValidationFailed = errors.New("delivery validation failed")
	// ErrDispatchFailed means at least one file exhausted its retries; the
	// order stays pending and no earnings were credited.
	ErrDispatchFailed = errors.New("file delivery failed")
	// ErrRejectionReasonRequired rejects a rejection without a reason.
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
)

type CompletionService struct {
	db             *database.Client
	validator      *delivery.Validator
	dispatcher     *delivery.Dispatcher
	commissionRate float64
}

func NewCompletionService(
	db *database.Client,
	validator *delivery.Validator,
	dispatcher *delivery.Dispatcher,
	commissionRate float64,
) *CompletionService {
	return &CompletionService{
		db:             db,
		validator:      validator,
		dispatcher:     dispatcher,
		commissionRate: commissionRate,
	}
}

// Precheck runs the read-only delivery validation for an order.
func (s *CompletionService) Precheck(orderID uuid.UUID) (*delivery.ValidationResult, error) {
	order, err := s.db.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	return s.validator.Validate(order), nil
}

// Complete runs the pending -> completed transition: validate, dispatch
// files, then flip the status and credit designers in one transaction. The
// order is left untouched unless every file was accepted by Telegram.
func (s *CompletionService) Complete(orderID uuid.UUID, adminNotes string) (*delivery.ValidationResult, *delivery.Result, error) {
	order, err := s.db.GetOrder(orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.IsTerminal() {
		return nil, nil, ErrAlreadyProcessed
	}

	validation := s.validator.Validate(order)
	if !validation.OK {
		return validation, nil, ErrValidationFailed
	}

	delivered, err := s.db.DeliveredFilePaths(orderID)
	if err != nil {
		return validation, nil, err
	}

	result := s.dispatcher.Dispatch(order, delivered)
	s.recordAttempts(orderID, result.Attempts)
	if !result.OK {
		return validation, result, ErrDispatchFailed
	}

	credits := s.creditsFor(order)
	if err := s.db.CompleteOrder(orderID, adminNotes, credits); err != nil {
		if errors.Is(err, database.ErrOrderNotPending) {
			return validation, result, ErrAlreadyProcessed
		}
		return validation, result, err
	}

	return validation, result, nil
}

// Reject runs the pending -> rejected transition. No delivery, no earnings.
func (s *CompletionService) Reject(orderID uuid.UUID, reason, adminNotes string) error {
	if reason == "" {
		return ErrRejectionReasonRequired
	}

	order, err := s.db.GetOrder(orderID)
	if err != nil {
		return err
	}
	if order.IsTerminal() {
		return ErrAlreadyProcessed
	}

	if err := s.db.RejectOrder(orderID, reason, adminNotes); err != nil {
		if errors.Is(err, database.ErrOrderNotPending) {
			return ErrAlreadyProcessed
		}
		return err
	}
	return nil
}

// creditsFor groups the resolved line items by owning designer and sums the
// price snapshots, applying the configured commission rate per designer.
func (s *CompletionService) creditsFor(order *models.Order) map[uuid.UUID]int64 {
	sums := make(map[uuid.UUID]int64)
	for _, item := range order.ResolvedLineItems() {
		if item.Pattern == nil {
			continue
		}
		sums[item.Pattern.DesignerID] += item.Price
	}

	credits := make(map[uuid.UUID]int64, len(sums))
	for designerID, sum := range sums {
		credits[designerID] = int64(math.Round(float64(sum) * s.commissionRate))
	}
	return credits
}

func (s *CompletionService) recordAttempts(orderID uuid.UUID, attempts []delivery.Attempt) {
	for _, a := range attempts {
		record := &models.DeliveryAttempt{
			ID:        uuid.New(),
			OrderID:   orderID,
			PatternID: a.PatternID,
			FilePath:  a.FilePath,
			Attempt:   a.Attempt,
			Success:   a.Success,
		}
		if a.Error != "" {
			record.ErrorMessage = sql.NullString{String: a.Error, Valid: true}
		}
		if err := s.db.RecordDeliveryAttempt(record); err != nil {
			// The attempt log is advisory; a write failure must not block
			// the admin's decision.
			log.Printf("Warning: failed to record delivery attempt for order %s: %v", orderID, err)
		}
	}
}
