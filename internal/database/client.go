package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"rachmat-backend/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOrderNotPending is returned when a status transition targets an
	// order that already reached a terminal state.
	ErrOrderNotPending = errors.New("order is not pending")
)

type Client struct {
	db *sql.DB
}

func NewClient(connectionString string) (*Client, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

// NewClientWithDB wraps an existing connection. Used by tests.
func NewClientWithDB(db *sql.DB) *Client {
	return &Client{db: db}
}

func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}

// GetOrder loads an order with its client, direct pattern (legacy shape) and
// line items with their patterns. Everything the delivery workflow reads is
// loaded here so the validator and dispatcher stay free of database calls.
func (c *Client) GetOrder(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := c.db.QueryRow(`
		SELECT id, client_id, pattern_id, amount, status, payment_method, admin_notes, rejection_reason,
		       confirmed_at, file_sent_at, completed_at, rejected_at, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(
		&order.ID, &order.ClientID, &order.PatternID, &order.Amount, &order.Status,
		&order.PaymentMethod, &order.AdminNotes, &order.RejectionReason,
		&order.ConfirmedAt, &order.FileSentAt, &order.CompletedAt, &order.RejectedAt,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	client, err := c.GetClientByID(order.ClientID)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	order.Client = client

	if order.PatternID.Valid {
		pattern, err := c.GetPattern(order.PatternID.UUID)
		if err != nil && err != ErrNotFound {
			return nil, err
		}
		order.Pattern = pattern
	}

	items, err := c.getOrderLineItems(order.ID)
	if err != nil {
		return nil, err
	}
	order.LineItems = items

	return &order, nil
}

func (c *Client) getOrderLineItems(orderID uuid.UUID) ([]models.OrderLineItem, error) {
	rows, err := c.db.Query(`
		SELECT i.id, i.order_id, i.pattern_id, i.price, i.created_at,
		       p.id, p.designer_id, p.title, p.price, p.active, p.files, p.preview_images, p.created_at, p.updated_at
		FROM order_line_items i
		JOIN patterns p ON p.id = i.pattern_id
		WHERE i.order_id = $1
		ORDER BY i.created_at ASC, i.id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order line items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderLineItem
	for rows.Next() {
		var item models.OrderLineItem
		var pattern models.Pattern
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.PatternID, &item.Price, &item.CreatedAt,
			&pattern.ID, &pattern.DesignerID, &pattern.Title, &pattern.Price, &pattern.Active,
			&pattern.Files, &pattern.PreviewImages, &pattern.CreatedAt, &pattern.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line item: %w", err)
		}
		item.Pattern = &pattern
		items = append(items, item)
	}

	return items, rows.Err()
}

func (c *Client) ListOrders(status string) ([]models.Order, error) {
	rows, err := c.db.Query(`
		SELECT id, client_id, pattern_id, amount, status, payment_method, admin_notes, rejection_reason,
		       confirmed_at, file_sent_at, completed_at, rejected_at, created_at, updated_at
		FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID, &order.ClientID, &order.PatternID, &order.Amount, &order.Status,
			&order.PaymentMethod, &order.AdminNotes, &order.RejectionReason,
			&order.ConfirmedAt, &order.FileSentAt, &order.CompletedAt, &order.RejectedAt,
			&order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// CreateOrder inserts an order and its line items in one transaction. The
// order amount must equal the sum of the line item price snapshots; callers
// compute both from the current pattern prices.
func (c *Client) CreateOrder(order *models.Order, items []models.OrderLineItem) (*models.Order, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	err = tx.QueryRow(`
		INSERT INTO orders (id, client_id, pattern_id, amount, status, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, order.ID, order.ClientID, order.PatternID, order.Amount, models.OrderStatusPending, order.PaymentMethod).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	order.Status = models.OrderStatusPending

	for i := range items {
		items[i].OrderID = order.ID
		err := tx.QueryRow(`
			INSERT INTO order_line_items (id, order_id, pattern_id, price)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`, items[i].ID, items[i].OrderID, items[i].PatternID, items[i].Price).Scan(&items[i].CreatedAt)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create order line item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	order.LineItems = items
	return order, nil
}

// CompleteOrder flips a pending order to completed and credits each designer
// in the same transaction. Credits are applied in designer id order so the
// statement sequence is deterministic. Returns ErrOrderNotPending when the
// order already reached a terminal state, which is what makes re-running the
// completion safe against double-crediting.
func (c *Client) CompleteOrder(orderID uuid.UUID, adminNotes string, credits map[uuid.UUID]int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	res, err := tx.Exec(`
		UPDATE orders
		SET status = 'completed', admin_notes = $2,
		    confirmed_at = NOW(), file_sent_at = NOW(), completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, orderID, adminNotes)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to complete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to complete order: %w", err)
	}
	if affected == 0 {
		tx.Rollback()
		return ErrOrderNotPending
	}

	designerIDs := make([]uuid.UUID, 0, len(credits))
	for id := range credits {
		designerIDs = append(designerIDs, id)
	}
	sort.Slice(designerIDs, func(i, j int) bool {
		return designerIDs[i].String() < designerIDs[j].String()
	})

	for _, designerID := range designerIDs {
		_, err := tx.Exec(`
			UPDATE designers
			SET earnings = earnings + $1, updated_at = NOW()
			WHERE id = $2
		`, credits[designerID], designerID)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to credit designer %s: %w", designerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}

	return nil
}

// RejectOrder flips a pending order to rejected. The rejection reason is
// validated by the caller; this only guards the state transition.
func (c *Client) RejectOrder(orderID uuid.UUID, reason, adminNotes string) error {
	res, err := c.db.Exec(`
		UPDATE orders
		SET status = 'rejected', rejection_reason = $2, admin_notes = $3,
		    rejected_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, orderID, reason, adminNotes)
	if err != nil {
		return fmt.Errorf("failed to reject order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to reject order: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotPending
	}
	return nil
}

func (c *Client) GetPattern(patternID uuid.UUID) (*models.Pattern, error) {
	var pattern models.Pattern
	err := c.db.QueryRow(`
		SELECT id, designer_id, title, price, active, files, preview_images, created_at, updated_at
		FROM patterns
		WHERE id = $1
	`, patternID).Scan(
		&pattern.ID, &pattern.DesignerID, &pattern.Title, &pattern.Price, &pattern.Active,
		&pattern.Files, &pattern.PreviewImages, &pattern.CreatedAt, &pattern.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}
	return &pattern, nil
}

func (c *Client) ListPatternsByDesigner(designerID uuid.UUID) ([]models.Pattern, error) {
	rows, err := c.db.Query(`
		SELECT id, designer_id, title, price, active, files, preview_images, created_at, updated_at
		FROM patterns
		WHERE designer_id = $1
		ORDER BY created_at DESC
	`, designerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	defer rows.Close()

	var patterns []models.Pattern
	for rows.Next() {
		var pattern models.Pattern
		err := rows.Scan(
			&pattern.ID, &pattern.DesignerID, &pattern.Title, &pattern.Price, &pattern.Active,
			&pattern.Files, &pattern.PreviewImages, &pattern.CreatedAt, &pattern.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, pattern)
	}

	return patterns, rows.Err()
}

func (c *Client) CreatePattern(pattern *models.Pattern) (*models.Pattern, error) {
	err := c.db.QueryRow(`
		INSERT INTO patterns (id, designer_id, title, price, active, files, preview_images)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, pattern.ID, pattern.DesignerID, pattern.Title, pattern.Price, pattern.Active,
		pattern.Files, pattern.PreviewImages).
		Scan(&pattern.CreatedAt, &pattern.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern: %w", err)
	}
	return pattern, nil
}

// AppendPatternFile adds one file descriptor to the pattern's files list.
// The designer id guards ownership; appending to someone else's pattern is a
// not-found, not a silent success.
func (c *Client) AppendPatternFile(patternID, designerID uuid.UUID, file models.PatternFile) error {
	fileJSON, err := models.PatternFileList{file}.Value()
	if err != nil {
		return fmt.Errorf("failed to encode pattern file: %w", err)
	}

	res, err := c.db.Exec(`
		UPDATE patterns
		SET files = files || $1::jsonb, updated_at = NOW()
		WHERE id = $2 AND designer_id = $3
	`, fileJSON, patternID, designerID)
	if err != nil {
		return fmt.Errorf("failed to append pattern file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to append pattern file: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) GetDesigner(designerID uuid.UUID) (*models.Designer, error) {
	var designer models.Designer
	err := c.db.QueryRow(`
		SELECT id, name, earnings, paid_earnings, subscription_ends_at, created_at, updated_at
		FROM designers
		WHERE id = $1
	`, designerID).Scan(
		&designer.ID, &designer.Name, &designer.Earnings, &designer.PaidEarnings,
		&designer.SubscriptionEndsAt, &designer.CreatedAt, &designer.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get designer: %w", err)
	}
	return &designer, nil
}

// RecordPayout increases a designer's paid-earnings figure. This is the
// manual admin adjustment; it never touches the earnings accumulator.
func (c *Client) RecordPayout(designerID uuid.UUID, amount int64) error {
	res, err := c.db.Exec(`
		UPDATE designers
		SET paid_earnings = paid_earnings + $1, updated_at = NOW()
		WHERE id = $2
	`, amount, designerID)
	if err != nil {
		return fmt.Errorf("failed to record payout: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record payout: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) GetClientByID(clientID uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := c.db.QueryRow(`
		SELECT id, name, telegram_chat_id, created_at, updated_at
		FROM clients
		WHERE id = $1
	`, clientID).Scan(
		&client.ID, &client.Name, &client.TelegramChatID, &client.CreatedAt, &client.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

func (c *Client) ClearTelegramLink(clientID uuid.UUID) error {
	res, err := c.db.Exec(`
		UPDATE clients
		SET telegram_chat_id = NULL, updated_at = NOW()
		WHERE id = $1
	`, clientID)
	if err != nil {
		return fmt.Errorf("failed to clear telegram link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to clear telegram link: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) RecordDeliveryAttempt(attempt *models.DeliveryAttempt) error {
	_, err := c.db.Exec(`
		INSERT INTO delivery_attempts (id, order_id, pattern_id, file_path, attempt, success, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, attempt.ID, attempt.OrderID, attempt.PatternID, attempt.FilePath,
		attempt.Attempt, attempt.Success, attempt.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to record delivery attempt: %w", err)
	}
	return nil
}

// DeliveredFilePaths returns the file paths already confirmed sent for an
// order, so a retried dispatch can skip them.
func (c *Client) DeliveredFilePaths(orderID uuid.UUID) (map[string]bool, error) {
	rows, err := c.db.Query(`
		SELECT DISTINCT file_path
		FROM delivery_attempts
		WHERE order_id = $1 AND success = TRUE
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivered files: %w", err)
	}
	defer rows.Close()

	delivered := make(map[string]bool)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan delivered file: %w", err)
		}
		delivered[path] = true
	}

	return delivered, rows.Err()
}
