package models_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rachmat-backend/internal/models"
)

func TestOrder_IsTerminal(t *testing.T) {
	assert.False(t, (&models.Order{Status: models.OrderStatusPending}).IsTerminal())
	assert.True(t, (&models.Order{Status: models.OrderStatusCompleted}).IsTerminal())
	assert.True(t, (&models.Order{Status: models.OrderStatusRejected}).IsTerminal())
}

func TestOrder_ResolvedLineItems_LegacyShape(t *testing.T) {
	pattern := &models.Pattern{ID: uuid.New(), Title: "Rose Border", Price: 4000}
	order := &models.Order{
		ID:        uuid.New(),
		PatternID: uuid.NullUUID{UUID: pattern.ID, Valid: true},
		Amount:    5000,
		Pattern:   pattern,
	}

	items := order.ResolvedLineItems()

	require.Len(t, items, 1)
	assert.Equal(t, order.ID, items[0].OrderID)
	assert.Equal(t, pattern.ID, items[0].PatternID)
	assert.Same(t, pattern, items[0].Pattern)
	// The synthesized snapshot carries the order amount, not the current
	// pattern price.
	assert.Equal(t, int64(5000), items[0].Price)
}

func TestOrder_ResolvedLineItems_PrefersStoredItems(t *testing.T) {
	pattern := &models.Pattern{ID: uuid.New()}
	order := &models.Order{
		ID:        uuid.New(),
		PatternID: uuid.NullUUID{UUID: uuid.New(), Valid: true},
		Pattern:   &models.Pattern{ID: uuid.New()},
		LineItems: []models.OrderLineItem{
			{PatternID: pattern.ID, Price: 1000, Pattern: pattern},
		},
	}

	items := order.ResolvedLineItems()

	require.Len(t, items, 1)
	assert.Same(t, pattern, items[0].Pattern)
}

func TestOrder_ResolvedLineItems_EmptyOrder(t *testing.T) {
	assert.Empty(t, (&models.Order{ID: uuid.New()}).ResolvedLineItems())
}

func TestOrder_DistinctPatterns(t *testing.T) {
	rose := &models.Pattern{ID: uuid.New(), Title: "Rose Border"}
	leaf := &models.Pattern{ID: uuid.New(), Title: "Leaf Motif"}
	order := &models.Order{
		ID: uuid.New(),
		LineItems: []models.OrderLineItem{
			{PatternID: rose.ID, Pattern: rose},
			{PatternID: leaf.ID, Pattern: leaf},
			{PatternID: rose.ID, Pattern: rose},
		},
	}

	patterns := order.DistinctPatterns()

	require.Len(t, patterns, 2)
	assert.Same(t, rose, patterns[0])
	assert.Same(t, leaf, patterns[1])
}
