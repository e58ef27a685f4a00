package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Designer struct {
	ID                 uuid.UUID
	Name               string
	Earnings           int64 // accumulated credits from completed orders, minor units
	PaidEarnings       int64 // amount already paid out, adjusted by admins
	SubscriptionEndsAt sql.NullTime
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Client struct {
	ID             uuid.UUID
	Name           string
	TelegramChatID sql.NullString // delivery destination, absent until the client links the bot
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type DeliveryAttempt struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	PatternID    uuid.UUID
	FilePath     string
	Attempt      int
	Success      bool
	ErrorMessage sql.NullString
	CreatedAt    time.Time
}
