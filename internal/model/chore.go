package model

import (
	"encoding/json"
	"time"
)

// Cooldown policies for permanent chores.
const (
	CooldownUnlimited = "unlimited"
	CooldownDaily     = "daily"
	CooldownHours     = "hours"
)

type Chore struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Description     *string         `json:"description"`
	Points          int             `json:"points"`
	CategoryID      *int64          `json:"categoryId"`
	AssigneeID      *int64          `json:"assigneeId"`
	IsPermanent     bool            `json:"isPermanent"`
	RecurringType   *string         `json:"recurringType"`
	RecurringConfig json.RawMessage `json:"recurringConfig"`
	DueDate         *string         `json:"dueDate"`
	DueTime         *string         `json:"dueTime"`
	EndDate         *string         `json:"endDate"`
	CooldownType    *string         `json:"cooldownType"`
	CooldownHours   *int            `json:"cooldownHours"`
	QRToken         *string         `json:"qrToken"`
	NFCTagID        *string         `json:"nfcTagId"`
	DeletedAt       *time.Time      `json:"deletedAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// IsOneTime reports whether the chore is a pure one-time chore: neither
// permanent nor recurring. One-time chores are soft-deleted on completion.
func (c *Chore) IsOneTime() bool {
	return !c.IsPermanent && (c.RecurringType == nil || *c.RecurringType == "")
}

type ChoreCompletion struct {
	ID           int64     `json:"id"`
	ChoreID      int64     `json:"choreId"`
	CompletedBy  int64     `json:"completedBy"`
	PointsEarned int       `json:"pointsEarned"`
	CompletedAt  time.Time `json:"completedAt"`
}
