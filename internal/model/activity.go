package model

import (
	"encoding/json"
	"time"
)

// Activity log entry types.
const (
	ActivityChoreCompleted = "chore_completed"
	ActivityPointsRedeemed = "points_redeemed"
)

type ActivityEntry struct {
	ID             int64           `json:"id"`
	Type           string          `json:"type"`
	FamilyMemberID *int64          `json:"familyMemberId"`
	ChoreID        *int64          `json:"choreId"`
	Metadata       json.RawMessage `json:"metadata"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ChoreCompletedMetadata is the metadata payload for chore_completed entries.
type ChoreCompletedMetadata struct {
	Points    int    `json:"points"`
	ChoreName string `json:"choreName"`
}

// PointsRedeemedMetadata is the metadata payload for points_redeemed entries.
type PointsRedeemedMetadata struct {
	Amount     int    `json:"amount"`
	MoneyValue string `json:"moneyValue"`
}

// ActivityFeedItem is an activity entry joined with member and chore display
// fields for the dashboard feed.
type ActivityFeedItem struct {
	ActivityEntry
	MemberName        *string `json:"memberName"`
	MemberColor       *string `json:"memberColor"`
	MemberAvatarType  *string `json:"memberAvatarType"`
	MemberAvatarValue *string `json:"memberAvatarValue"`
	ChoreTitle        *string `json:"choreTitle"`
}
