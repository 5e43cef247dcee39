package model

import "time"

// Point transaction types.
const (
	TransactionEarned   = "earned"
	TransactionRedeemed = "redeemed"
)

type PointTransaction struct {
	ID             int64     `json:"id"`
	FamilyMemberID int64     `json:"familyMemberId"`
	Amount         int       `json:"amount"`
	Type           string    `json:"type"`
	Description    *string   `json:"description"`
	ReferenceID    *int64    `json:"referenceId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PointBalance is a member's ledger summary: earned minus redeemed.
type PointBalance struct {
	MemberID      int64  `json:"memberId"`
	MemberName    string `json:"memberName"`
	TotalEarned   int    `json:"totalEarned"`
	TotalRedeemed int    `json:"totalRedeemed"`
	Balance       int    `json:"balance"`
}

// LeaderboardEntry is a family member annotated with their ledger balance.
type LeaderboardEntry struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	AvatarType  string `json:"avatarType"`
	AvatarValue string `json:"avatarValue"`
	Color       string `json:"color"`
	IsAdmin     bool   `json:"isAdmin"`
	TotalPoints int    `json:"totalPoints"`
}
