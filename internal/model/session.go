package model

import "time"

type Session struct {
	ID             int64     `json:"id"`
	FamilyMemberID int64     `json:"familyMemberId"`
	Token          string    `json:"token"`
	DeviceName     string    `json:"deviceName"`
	ExpiresAt      time.Time `json:"expiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
}
