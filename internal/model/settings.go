package model

import "time"

// Admin auth types for the settings gate.
const (
	AuthTypePassword = "password"
	AuthTypePIN      = "pin"
)

type Settings struct {
	ID         int64     `json:"id"`
	Currency   string    `json:"currency"`
	PointValue string    `json:"pointValue"`
	QRBaseURL  *string   `json:"qrBaseUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Admin holds the credential that gates the settings screen. A single row;
// either a password hash or a PIN hash depending on AuthType.
type Admin struct {
	ID           int64     `json:"id"`
	PasswordHash *string   `json:"-"`
	PINHash      *string   `json:"-"`
	AuthType     string    `json:"authType"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
