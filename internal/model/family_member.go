package model

import "time"

type FamilyMember struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	AvatarType  string    `json:"avatarType"`
	AvatarValue string    `json:"avatarValue"`
	Color       string    `json:"color"`
	IsAdmin     bool      `json:"isAdmin"`
	HasPassword bool      `json:"hasPassword"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PastelColors is the fixed palette members may pick their color from.
var PastelColors = []string{
	"#FFB3BA", // Pink
	"#FFDFBA", // Peach
	"#FFFFBA", // Yellow
	"#BAFFC9", // Mint
	"#BAE1FF", // Sky Blue
	"#E0BBE4", // Lavender
	"#D4A5A5", // Dusty Rose
	"#A5D4D4", // Teal
	"#C9C9FF", // Periwinkle
	"#FFD4BA", // Apricot
	"#D4BAFF", // Lilac
	"#BAFFD4", // Seafoam
}

// IsPastelColor reports whether c is one of the allowed palette colors.
func IsPastelColor(c string) bool {
	for _, p := range PastelColors {
		if p == c {
			return true
		}
	}
	return false
}
