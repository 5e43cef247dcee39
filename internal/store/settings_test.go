package store

import (
	"testing"

	"github.com/familyhub/familyhub/internal/model"
)

func TestSettingsLifecycle(t *testing.T) {
	s := NewSettingsStore(setupTestDB(t))

	got, err := s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("no settings expected before setup")
	}

	created, err := s.Create("$", "0.10")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Currency != "$" || created.PointValue != "0.10" {
		t.Errorf("created = %+v", created)
	}
	if created.QRBaseURL != nil {
		t.Error("qr base url should start unset")
	}

	baseURL := "https://hub.example.com"
	updated, err := s.Update(created.ID, "€", "0.05", &baseURL)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Currency != "€" || updated.PointValue != "0.05" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.QRBaseURL == nil || *updated.QRBaseURL != baseURL {
		t.Errorf("qr base url = %v", updated.QRBaseURL)
	}
}

func TestSettingsColumnDefaults(t *testing.T) {
	db := setupTestDB(t)
	s := NewSettingsStore(db)

	// A row inserted without explicit values picks up the same defaults the
	// setup handler uses.
	if _, err := db.Exec(`INSERT INTO settings DEFAULT VALUES`); err != nil {
		t.Fatalf("insert defaults: %v", err)
	}

	got, err := s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Currency != "$" || got.PointValue != "0.10" {
		t.Errorf("defaults = %q/%q, want $/0.10", got.Currency, got.PointValue)
	}
}

func TestAdminCredential(t *testing.T) {
	s := NewAdminStore(setupTestDB(t))

	got, err := s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("no admin expected before setup")
	}

	admin, err := s.Create("passwordhash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if admin.AuthType != model.AuthTypePassword {
		t.Errorf("auth type = %q, want password", admin.AuthType)
	}
	if admin.PasswordHash == nil || *admin.PasswordHash != "passwordhash" {
		t.Errorf("password hash = %v", admin.PasswordHash)
	}

	// Setting a PIN switches the auth type
	if err := s.SetPIN(admin.ID, "pinhash"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	got, err = s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AuthType != model.AuthTypePIN {
		t.Errorf("auth type after pin = %q, want pin", got.AuthType)
	}
	if got.PINHash == nil || *got.PINHash != "pinhash" {
		t.Errorf("pin hash = %v", got.PINHash)
	}

	// And a password switches it back
	if err := s.SetPassword(admin.ID, "newhash"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	got, err = s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AuthType != model.AuthTypePassword {
		t.Errorf("auth type after password = %q, want password", got.AuthType)
	}
}
