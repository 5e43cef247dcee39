package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/familyhub/familyhub/internal/model"
)

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

const settingsCols = `id, currency, point_value, qr_base_url, created_at, updated_at`

func scanSettings(scanner interface{ Scan(...any) error }) (*model.Settings, error) {
	var s model.Settings
	var qrBaseURL sql.NullString

	err := scanner.Scan(&s.ID, &s.Currency, &s.PointValue, &qrBaseURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if qrBaseURL.Valid {
		s.QRBaseURL = &qrBaseURL.String
	}
	return &s, nil
}

// Get returns the settings row, or nil before setup has completed.
func (s *SettingsStore) Get() (*model.Settings, error) {
	row := s.db.QueryRow(`SELECT ` + settingsCols + ` FROM settings LIMIT 1`)
	st, err := scanSettings(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

func (s *SettingsStore) Create(currency, pointValue string) (*model.Settings, error) {
	result, err := s.db.Exec(
		`INSERT INTO settings (currency, point_value) VALUES (?, ?)`,
		currency, pointValue,
	)
	if err != nil {
		return nil, fmt.Errorf("insert settings: %w", err)
	}
	if _, err := result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get()
}

func (s *SettingsStore) Update(id int64, currency, pointValue string, qrBaseURL *string) (*model.Settings, error) {
	_, err := s.db.Exec(
		`UPDATE settings SET currency = ?, point_value = ?, qr_base_url = ?, updated_at = ? WHERE id = ?`,
		currency, pointValue, nullString(qrBaseURL), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return s.Get()
}
