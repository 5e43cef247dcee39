package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/familyhub/familyhub/internal/model"
)

type AdminStore struct {
	db *sql.DB
}

func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

func scanAdmin(scanner interface{ Scan(...any) error }) (*model.Admin, error) {
	var a model.Admin
	var passwordHash, pinHash sql.NullString

	err := scanner.Scan(&a.ID, &passwordHash, &pinHash, &a.AuthType, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if passwordHash.Valid {
		a.PasswordHash = &passwordHash.String
	}
	if pinHash.Valid {
		a.PINHash = &pinHash.String
	}
	return &a, nil
}

// Get returns the admin row, or nil before setup has completed.
func (s *AdminStore) Get() (*model.Admin, error) {
	row := s.db.QueryRow(`SELECT id, password_hash, pin_hash, auth_type, created_at, updated_at FROM admin LIMIT 1`)
	a, err := scanAdmin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

func (s *AdminStore) Create(passwordHash string) (*model.Admin, error) {
	_, err := s.db.Exec(
		`INSERT INTO admin (password_hash, auth_type) VALUES (?, ?)`,
		passwordHash, model.AuthTypePassword,
	)
	if err != nil {
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	return s.Get()
}

func (s *AdminStore) SetPassword(id int64, passwordHash string) error {
	_, err := s.db.Exec(
		`UPDATE admin SET password_hash = ?, auth_type = ?, updated_at = ? WHERE id = ?`,
		passwordHash, model.AuthTypePassword, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set admin password: %w", err)
	}
	return nil
}

func (s *AdminStore) SetPIN(id int64, pinHash string) error {
	_, err := s.db.Exec(
		`UPDATE admin SET pin_hash = ?, auth_type = ?, updated_at = ? WHERE id = ?`,
		pinHash, model.AuthTypePIN, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set admin pin: %w", err)
	}
	return nil
}
