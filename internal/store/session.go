package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/familyhub/familyhub/internal/model"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

const sessionCols = `id, family_member_id, session_token, device_name, expires_at, created_at`

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	err := scanner.Scan(&s.ID, &s.FamilyMemberID, &s.Token, &s.DeviceName, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *SessionStore) Create(memberID int64, token, deviceName string, expiresAt time.Time) (*model.Session, error) {
	result, err := s.db.Exec(
		`INSERT INTO user_sessions (family_member_id, session_token, device_name, expires_at) VALUES (?, ?, ?, ?)`,
		memberID, token, deviceName, expiresAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM user_sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetValidByToken returns the unexpired session for the token, or nil when the
// token is unknown or expired.
func (s *SessionStore) GetValidByToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM user_sessions WHERE session_token = ? AND expires_at > ?`,
		token, time.Now().UTC(),
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// DeleteByToken removes the session and reports whether one existed.
func (s *SessionStore) DeleteByToken(token string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM user_sessions WHERE session_token = ?`, token)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteExpired removes sessions past their expiry. Run periodically.
func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM user_sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
