package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/familyhub/familyhub/internal/model"
)

type FamilyMemberStore struct {
	db *sql.DB
}

func NewFamilyMemberStore(db *sql.DB) *FamilyMemberStore {
	return &FamilyMemberStore{db: db}
}

const memberCols = `id, name, avatar_type, avatar_value, color, is_admin, password_hash IS NOT NULL, created_at, updated_at`

func scanMember(scanner interface{ Scan(...any) error }) (*model.FamilyMember, error) {
	var m model.FamilyMember
	var isAdmin, hasPassword int

	err := scanner.Scan(
		&m.ID, &m.Name, &m.AvatarType, &m.AvatarValue, &m.Color,
		&isAdmin, &hasPassword, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.IsAdmin = isAdmin != 0
	m.HasPassword = hasPassword != 0
	return &m, nil
}

func (s *FamilyMemberStore) Create(name, avatarType, avatarValue, color string, isAdmin bool, passwordHash *string) (*model.FamilyMember, error) {
	var admin int
	if isAdmin {
		admin = 1
	}
	var hash sql.NullString
	if passwordHash != nil {
		hash = sql.NullString{String: *passwordHash, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO family_members (name, avatar_type, avatar_value, color, is_admin, password_hash) VALUES (?, ?, ?, ?, ?, ?)`,
		name, avatarType, avatarValue, color, admin, hash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyMemberStore) GetByID(id int64) (*model.FamilyMember, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM family_members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family member: %w", err)
	}
	return m, nil
}

func (s *FamilyMemberStore) List() ([]model.FamilyMember, error) {
	rows, err := s.db.Query(`SELECT ` + memberCols + ` FROM family_members ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var members []model.FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// GetAdmin returns the admin family member, or nil if none exists yet.
func (s *FamilyMemberStore) GetAdmin() (*model.FamilyMember, error) {
	row := s.db.QueryRow(`SELECT ` + memberCols + ` FROM family_members WHERE is_admin = 1 LIMIT 1`)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin member: %w", err)
	}
	return m, nil
}

func (s *FamilyMemberStore) Update(id int64, name, avatarType, avatarValue, color string) (*model.FamilyMember, error) {
	_, err := s.db.Exec(
		`UPDATE family_members SET name = ?, avatar_type = ?, avatar_value = ?, color = ?, updated_at = ? WHERE id = ?`,
		name, avatarType, avatarValue, color, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update family member: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyMemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM family_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete family member: %w", err)
	}
	return nil
}

func (s *FamilyMemberStore) SetPassword(id int64, passwordHash string) error {
	_, err := s.db.Exec(
		`UPDATE family_members SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

// GetPasswordHash returns the stored hash, or "" when no password is set.
func (s *FamilyMemberStore) GetPasswordHash(id int64) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRow(`SELECT password_hash FROM family_members WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("family member not found")
	}
	if err != nil {
		return "", fmt.Errorf("query password hash: %w", err)
	}
	if !hash.Valid {
		return "", nil
	}
	return hash.String, nil
}
