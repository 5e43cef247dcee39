package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/familyhub/familyhub/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

// ChoreParams carries the writable chore fields for Create and Update.
// Cooldown fields are expected to be normalized by the caller: nil for
// non-permanent chores, and CooldownHours set only with the "hours" type.
type ChoreParams struct {
	Title           string
	Description     *string
	Points          int
	CategoryID      *int64
	AssigneeID      *int64
	IsPermanent     bool
	RecurringType   *string
	RecurringConfig json.RawMessage
	DueDate         *string
	DueTime         *string
	EndDate         *string
	CooldownType    *string
	CooldownHours   *int
}

const choreCols = `id, title, description, points, category_id, assignee_id, is_permanent,
	recurring_type, recurring_config, due_date, due_time, end_date,
	cooldown_type, cooldown_hours, qr_token, nfc_tag_id, deleted_at, created_at, updated_at`

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var description, recurringType, recurringConfig sql.NullString
	var dueDate, dueTime, endDate sql.NullString
	var cooldownType, qrToken, nfcTagID sql.NullString
	var categoryID, assigneeID, cooldownHours sql.NullInt64
	var isPermanent int
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.Title, &description, &c.Points, &categoryID, &assigneeID, &isPermanent,
		&recurringType, &recurringConfig, &dueDate, &dueTime, &endDate,
		&cooldownType, &cooldownHours, &qrToken, &nfcTagID, &deletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.IsPermanent = isPermanent != 0
	if description.Valid {
		c.Description = &description.String
	}
	if categoryID.Valid {
		c.CategoryID = &categoryID.Int64
	}
	if assigneeID.Valid {
		c.AssigneeID = &assigneeID.Int64
	}
	if recurringType.Valid {
		c.RecurringType = &recurringType.String
	}
	if recurringConfig.Valid {
		c.RecurringConfig = json.RawMessage(recurringConfig.String)
	}
	if dueDate.Valid {
		c.DueDate = &dueDate.String
	}
	if dueTime.Valid {
		c.DueTime = &dueTime.String
	}
	if endDate.Valid {
		c.EndDate = &endDate.String
	}
	if cooldownType.Valid {
		c.CooldownType = &cooldownType.String
	}
	if cooldownHours.Valid {
		h := int(cooldownHours.Int64)
		c.CooldownHours = &h
	}
	if qrToken.Valid {
		c.QRToken = &qrToken.String
	}
	if nfcTagID.Valid {
		c.NFCTagID = &nfcTagID.String
	}
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, nil
}

func nullConfig(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 || string(raw) == "null" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *ChoreStore) Create(p ChoreParams, qrToken string) (*model.Chore, error) {
	result, err := s.db.Exec(
		`INSERT INTO chores (title, description, points, category_id, assignee_id, is_permanent,
			recurring_type, recurring_config, due_date, due_time, end_date,
			cooldown_type, cooldown_hours, qr_token)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, nullString(p.Description), p.Points, nullInt64(p.CategoryID), nullInt64(p.AssigneeID),
		boolToInt(p.IsPermanent), nullString(p.RecurringType), nullConfig(p.RecurringConfig),
		nullString(p.DueDate), nullString(p.DueTime), nullString(p.EndDate),
		nullString(p.CooldownType), nullInt(p.CooldownHours), qrToken,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// List returns chores newest first. Soft-deleted chores are excluded unless
// includeDeleted is set.
func (s *ChoreStore) List(includeDeleted bool) ([]model.Chore, error) {
	query := `SELECT ` + choreCols + ` FROM chores`
	if !includeDeleted {
		query += ` WHERE deleted_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(id int64, p ChoreParams) (*model.Chore, error) {
	_, err := s.db.Exec(
		`UPDATE chores SET title = ?, description = ?, points = ?, category_id = ?, assignee_id = ?,
			is_permanent = ?, recurring_type = ?, recurring_config = ?,
			due_date = ?, due_time = ?, end_date = ?,
			cooldown_type = ?, cooldown_hours = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title, nullString(p.Description), p.Points, nullInt64(p.CategoryID), nullInt64(p.AssigneeID),
		boolToInt(p.IsPermanent), nullString(p.RecurringType), nullConfig(p.RecurringConfig),
		nullString(p.DueDate), nullString(p.DueTime), nullString(p.EndDate),
		nullString(p.CooldownType), nullInt(p.CooldownHours), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) SoftDelete(id int64) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE chores SET deleted_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
	if err != nil {
		return fmt.Errorf("soft delete chore: %w", err)
	}
	return nil
}

func (s *ChoreStore) HardDelete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

// SetNFCTag binds or, with a nil tag, unbinds the chore's NFC tag.
func (s *ChoreStore) SetNFCTag(id int64, tagID *string) (*model.Chore, error) {
	_, err := s.db.Exec(
		`UPDATE chores SET nfc_tag_id = ?, updated_at = ? WHERE id = ?`,
		nullString(tagID), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set nfc tag: %w", err)
	}
	return s.GetByID(id)
}

// GetByNFCTagAny looks up a chore holding the tag, including soft-deleted
// chores. Used for bind-conflict checks against the unique constraint.
func (s *ChoreStore) GetByNFCTagAny(tagID string) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE nfc_tag_id = ?`, tagID)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore by nfc tag: %w", err)
	}
	return c, nil
}

// FindActiveByQRToken returns the non-deleted chore holding the QR token.
// Tokens on soft-deleted chores never match.
func (s *ChoreStore) FindActiveByQRToken(token string) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE qr_token = ? AND deleted_at IS NULL`, token)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore by qr token: %w", err)
	}
	return c, nil
}

// FindActiveByNFCTag returns the non-deleted chore holding the NFC tag.
func (s *ChoreStore) FindActiveByNFCTag(tagID string) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE nfc_tag_id = ? AND deleted_at IS NULL`, tagID)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore by nfc tag: %w", err)
	}
	return c, nil
}

// --- Completion methods ---

const completionCols = `id, chore_id, completed_by, points_earned, completed_at`

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.ChoreCompletion, error) {
	var c model.ChoreCompletion
	err := scanner.Scan(&c.ID, &c.ChoreID, &c.CompletedBy, &c.PointsEarned, &c.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ChoreStore) GetCompletion(id int64) (*model.ChoreCompletion, error) {
	row := s.db.QueryRow(`SELECT `+completionCols+` FROM chore_completions WHERE id = ?`, id)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) ListCompletionsByChore(choreID int64) ([]model.ChoreCompletion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM chore_completions WHERE chore_id = ? ORDER BY completed_at DESC`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.ChoreCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

// LastCompletionByMember returns the member's most recent completion of the
// chore, or nil when they have never completed it.
func (s *ChoreStore) LastCompletionByMember(choreID, memberID int64) (*model.ChoreCompletion, error) {
	row := s.db.QueryRow(
		`SELECT `+completionCols+` FROM chore_completions
		 WHERE chore_id = ? AND completed_by = ?
		 ORDER BY completed_at DESC LIMIT 1`,
		choreID, memberID,
	)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last completion: %w", err)
	}
	return c, nil
}
