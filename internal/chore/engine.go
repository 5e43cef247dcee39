// Package chore implements the completion engine: validating and recording
// chore completions, enforcing cooldown policy, crediting the point ledger,
// and reversing completions. All multi-statement writes run inside a single
// database transaction.
package chore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/familyhub/familyhub/internal/model"
	"github.com/familyhub/familyhub/internal/store"
)

var (
	ErrChoreNotFound      = errors.New("chore not found")
	ErrChoreDeleted       = errors.New("chore has been deleted")
	ErrMemberNotFound     = errors.New("family member not found")
	ErrCompletionNotFound = errors.New("completion not found")
	ErrUndoExpired        = errors.New("undo window has expired")
)

// CooldownError reports a completion rejected by cooldown policy, carrying
// the time at which the chore becomes available again.
type CooldownError struct {
	EndsAt time.Time
}

func (e *CooldownError) Error() string {
	return "chore is on cooldown"
}

// Result describes a successful completion.
type Result struct {
	Completion      model.ChoreCompletion
	PointsEarned    int
	ChoreName       string
	CompletedByName string
}

// Engine validates and records chore completions and undos.
type Engine struct {
	db         *sql.DB
	chores     *store.ChoreStore
	undoWindow time.Duration // 0 disables the server-side undo limit
	now        func() time.Time
	logger     *slog.Logger
}

func NewEngine(db *sql.DB, undoWindow time.Duration, logger *slog.Logger) *Engine {
	return &Engine{
		db:         db,
		chores:     store.NewChoreStore(db),
		undoWindow: undoWindow,
		now:        time.Now,
		logger:     logger,
	}
}

// Complete records a completion of choreID by memberID. Validation short-
// circuits on the first failure; on success the completion row, earned point
// transaction, and activity entry are written in one transaction, and a pure
// one-time chore is soft-deleted.
func (e *Engine) Complete(ctx context.Context, choreID, memberID int64) (*Result, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	chore, err := loadChoreForCompletion(tx, choreID)
	if err != nil {
		return nil, err
	}
	if chore == nil {
		return nil, ErrChoreNotFound
	}
	if chore.DeletedAt != nil {
		return nil, ErrChoreDeleted
	}

	var memberName string
	err = tx.QueryRow(`SELECT name FROM family_members WHERE id = ?`, memberID).Scan(&memberName)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}

	now := e.now()

	if chore.IsPermanent && chore.CooldownType != nil && *chore.CooldownType != model.CooldownUnlimited {
		var lastAt time.Time
		err := tx.QueryRow(
			`SELECT completed_at FROM chore_completions
			 WHERE chore_id = ? AND completed_by = ?
			 ORDER BY completed_at DESC LIMIT 1`,
			choreID, memberID,
		).Scan(&lastAt)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("last completion: %w", err)
		}
		if err == nil {
			if end, ok := cooldownEnd(chore, lastAt); ok && now.Before(end) {
				return nil, &CooldownError{EndsAt: end}
			}
		}
	}

	result, err := tx.Exec(
		`INSERT INTO chore_completions (chore_id, completed_by, points_earned, completed_at) VALUES (?, ?, ?, ?)`,
		choreID, memberID, chore.Points, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	completionID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if chore.Points > 0 {
		_, err = tx.Exec(
			`INSERT INTO point_transactions (family_member_id, amount, type, description, reference_id) VALUES (?, ?, ?, ?, ?)`,
			memberID, chore.Points, model.TransactionEarned, "Completed: "+chore.Title, completionID,
		)
		if err != nil {
			return nil, fmt.Errorf("insert point transaction: %w", err)
		}
	}

	metadata, err := json.Marshal(model.ChoreCompletedMetadata{Points: chore.Points, ChoreName: chore.Title})
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO activity_log (type, family_member_id, chore_id, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		model.ActivityChoreCompleted, memberID, choreID, string(metadata), now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity entry: %w", err)
	}

	if chore.IsOneTime() {
		_, err = tx.Exec(
			`UPDATE chores SET deleted_at = ?, updated_at = ? WHERE id = ?`,
			now.UTC(), now.UTC(), choreID,
		)
		if err != nil {
			return nil, fmt.Errorf("soft delete one-time chore: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	e.logger.Info("chore completed",
		"chore_id", choreID, "member_id", memberID, "points", chore.Points)

	return &Result{
		Completion: model.ChoreCompletion{
			ID:           completionID,
			ChoreID:      choreID,
			CompletedBy:  memberID,
			PointsEarned: chore.Points,
			CompletedAt:  now.UTC(),
		},
		PointsEarned:    chore.Points,
		ChoreName:       chore.Title,
		CompletedByName: memberName,
	}, nil
}

// Undo reverses a completion: deletes the completion row, its earned point
// transaction, and the matching activity entry, and restores a pure one-time
// chore. Returns the affected chore id. A second undo of the same completion
// fails with ErrCompletionNotFound.
func (e *Engine) Undo(ctx context.Context, completionID int64) (int64, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var comp model.ChoreCompletion
	err = tx.QueryRow(
		`SELECT id, chore_id, completed_by, points_earned, completed_at FROM chore_completions WHERE id = ?`,
		completionID,
	).Scan(&comp.ID, &comp.ChoreID, &comp.CompletedBy, &comp.PointsEarned, &comp.CompletedAt)
	if err == sql.ErrNoRows {
		return 0, ErrCompletionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get completion: %w", err)
	}

	if e.undoWindow > 0 && e.now().Sub(comp.CompletedAt) > e.undoWindow {
		return 0, ErrUndoExpired
	}

	chore, err := loadChoreForCompletion(tx, comp.ChoreID)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(`DELETE FROM chore_completions WHERE id = ?`, completionID); err != nil {
		return 0, fmt.Errorf("delete completion: %w", err)
	}

	if comp.PointsEarned > 0 {
		_, err := tx.Exec(
			`DELETE FROM point_transactions WHERE reference_id = ? AND type = ?`,
			completionID, model.TransactionEarned,
		)
		if err != nil {
			return 0, fmt.Errorf("delete point transaction: %w", err)
		}
	}

	// Remove only the newest activity entry for this chore and member, so
	// other members' entries for the same chore survive the undo.
	_, err = tx.Exec(
		`DELETE FROM activity_log WHERE id = (
			SELECT id FROM activity_log
			WHERE type = ? AND chore_id = ? AND family_member_id = ?
			ORDER BY created_at DESC, id DESC LIMIT 1
		)`,
		model.ActivityChoreCompleted, comp.ChoreID, comp.CompletedBy,
	)
	if err != nil {
		return 0, fmt.Errorf("delete activity entry: %w", err)
	}

	if chore != nil && chore.IsOneTime() {
		_, err := tx.Exec(
			`UPDATE chores SET deleted_at = NULL, updated_at = ? WHERE id = ?`,
			e.now().UTC(), comp.ChoreID,
		)
		if err != nil {
			return 0, fmt.Errorf("restore one-time chore: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	e.logger.Info("completion undone", "completion_id", completionID, "chore_id", comp.ChoreID)
	return comp.ChoreID, nil
}

// FindByQRToken resolves a QR token to its active chore; nil when the token
// is unknown or belongs to a soft-deleted chore.
func (e *Engine) FindByQRToken(token string) (*model.Chore, error) {
	return e.chores.FindActiveByQRToken(token)
}

// FindByNFCTag resolves an NFC tag id to its active chore.
func (e *Engine) FindByNFCTag(tagID string) (*model.Chore, error) {
	return e.chores.FindActiveByNFCTag(tagID)
}

// loadChoreForCompletion reads the completion-relevant chore fields inside
// the transaction. Returns nil when the chore does not exist.
func loadChoreForCompletion(tx *sql.Tx, choreID int64) (*model.Chore, error) {
	var c model.Chore
	var isPermanent int
	var recurringType, cooldownType sql.NullString
	var cooldownHours sql.NullInt64
	var deletedAt sql.NullTime

	err := tx.QueryRow(
		`SELECT id, title, points, is_permanent, recurring_type, cooldown_type, cooldown_hours, deleted_at
		 FROM chores WHERE id = ?`,
		choreID,
	).Scan(&c.ID, &c.Title, &c.Points, &isPermanent, &recurringType, &cooldownType, &cooldownHours, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}

	c.IsPermanent = isPermanent != 0
	if recurringType.Valid {
		c.RecurringType = &recurringType.String
	}
	if cooldownType.Valid {
		c.CooldownType = &cooldownType.String
	}
	if cooldownHours.Valid {
		h := int(cooldownHours.Int64)
		c.CooldownHours = &h
	}
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, nil
}
