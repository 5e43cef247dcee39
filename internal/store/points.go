package store

import (
	"database/sql"
	"fmt"

	"github.com/familyhub/familyhub/internal/model"
)

type PointsStore struct {
	db *sql.DB
}

func NewPointsStore(db *sql.DB) *PointsStore {
	return &PointsStore{db: db}
}

const transactionCols = `id, family_member_id, amount, type, description, reference_id, created_at`

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.PointTransaction, error) {
	var t model.PointTransaction
	var description sql.NullString
	var referenceID sql.NullInt64

	err := scanner.Scan(&t.ID, &t.FamilyMemberID, &t.Amount, &t.Type, &description, &referenceID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		t.Description = &description.String
	}
	if referenceID.Valid {
		t.ReferenceID = &referenceID.Int64
	}
	return &t, nil
}

func (s *PointsStore) Insert(memberID int64, amount int, txType, description string, referenceID *int64) (*model.PointTransaction, error) {
	result, err := s.db.Exec(
		`INSERT INTO point_transactions (family_member_id, amount, type, description, reference_id) VALUES (?, ?, ?, ?, ?)`,
		memberID, amount, txType, description, nullInt64(referenceID),
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+transactionCols+` FROM point_transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

// RedeemAll converts the member's entire positive balance into a single
// redeemed transaction. The balance read and the insert share one database
// transaction, so two concurrent redemptions cannot both consume the same
// points. Returns the transaction and the formatted money value, or nil when
// there is nothing to redeem.
func (s *PointsStore) RedeemAll(memberID int64, currency string, pointValue float64) (*model.PointTransaction, string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var earned, redeemed sql.NullInt64
	err = tx.QueryRow(
		`SELECT
			COALESCE(SUM(CASE WHEN type = 'earned' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'redeemed' THEN amount ELSE 0 END), 0)
		 FROM point_transactions WHERE family_member_id = ?`,
		memberID,
	).Scan(&earned, &redeemed)
	if err != nil {
		return nil, "", fmt.Errorf("sum transactions: %w", err)
	}

	balance := int(earned.Int64) - int(redeemed.Int64)
	if balance <= 0 {
		return nil, "", nil
	}

	moneyValue := fmt.Sprintf("%s%.2f", currency, float64(balance)*pointValue)
	description := fmt.Sprintf("Redeemed %d points (%s)", balance, moneyValue)

	result, err := tx.Exec(
		`INSERT INTO point_transactions (family_member_id, amount, type, description) VALUES (?, ?, 'redeemed', ?)`,
		memberID, balance, description,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert redemption: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, "", fmt.Errorf("last insert id: %w", err)
	}

	row := tx.QueryRow(`SELECT `+transactionCols+` FROM point_transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, "", fmt.Errorf("scan redemption: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("commit: %w", err)
	}
	return t, moneyValue, nil
}

// HistoryByMember returns the member's most recent transactions, capped at limit.
func (s *PointsStore) HistoryByMember(memberID int64, limit int) ([]model.PointTransaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionCols+` FROM point_transactions
		 WHERE family_member_id = ? ORDER BY created_at DESC LIMIT ?`,
		memberID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.PointTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// GetBalance computes a member's ledger summary: sum of earned minus sum of
// redeemed amounts.
func (s *PointsStore) GetBalance(memberID int64) (*model.PointBalance, error) {
	var earned, redeemed sql.NullInt64
	err := s.db.QueryRow(
		`SELECT
			COALESCE(SUM(CASE WHEN type = 'earned' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'redeemed' THEN amount ELSE 0 END), 0)
		 FROM point_transactions WHERE family_member_id = ?`,
		memberID,
	).Scan(&earned, &redeemed)
	if err != nil {
		return nil, fmt.Errorf("sum transactions: %w", err)
	}

	var name string
	err = s.db.QueryRow(`SELECT name FROM family_members WHERE id = ?`, memberID).Scan(&name)
	if err == sql.ErrNoRows {
		name = "Unknown"
	} else if err != nil {
		return nil, fmt.Errorf("get member name: %w", err)
	}

	totalEarned := int(earned.Int64)
	totalRedeemed := int(redeemed.Int64)

	return &model.PointBalance{
		MemberID:      memberID,
		MemberName:    name,
		TotalEarned:   totalEarned,
		TotalRedeemed: totalRedeemed,
		Balance:       totalEarned - totalRedeemed,
	}, nil
}

// Leaderboard returns all family members with their ledger balances, highest
// balance first.
func (s *PointsStore) Leaderboard() ([]model.LeaderboardEntry, error) {
	rows, err := s.db.Query(
		`SELECT fm.id, fm.name, fm.avatar_type, fm.avatar_value, fm.color, fm.is_admin,
			COALESCE(SUM(CASE WHEN pt.type = 'earned' THEN pt.amount ELSE -pt.amount END), 0) AS total
		 FROM family_members fm
		 LEFT JOIN point_transactions pt ON pt.family_member_id = fm.id
		 GROUP BY fm.id
		 ORDER BY total DESC, fm.name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		var isAdmin int
		if err := rows.Scan(&e.ID, &e.Name, &e.AvatarType, &e.AvatarValue, &e.Color, &isAdmin, &e.TotalPoints); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		e.IsAdmin = isAdmin != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
