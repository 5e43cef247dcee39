package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/familyhub/familyhub/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) Insert(entryType string, memberID, choreID *int64, metadata any) (*model.ActivityEntry, error) {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO activity_log (type, family_member_id, chore_id, metadata) VALUES (?, ?, ?, ?)`,
		entryType, nullInt64(memberID), nullInt64(choreID), string(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ActivityStore) GetByID(id int64) (*model.ActivityEntry, error) {
	row := s.db.QueryRow(
		`SELECT id, type, family_member_id, chore_id, metadata, created_at FROM activity_log WHERE id = ?`,
		id,
	)
	e, err := scanActivityEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get activity entry: %w", err)
	}
	return e, nil
}

func scanActivityEntry(scanner interface{ Scan(...any) error }) (*model.ActivityEntry, error) {
	var e model.ActivityEntry
	var memberID, choreID sql.NullInt64
	var metadata sql.NullString

	err := scanner.Scan(&e.ID, &e.Type, &memberID, &choreID, &metadata, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	if memberID.Valid {
		e.FamilyMemberID = &memberID.Int64
	}
	if choreID.Valid {
		e.ChoreID = &choreID.Int64
	}
	if metadata.Valid {
		e.Metadata = json.RawMessage(metadata.String)
	}
	return &e, nil
}

// Feed returns the newest activity entries joined with member and chore
// display fields, paged by limit/offset.
func (s *ActivityStore) Feed(limit, offset int) ([]model.ActivityFeedItem, error) {
	rows, err := s.db.Query(
		`SELECT al.id, al.type, al.family_member_id, al.chore_id, al.metadata, al.created_at,
			fm.name, fm.color, fm.avatar_type, fm.avatar_value, c.title
		 FROM activity_log al
		 LEFT JOIN family_members fm ON fm.id = al.family_member_id
		 LEFT JOIN chores c ON c.id = al.chore_id
		 ORDER BY al.created_at DESC, al.id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("activity feed query: %w", err)
	}
	defer rows.Close()

	var items []model.ActivityFeedItem
	for rows.Next() {
		var item model.ActivityFeedItem
		var memberID, choreID sql.NullInt64
		var metadata sql.NullString
		var memberName, memberColor, avatarType, avatarValue, choreTitle sql.NullString

		err := rows.Scan(
			&item.ID, &item.Type, &memberID, &choreID, &metadata, &item.CreatedAt,
			&memberName, &memberColor, &avatarType, &avatarValue, &choreTitle,
		)
		if err != nil {
			return nil, fmt.Errorf("scan activity feed item: %w", err)
		}

		if memberID.Valid {
			item.FamilyMemberID = &memberID.Int64
		}
		if choreID.Valid {
			item.ChoreID = &choreID.Int64
		}
		if metadata.Valid {
			item.Metadata = json.RawMessage(metadata.String)
		}
		if memberName.Valid {
			item.MemberName = &memberName.String
		}
		if memberColor.Valid {
			item.MemberColor = &memberColor.String
		}
		if avatarType.Valid {
			item.MemberAvatarType = &avatarType.String
		}
		if avatarValue.Valid {
			item.MemberAvatarValue = &avatarValue.String
		}
		if choreTitle.Valid {
			item.ChoreTitle = &choreTitle.String
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
