package store

import (
	"encoding/json"
	"testing"

	"github.com/familyhub/familyhub/internal/model"
)

func TestActivityFeed(t *testing.T) {
	db := setupTestDB(t)
	activity := NewActivityStore(db)
	members := NewFamilyMemberStore(db)
	chores := NewChoreStore(db)

	member, err := members.Create("Milo", "dicebear", "Milo", model.PastelColors[0], false, nil)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	c, err := chores.Create(ChoreParams{Title: "Dishes", Points: 10}, "qr-dishes")
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	_, err = activity.Insert(model.ActivityChoreCompleted, &member.ID, &c.ID, model.ChoreCompletedMetadata{
		Points:    10,
		ChoreName: "Dishes",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err = activity.Insert(model.ActivityPointsRedeemed, &member.ID, nil, model.PointsRedeemedMetadata{
		Amount:     10,
		MoneyValue: "$1.00",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	items, err := activity.Feed(10, 0)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}

	// Newest first: the redemption comes before the completion
	if items[0].Type != model.ActivityPointsRedeemed {
		t.Errorf("items[0].Type = %q, want points_redeemed", items[0].Type)
	}
	completed := items[1]
	if completed.MemberName == nil || *completed.MemberName != "Milo" {
		t.Errorf("member name = %v", completed.MemberName)
	}
	if completed.ChoreTitle == nil || *completed.ChoreTitle != "Dishes" {
		t.Errorf("chore title = %v", completed.ChoreTitle)
	}

	var meta model.ChoreCompletedMetadata
	if err := json.Unmarshal(completed.Metadata, &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if meta.Points != 10 || meta.ChoreName != "Dishes" {
		t.Errorf("metadata = %+v", meta)
	}
}

func TestActivityFeedPaging(t *testing.T) {
	db := setupTestDB(t)
	activity := NewActivityStore(db)
	members := NewFamilyMemberStore(db)

	member, err := members.Create("Ana", "dicebear", "Ana", model.PastelColors[1], false, nil)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := activity.Insert(model.ActivityPointsRedeemed, &member.ID, nil, model.PointsRedeemedMetadata{Amount: i}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	page1, err := activity.Feed(2, 0)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	page2, err := activity.Feed(2, 2)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(page1) != 2 || len(page2) != 2 {
		t.Fatalf("page sizes = %d, %d, want 2, 2", len(page1), len(page2))
	}
	if page1[0].ID == page2[0].ID {
		t.Error("pages should not overlap")
	}

	// Member survives in the feed even after deletion (SET NULL foreign key
	// clears the reference but keeps the row)
	if err := members.Delete(member.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}
	items, err := activity.Feed(10, 0)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("feed after member delete = %d rows, want 5", len(items))
	}
	if items[0].FamilyMemberID != nil {
		t.Error("member reference should be cleared")
	}
}
