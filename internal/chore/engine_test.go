package chore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/familyhub/familyhub/internal/database"
	"github.com/familyhub/familyhub/internal/model"
	"github.com/familyhub/familyhub/internal/store"
)

type engineFixture struct {
	db      *sql.DB
	engine  *Engine
	chores  *store.ChoreStore
	members *store.FamilyMemberStore
	points  *store.PointsStore
	member  *model.FamilyMember
}

func setupEngineTest(t *testing.T) *engineFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	members := store.NewFamilyMemberStore(db)
	member, err := members.Create("Milo", "dicebear", "Milo", model.PastelColors[0], false, nil)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	logger := slog.New(slog.DiscardHandler)
	return &engineFixture{
		db:      db,
		engine:  NewEngine(db, 0, logger),
		chores:  store.NewChoreStore(db),
		members: members,
		points:  store.NewPointsStore(db),
		member:  member,
	}
}

func (f *engineFixture) newChore(t *testing.T, p store.ChoreParams, qrToken string) *model.Chore {
	t.Helper()
	c, err := f.chores.Create(p, qrToken)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	return c
}

func permanentChore(title string, points int, cooldownType string, hours int) store.ChoreParams {
	p := store.ChoreParams{
		Title:        title,
		Points:       points,
		IsPermanent:  true,
		CooldownType: &cooldownType,
	}
	if cooldownType == model.CooldownHours {
		p.CooldownHours = &hours
	}
	return p
}

func TestCompleteRecordsEverything(t *testing.T) {
	f := setupEngineTest(t)
	c := f.newChore(t, permanentChore("Feed cat", 10, model.CooldownUnlimited, 0), "qr-feed")

	result, err := f.engine.Complete(context.Background(), c.ID, f.member.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.PointsEarned != 10 {
		t.Errorf("points earned = %d, want 10", result.PointsEarned)
	}
	if result.ChoreName != "Feed cat" {
		t.Errorf("chore name = %q, want %q", result.ChoreName, "Feed cat")
	}
	if result.CompletedByName != "Milo" {
		t.Errorf("completed by = %q, want %q", result.CompletedByName, "Milo")
	}

	comp, err := f.chores.GetCompletion(result.Completion.ID)
	if err != nil {
		t.Fatalf("get completion: %v", err)
	}
	if comp == nil {
		t.Fatal("completion row not found")
	}
	if comp.PointsEarned != 10 {
		t.Errorf("points_earned snapshot = %d, want 10", comp.PointsEarned)
	}

	history, err := f.points.HistoryByMember(f.member.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(history))
	}
	tx := history[0]
	if tx.Type != model.TransactionEarned || tx.Amount != 10 {
		t.Errorf("transaction = %s/%d, want earned/10", tx.Type, tx.Amount)
	}
	if tx.ReferenceID == nil || *tx.ReferenceID != comp.ID {
		t.Errorf("transaction reference_id does not point at completion")
	}
	if tx.Description == nil || *tx.Description != "Completed: Feed cat" {
		t.Errorf("transaction description = %v", tx.Description)
	}

	var activityCount int
	if err := f.db.QueryRow(
		`SELECT COUNT(*) FROM activity_log WHERE type = ? AND chore_id = ? AND family_member_id = ?`,
		model.ActivityChoreCompleted, c.ID, f.member.ID,
	).Scan(&activityCount); err != nil {
		t.Fatalf("count activity: %v", err)
	}
	if activityCount != 1 {
		t.Errorf("activity entries = %d, want 1", activityCount)
	}
}

func TestCompleteValidation(t *testing.T) {
	f := setupEngineTest(t)
	c := f.newChore(t, permanentChore("Sweep", 5, model.CooldownUnlimited, 0), "qr-sweep")

	if _, err := f.engine.Complete(context.Background(), 9999, f.member.ID); !errors.Is(err, ErrChoreNotFound) {
		t.Errorf("unknown chore: err = %v, want ErrChoreNotFound", err)
	}
	if _, err := f.engine.Complete(context.Background(), c.ID, 9999); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("unknown member: err = %v, want ErrMemberNotFound", err)
	}

	if err := f.chores.SoftDelete(c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := f.engine.Complete(context.Background(), c.ID, f.member.ID); !errors.Is(err, ErrChoreDeleted) {
		t.Errorf("deleted chore: err = %v, want ErrChoreDeleted", err)
	}
}

func TestZeroPointChoreSkipsLedger(t *testing.T) {
	f := setupEngineTest(t)
	c := f.newChore(t, permanentChore("Say hi", 0, model.CooldownUnlimited, 0), "qr-hi")

	if _, err := f.engine.Complete(context.Background(), c.ID, f.member.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	history, err := f.points.HistoryByMember(f.member.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected no transactions for a zero-point chore, got %d", len(history))
	}
}

func TestOneTimeChoreLifecycle(t *testing.T) {
	f := setupEngineTest(t)
	c := f.newChore(t, store.ChoreParams{Title: "Build shelf", Points: 20}, "qr-shelf")

	result, err := f.engine.Complete(context.Background(), c.ID, f.member.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := f.chores.GetByID(c.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got.DeletedAt == nil {
		t.Fatal("one-time chore should be soft-deleted after completion")
	}

	// Soft-deleted chores are invisible to scan entry points
	byQR, err := f.chores.FindActiveByQRToken("qr-shelf")
	if err != nil {
		t.Fatalf("qr lookup: %v", err)
	}
	if byQR != nil {
		t.Error("soft-deleted chore should not match its QR token")
	}

	// Undo restores it
	choreID, err := f.engine.Undo(context.Background(), result.Completion.ID)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if choreID != c.ID {
		t.Errorf("undo returned chore id %d, want %d", choreID, c.ID)
	}
	got, err = f.chores.GetByID(c.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got.DeletedAt != nil {
		t.Error("undo should restore a one-time chore")
	}
}

func TestDailyCooldown(t *testing.T) {
	f := setupEngineTest(t)
	c := f.newChore(t, permanentChore("Dishes", 5, model.CooldownDaily, 0), "qr-dishes")

	if _, err := f.engine.Complete(context.Background(), c.ID, f.member.ID); err != nil {
		t.Fatalf("first complete: %v", err)
	}

	_, err := f.engine.Complete(context.Background(), c.ID, f.member.ID)
	var cd *CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("second complete: err = %v, want CooldownError", err)
	}

	now := time.Now()
	wantEnd := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.Local)
	if !cd.EndsAt.Equal(wantEnd) {
		t.Errorf("cooldown ends at %v, want next midnight %v", cd.EndsAt, wantEnd)
	}

	// Cooldown is per member: another member can still complete today
	other, err := f.members.Create("Iris", "dicebear", "Iris", model.PastelColors[1], false, nil)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if _, err := f.engine.Complete(context.Background(), c.ID, other.ID); err != nil {
		t.Errorf("other member should not share the cooldown: %v", err)
	}
}

func TestHoursCooldown(t *testing.T) {
	f := setupEngineTest(t)
	c := f.newChore(t, permanentChore("Walk dog", 8, model.CooldownHours, 2), "qr-dog")

	first, err := f.engine.Complete(context.Background(), c.ID, f.member.ID)
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}

	_, err = f.engine.Complete(context.Background(), c.ID, f.member.ID)
	var cd *CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("second complete: err = %v, want CooldownError", err)
	}
	wantEnd := first.Completion.CompletedAt.Add(2 * time.Hour)
	if cd.EndsAt.Sub(wantEnd).Abs() > time.Second {
		t.Errorf("cooldown ends at %v, want %v", cd.EndsAt, wantEnd)
	}

	// Backdate the completion past the cooldown
	if _, err := f.db.Exec(
		`UPDATE chore_completions SET completed_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-3*time.Hour), first.Completion.ID,
	); err != nil {
		t.Fatalf("backdate completion: %v", err)
	}
	if _, err := f.engine.Complete(context.Background(), c.ID, f.member.ID); err != nil {
		t.Errorf("complete after cooldown elapsed: %v", err)
	}
}

func TestUnlimitedCooldown(t *testing.T) {
	f := setupEngineTest(t)
	c := f.newChore(t, permanentChore("Water plants", 3, model.CooldownUnlimited, 0), "qr-plants")

	for i := 0; i < 3; i++ {
		if _, err := f.engine.Complete(context.Background(), c.ID, f.member.ID); err != nil {
			t.Fatalf("complete %d: %v", i, err)
		}
	}

	balance, err := f.points.GetBalance(f.member.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Balance != 9 {
		t.Errorf("balance = %d, want 9", balance.Balance)
	}
}

func TestUndoReversesLedgerAndActivity(t *testing.T) {
	f := setupEngineTest(t)
	c := f.newChore(t, permanentChore("Vacuum", 15, model.CooldownUnlimited, 0), "qr-vacuum")

	result, err := f.engine.Complete(context.Background(), c.ID, f.member.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := f.engine.Undo(context.Background(), result.Completion.ID); err != nil {
		t.Fatalf("undo: %v", err)
	}

	comp, err := f.chores.GetCompletion(result.Completion.ID)
	if err != nil {
		t.Fatalf("get completion: %v", err)
	}
	if comp != nil {
		t.Error("completion row should be deleted")
	}

	balance, err := f.points.GetBalance(f.member.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Balance != 0 {
		t.Errorf("balance after undo = %d, want 0", balance.Balance)
	}

	var activityCount int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM activity_log`).Scan(&activityCount); err != nil {
		t.Fatalf("count activity: %v", err)
	}
	if activityCount != 0 {
		t.Errorf("activity entries after undo = %d, want 0", activityCount)
	}

	// A second undo of the same completion fails cleanly
	if _, err := f.engine.Undo(context.Background(), result.Completion.ID); !errors.Is(err, ErrCompletionNotFound) {
		t.Errorf("second undo: err = %v, want ErrCompletionNotFound", err)
	}
}

func TestUndoOnlyRemovesOwnActivity(t *testing.T) {
	f := setupEngineTest(t)
	c := f.newChore(t, permanentChore("Tidy toys", 5, model.CooldownUnlimited, 0), "qr-toys")

	other, err := f.members.Create("Iris", "dicebear", "Iris", model.PastelColors[1], false, nil)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	first, err := f.engine.Complete(context.Background(), c.ID, f.member.ID)
	if err != nil {
		t.Fatalf("complete by first member: %v", err)
	}
	if _, err := f.engine.Complete(context.Background(), c.ID, other.ID); err != nil {
		t.Fatalf("complete by other member: %v", err)
	}

	if _, err := f.engine.Undo(context.Background(), first.Completion.ID); err != nil {
		t.Fatalf("undo: %v", err)
	}

	var remaining int64
	if err := f.db.QueryRow(
		`SELECT family_member_id FROM activity_log WHERE type = ? AND chore_id = ?`,
		model.ActivityChoreCompleted, c.ID,
	).Scan(&remaining); err != nil {
		t.Fatalf("expected exactly one surviving activity entry: %v", err)
	}
	if remaining != other.ID {
		t.Errorf("surviving activity belongs to member %d, want %d", remaining, other.ID)
	}

	otherBalance, err := f.points.GetBalance(other.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if otherBalance.Balance != 5 {
		t.Errorf("other member's balance = %d, want 5", otherBalance.Balance)
	}
}

func TestUndoWindow(t *testing.T) {
	f := setupEngineTest(t)
	f.engine = NewEngine(f.db, time.Hour, slog.New(slog.DiscardHandler))
	c := f.newChore(t, permanentChore("Mow lawn", 25, model.CooldownUnlimited, 0), "qr-lawn")

	result, err := f.engine.Complete(context.Background(), c.ID, f.member.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Within the window it works
	if _, err := f.engine.Undo(context.Background(), result.Completion.ID); err != nil {
		t.Fatalf("undo within window: %v", err)
	}

	result, err = f.engine.Complete(context.Background(), c.ID, f.member.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := f.db.Exec(
		`UPDATE chore_completions SET completed_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-2*time.Hour), result.Completion.ID,
	); err != nil {
		t.Fatalf("backdate completion: %v", err)
	}
	if _, err := f.engine.Undo(context.Background(), result.Completion.ID); !errors.Is(err, ErrUndoExpired) {
		t.Errorf("undo past window: err = %v, want ErrUndoExpired", err)
	}
}

func TestScanLookups(t *testing.T) {
	f := setupEngineTest(t)
	tag := "nfc-abc123"
	p := permanentChore("Take out trash", 5, model.CooldownUnlimited, 0)
	c := f.newChore(t, p, "qr-trash")
	if _, err := f.chores.SetNFCTag(c.ID, &tag); err != nil {
		t.Fatalf("bind nfc: %v", err)
	}

	byQR, err := f.engine.FindByQRToken("qr-trash")
	if err != nil {
		t.Fatalf("qr lookup: %v", err)
	}
	if byQR == nil || byQR.ID != c.ID {
		t.Error("qr token should resolve to the chore")
	}

	byNFC, err := f.engine.FindByNFCTag(tag)
	if err != nil {
		t.Fatalf("nfc lookup: %v", err)
	}
	if byNFC == nil || byNFC.ID != c.ID {
		t.Error("nfc tag should resolve to the chore")
	}

	// Lookups are exact matches
	if got, _ := f.engine.FindByQRToken("QR-TRASH"); got != nil {
		t.Error("qr lookup should be case sensitive")
	}

	// Soft-deleted chores never match
	if err := f.chores.SoftDelete(c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if got, _ := f.engine.FindByQRToken("qr-trash"); got != nil {
		t.Error("qr lookup should exclude soft-deleted chores")
	}
	if got, _ := f.engine.FindByNFCTag(tag); got != nil {
		t.Error("nfc lookup should exclude soft-deleted chores")
	}
}
