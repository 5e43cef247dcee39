package store

import (
	"testing"
	"time"

	"github.com/familyhub/familyhub/internal/model"
)

func TestSessionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	sessions := NewSessionStore(db)
	members := NewFamilyMemberStore(db)

	member, err := members.Create("Milo", "dicebear", "Milo", model.PastelColors[0], false, nil)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	session, err := sessions.Create(member.ID, "familyhub_token1", "Kitchen tablet", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.DeviceName != "Kitchen tablet" {
		t.Errorf("device name = %q", session.DeviceName)
	}

	got, err := sessions.GetValidByToken("familyhub_token1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got == nil || got.FamilyMemberID != member.ID {
		t.Errorf("session = %+v", got)
	}

	if got, _ := sessions.GetValidByToken("familyhub_nope"); got != nil {
		t.Error("unknown token should not resolve")
	}

	deleted, err := sessions.DeleteByToken("familyhub_token1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Error("delete should report true for an existing session")
	}
	if got, _ := sessions.GetValidByToken("familyhub_token1"); got != nil {
		t.Error("deleted session should not resolve")
	}

	deleted, err = sessions.DeleteByToken("familyhub_token1")
	if err != nil {
		t.Fatalf("delete again: %v", err)
	}
	if deleted {
		t.Error("second delete should report false")
	}
}

func TestExpiredSessions(t *testing.T) {
	db := setupTestDB(t)
	sessions := NewSessionStore(db)
	members := NewFamilyMemberStore(db)

	member, err := members.Create("Ana", "dicebear", "Ana", model.PastelColors[1], false, nil)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	if _, err := sessions.Create(member.ID, "familyhub_expired", "Phone", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("create expired session: %v", err)
	}
	if _, err := sessions.Create(member.ID, "familyhub_live", "Tablet", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("create live session: %v", err)
	}

	if got, _ := sessions.GetValidByToken("familyhub_expired"); got != nil {
		t.Error("expired session should not resolve")
	}

	n, err := sessions.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d sessions, want 1", n)
	}

	if got, _ := sessions.GetValidByToken("familyhub_live"); got == nil {
		t.Error("live session should survive cleanup")
	}
}
