package auth

import (
	"context"

	"github.com/familyhub/familyhub/internal/model"
)

type contextKey struct{}

// WithMember stores the authenticated family member on the context.
func WithMember(ctx context.Context, m *model.FamilyMember) context.Context {
	return context.WithValue(ctx, contextKey{}, m)
}

// MemberFromContext returns the authenticated family member, or nil.
func MemberFromContext(ctx context.Context) *model.FamilyMember {
	m, _ := ctx.Value(contextKey{}).(*model.FamilyMember)
	return m
}

// MemberID returns the authenticated member's id, or 0.
func MemberID(ctx context.Context) int64 {
	if m := MemberFromContext(ctx); m != nil {
		return m.ID
	}
	return 0
}

// IsAdmin reports whether the authenticated member is the admin.
func IsAdmin(ctx context.Context) bool {
	if m := MemberFromContext(ctx); m != nil {
		return m.IsAdmin
	}
	return false
}
