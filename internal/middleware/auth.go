package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/familyhub/familyhub/internal/auth"
	"github.com/familyhub/familyhub/internal/store"
)

// RequireAuth validates the bearer session token from the Authorization
// header and populates the request context with the session's family member.
func RequireAuth(sessionStore *store.SessionStore, memberStore *store.FamilyMemberStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, "No session token provided")
				return
			}

			sess, err := sessionStore.GetValidByToken(token)
			if err != nil || sess == nil {
				unauthorized(w, "Invalid or expired session")
				return
			}

			member, err := memberStore.GetByID(sess.FamilyMemberID)
			if err != nil || member == nil {
				unauthorized(w, "Invalid or expired session")
				return
			}

			ctx := auth.WithMember(r.Context(), member)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated member is the admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "Admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
