package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/familyhub/familyhub/internal/chore"
	"github.com/familyhub/familyhub/internal/handler"
	"github.com/familyhub/familyhub/internal/logging"
	"github.com/familyhub/familyhub/internal/middleware"
	"github.com/familyhub/familyhub/internal/store"
	ws "github.com/familyhub/familyhub/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	memberH      *handler.FamilyMemberHandler
	categoryH    *handler.CategoryHandler
	choreH       *handler.ChoreHandler
	pointsH      *handler.PointsHandler
	activityH    *handler.ActivityHandler
	settingsH    *handler.SettingsHandler
	setupH       *handler.SetupHandler
	memberStore  *store.FamilyMemberStore
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

// Config carries the server-level knobs that come from the environment.
type Config struct {
	// UndoWindow limits how long after a completion it may be undone.
	// Zero disables the limit.
	UndoWindow time.Duration
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logging.Component(logger, "websocket"))

	memberStore := store.NewFamilyMemberStore(db)
	categoryStore := store.NewCategoryStore(db)
	choreStore := store.NewChoreStore(db)
	pointsStore := store.NewPointsStore(db)
	activityStore := store.NewActivityStore(db)
	settingsStore := store.NewSettingsStore(db)
	adminStore := store.NewAdminStore(db)
	sessionStore := store.NewSessionStore(db)

	engine := chore.NewEngine(db, cfg.UndoWindow, logging.Component(logger, "engine"))

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(memberStore, sessionStore, logging.Component(logger, "auth")),
		memberH:      handler.NewFamilyMemberHandler(memberStore, hub, logging.Component(logger, "family_member")),
		categoryH:    handler.NewCategoryHandler(categoryStore, hub, logging.Component(logger, "category")),
		choreH:       handler.NewChoreHandler(choreStore, memberStore, categoryStore, engine, hub, logging.Component(logger, "chore")),
		pointsH:      handler.NewPointsHandler(pointsStore, memberStore, settingsStore, activityStore, hub, logging.Component(logger, "points")),
		activityH:    handler.NewActivityHandler(activityStore, logging.Component(logger, "activity")),
		settingsH:    handler.NewSettingsHandler(settingsStore, adminStore, hub, logging.Component(logger, "settings")),
		setupH:       handler.NewSetupHandler(memberStore, settingsStore, adminStore, logging.Component(logger, "setup")),
		memberStore:  memberStore,
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /api/auth/members", s.authH.Members)
	outerMux.HandleFunc("GET /api/setup/status", s.setupH.Status)
	outerMux.HandleFunc("POST /api/setup/complete", s.setupH.Complete)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /ws", ws.Handler(s.hub))

	// Protected routes behind bearer-session middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.memberStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(logging.Component(s.logger, "http"))(middleware.CORS(outerMux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Session
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Family members
	mux.HandleFunc("GET /api/family-members", s.memberH.List)
	mux.HandleFunc("POST /api/family-members", s.memberH.Create)
	mux.HandleFunc("GET /api/family-members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/family-members/{id}", s.memberH.Update)
	mux.HandleFunc("DELETE /api/family-members/{id}", s.memberH.Delete)
	mux.HandleFunc("PUT /api/family-members/{id}/password", s.memberH.SetPassword)

	// Categories
	mux.HandleFunc("GET /api/categories", s.categoryH.List)
	mux.HandleFunc("POST /api/categories", s.categoryH.Create)
	mux.HandleFunc("PUT /api/categories/{id}", s.categoryH.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", s.categoryH.Delete)

	// Chores
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	mux.HandleFunc("POST /api/chores/{id}/complete", s.choreH.Complete)
	mux.HandleFunc("GET /api/chores/{id}/completions", s.choreH.Completions)
	mux.HandleFunc("POST /api/completions/{id}/undo", s.choreH.UndoCompletion)

	// QR and NFC entry points
	mux.HandleFunc("GET /api/chores/qr/{token}", s.choreH.LookupByQR)
	mux.HandleFunc("POST /api/chores/qr/{token}/complete", s.choreH.CompleteByQR)
	mux.HandleFunc("POST /api/chores/nfc/{tagId}/complete", s.choreH.CompleteByNFC)
	mux.HandleFunc("PUT /api/chores/{id}/nfc", s.choreH.BindNFC)
	mux.HandleFunc("DELETE /api/chores/{id}/nfc", s.choreH.UnbindNFC)

	// Points
	mux.HandleFunc("GET /api/points/balance/{id}", s.pointsH.Balance)
	mux.HandleFunc("GET /api/points/history/{id}", s.pointsH.History)
	mux.HandleFunc("GET /api/points/leaderboard", s.pointsH.Leaderboard)
	mux.HandleFunc("POST /api/points/redeem", s.pointsH.Redeem)

	// Activity feed
	mux.HandleFunc("GET /api/activity", s.activityH.Feed)

	// Settings (admin-gated)
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.Handle("PUT /api/settings", middleware.RequireAdmin(http.HandlerFunc(s.settingsH.Update)))
	mux.HandleFunc("GET /api/settings/auth-type", s.settingsH.AuthType)
	mux.HandleFunc("POST /api/settings/verify", s.settingsH.Verify)
	mux.Handle("PUT /api/settings/security", middleware.RequireAdmin(http.HandlerFunc(s.settingsH.UpdateSecurity)))
}
