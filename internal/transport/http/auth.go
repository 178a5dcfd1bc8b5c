package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"timed-quiz-service/internal/domain"
)

const (
	authCookieName  = "quiz_auth"
	flashCookieName = "quiz_flash"
	authCookieAge   = 7 * 24 * time.Hour
)

type contextKey int

const userKey contextKey = iota

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(userKey).(*domain.User); ok {
		return u
	}
	return nil
}

// TokenStore maps opaque auth tokens to user IDs. Tokens live in process
// memory; a restart logs everyone out, which is acceptable at this scale.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]int64
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]int64)}
}

// Issue creates a fresh token for the user.
func (s *TokenStore) Issue(userID int64) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = userID
	s.mu.Unlock()
	return token
}

// Lookup resolves a token to a user ID.
func (s *TokenStore) Lookup(token string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.tokens[token]
	return userID, ok
}

// Revoke drops a token on logout.
func (s *TokenStore) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

func (h *Handler) authenticate(r *http.Request) *domain.User {
	cookie, err := r.Cookie(authCookieName)
	if err != nil {
		return nil
	}
	userID, ok := h.tokens.Lookup(cookie.Value)
	if !ok {
		return nil
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

// requirePageUser redirects unauthenticated page requests to the login form.
func (h *Handler) requirePageUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := h.authenticate(r)
		if user == nil {
			h.setFlash(w, "error", "Please log in to continue")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

// requireAPIUser rejects unauthenticated API requests with a JSON 401.
func (h *Handler) requireAPIUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := h.authenticate(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success": false,
				"error":   "authentication required",
			})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

func (h *Handler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(authCookieAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// flash carries a one-shot category+message pair through a redirect.
type flash struct {
	Category string
	Message  string
}

func (h *Handler) setFlash(w http.ResponseWriter, category, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(category + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request) *flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	category, message, found := strings.Cut(raw, "|")
	if !found {
		return &flash{Category: "info", Message: raw}
	}
	return &flash{Category: category, Message: message}
}
