package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"timed-quiz-service/internal/domain"
)

// SessionStatus returns the current session snapshot plus server time.
// GET /api/v1/session/status
func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	report, err := h.sessions.Status(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveSession) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false,
				"error":   "No active quiz session found",
				"session": nil,
			})
			return
		}
		h.apiError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"session":     report.Session,
		"is_valid":    report.IsValid,
		"message":     report.Message,
		"server_time": report.ServerTime,
	})
}

// SessionHeartbeat keeps the client countdown synced with the server clock.
// POST /api/v1/session/heartbeat
func (h *Handler) SessionHeartbeat(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	report, err := h.sessions.Status(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveSession) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false,
				"error":   "No active quiz session",
			})
			return
		}
		h.apiError(w, err)
		return
	}

	if !report.IsValid {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"expired": true,
			"message": report.Message,
			"session": report.Session,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"expired":        false,
		"time_remaining": report.Session.TimeRemainingSecs,
		"server_time":    report.ServerTime,
		"session":        report.Session,
	})
}

type createSessionRequest struct {
	TimeLimitMinutes int `json:"time_limit_minutes"`
}

// SessionCreate starts a new session, superseding any active one.
// POST /api/v1/session/create
func (h *Handler) SessionCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req createSessionRequest
	if r.Body != nil {
		// An empty body selects the default time limit.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	session, err := h.sessions.Start(r.Context(), user.ID, req.TimeLimitMinutes)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTimeLimit) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "Time limit must be between 1 and 180 minutes",
			})
			return
		}
		h.apiError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Quiz session created successfully",
		"session": session.Snapshot(h.sessions.Now()),
	})
}

// SessionAbandon cancels the active session.
// POST /api/v1/session/abandon
func (h *Handler) SessionAbandon(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if err := h.sessions.Abandon(r.Context(), user.ID); err != nil {
		if errors.Is(err, domain.ErrNoActiveSession) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false,
				"error":   "No active quiz session to abandon",
			})
			return
		}
		h.apiError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Quiz session abandoned successfully",
	})
}

type extendSessionRequest struct {
	AdditionalMinutes int `json:"additional_minutes"`
}

// SessionExtend adds time to the active session.
// POST /api/v1/session/extend
func (h *Handler) SessionExtend(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	req := extendSessionRequest{AdditionalMinutes: 5}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	session, err := h.sessions.Extend(r.Context(), user.ID, req.AdditionalMinutes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTimeLimit):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "Additional time must be between 1 and 30 minutes",
			})
		case errors.Is(err, domain.ErrNoActiveSession), errors.Is(err, domain.ErrSessionExpired):
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false,
				"error":   "No active quiz session to extend",
			})
		default:
			h.apiError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Session extended",
		"session": session.Snapshot(h.sessions.Now()),
	})
}

// Questions lists question prompts without answers.
// GET /api/v1/questions
func (h *Handler) Questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.sessions.GetQuestions(r.Context())
	if err != nil {
		h.apiError(w, err)
		return
	}
	views := make([]domain.QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.View())
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) apiError(w http.ResponseWriter, err error) {
	h.log.Error("api request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   "internal error",
	})
}
