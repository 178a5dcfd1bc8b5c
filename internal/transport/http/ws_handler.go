package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"timed-quiz-service/internal/domain"
)

// WSHandler streams an authoritative countdown over a websocket. The stream
// is advisory UX: the server still re-validates every submission against its
// own clock, so a client that ignores the ticks gains nothing.
type WSHandler struct {
	handler  *Handler
	upgrader websocket.Upgrader
	interval time.Duration
}

func NewWSHandler(handler *Handler) *WSHandler {
	return &WSHandler{
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		interval: time.Second,
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type tickPayload struct {
	TimeRemainingSecs int           `json:"time_remaining_seconds"`
	TimeElapsedSecs   int           `json:"time_elapsed_seconds"`
	Status            domain.Status `json:"status"`
	ServerTime        string        `json:"server_time"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeCountdown upgrades the request and pushes one tick per interval until
// the session leaves the active state or the client disconnects.
func (h *WSHandler) ServeCountdown(w http.ResponseWriter, r *http.Request) {
	user := h.handler.authenticate(r)
	if user == nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.handler.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	sessions := h.handler.sessions

	session, err := sessions.GetActive(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveSession) {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "no active quiz session"}})
		}
		return
	}

	// Reader goroutine: consume control frames and detect disconnects.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.writeTick(conn, session); err != nil {
		return
	}

	for {
		select {
		case <-clientGone:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Re-fetch each tick so extensions and submissions made over
			// HTTP while the socket is open are observed here.
			session, err = sessions.GetActive(ctx, user.ID)
			if err != nil {
				if errors.Is(err, domain.ErrNoActiveSession) {
					_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "closed", Payload: errorPayload{Message: "quiz session finished"}})
				}
				return
			}
			valid, message := sessions.ValidateTime(ctx, session)
			if !valid {
				_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "expired", Payload: errorPayload{Message: message}})
				return
			}
			if err := h.writeTick(conn, session); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) writeTick(conn *websocket.Conn, session *domain.QuizSession) error {
	now := h.handler.sessions.Now()
	return conn.WriteJSON(outboundMessage[tickPayload]{
		Type: "tick",
		Payload: tickPayload{
			TimeRemainingSecs: session.TimeRemaining(now),
			TimeElapsedSecs:   session.TimeElapsed(now),
			Status:            session.Status,
			ServerTime:        now.Format(time.RFC3339),
		},
	})
}
