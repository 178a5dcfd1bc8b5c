package http

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the HTML pages and owns the shared wiring for the JSON API
// and countdown websocket. No business logic lives here; everything defers to
// the session and user services.
type Handler struct {
	sessions *app.SessionService
	users    *app.UserService
	tokens   *TokenStore
	log      *slog.Logger
	tmpl     *template.Template
}

func NewHandler(sessions *app.SessionService, users *app.UserService, log *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		users:    users,
		tokens:   NewTokenStore(),
		log:      log,
		tmpl:     template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

type pageData struct {
	Title    string
	User     *domain.User
	Flash    *flash
	Data     map[string]any
	Snapshot *domain.SessionSnapshot
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	if data.Flash == nil {
		data.Flash = h.popFlash(w, r)
	}
	if data.User == nil {
		data.User = UserFromContext(r.Context())
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("render template failed", "template", name, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Home renders the landing page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "home.html", pageData{Title: "Quiz", User: h.authenticate(r)})
}

// Register handles the signup form.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "register.html", pageData{Title: "Register"})
		return
	}

	_, err := h.users.Register(r.Context(), app.RegisterInput{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Username:  r.FormValue("user_name"),
		Password:  r.FormValue("password"),
	})
	if err != nil {
		h.setFlash(w, "error", err.Error())
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}
	h.setFlash(w, "success", "Registration successful! Please log in.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// Login handles the login form and issues the auth cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "login.html", pageData{Title: "Login"})
		return
	}

	user, err := h.users.Authenticate(r.Context(), r.FormValue("user_name"), r.FormValue("password"))
	if err != nil {
		h.setFlash(w, "error", "Invalid username or password")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	h.setAuthCookie(w, h.tokens.Issue(user.ID))
	h.setFlash(w, "success", "Welcome back, "+user.FirstName+"!")
	http.Redirect(w, r, "/quiz", http.StatusFound)
}

// Logout revokes the auth token and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(authCookieName); err == nil {
		h.tokens.Revoke(cookie.Value)
	}
	h.clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// Quiz serves the timed quiz. GET starts a fresh session (superseding any
// prior active one) and renders the countdown page; POST submits answers,
// re-validating against the server clock before scoring.
func (h *Handler) Quiz(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if r.Method == http.MethodPost {
		h.submitQuiz(w, r, user)
		return
	}

	questions, err := h.sessions.GetQuestions(r.Context())
	if err != nil {
		h.log.Error("load questions failed", "error", err)
		h.setFlash(w, "error", "Error starting quiz")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if len(questions) == 0 {
		h.setFlash(w, "warning", "No questions available at the moment.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	session, err := h.sessions.Start(r.Context(), user.ID, 0)
	if err != nil {
		h.log.Error("start session failed", "user_id", user.ID, "error", err)
		h.setFlash(w, "error", "Error starting quiz")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	views := make([]domain.QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.View())
	}
	snapshot := session.Snapshot(h.sessions.Now())
	h.render(w, r, "quiz.html", pageData{
		Title:    "Quiz",
		User:     user,
		Snapshot: &snapshot,
		Data: map[string]any{
			"Questions":        views,
			"TimeLimitSeconds": session.TimeLimitMinutes * 60,
		},
	})
}

func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request, user *domain.User) {
	if err := r.ParseForm(); err != nil {
		h.setFlash(w, "error", "Could not read quiz submission")
		http.Redirect(w, r, "/quiz", http.StatusFound)
		return
	}
	answers := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		answers[key] = r.PostForm.Get(key)
	}

	result, err := h.sessions.Submit(r.Context(), user.ID, answers)
	switch {
	case err == nil:
		http.Redirect(w, r, resultsURL(result, false), http.StatusFound)
	case errors.Is(err, domain.ErrSessionExpired):
		h.setFlash(w, "warning", "Time expired! Your partial answers were scored.")
		http.Redirect(w, r, resultsURL(result, true), http.StatusFound)
	case errors.Is(err, domain.ErrNoActiveSession):
		h.setFlash(w, "error", "No active quiz session. Start a new quiz.")
		http.Redirect(w, r, "/quiz", http.StatusFound)
	case errors.Is(err, domain.ErrSessionNotActive):
		// A racing request already finished this session; its result stands.
		h.setFlash(w, "info", "This quiz was already submitted.")
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		h.log.Error("submit failed", "user_id", user.ID, "error", err)
		h.setFlash(w, "error", "An error occurred while calculating your score")
		http.Redirect(w, r, "/quiz", http.StatusFound)
	}
}

func resultsURL(result app.SubmitResult, timedOut bool) string {
	u := fmt.Sprintf("/quiz_results?score=%d&total=%d", result.Score, result.Total)
	if timedOut {
		u += "&timeout=true"
	}
	return u
}

// Results renders the score page.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	score, _ := strconv.Atoi(r.URL.Query().Get("score"))
	total, _ := strconv.Atoi(r.URL.Query().Get("total"))
	timedOut := r.URL.Query().Get("timeout") == "true"

	h.render(w, r, "results.html", pageData{
		Title: "Results",
		Data: map[string]any{
			"Score":   score,
			"Total":   total,
			"Timeout": timedOut,
		},
	})
}

// AbandonQuiz cancels the active session from the quiz page.
func (h *Handler) AbandonQuiz(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.sessions.Abandon(r.Context(), user.ID); err == nil {
		h.setFlash(w, "info", "Quiz session abandoned.")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
