package domain

import "time"

// Question is a single entry in the question bank. Answer never leaves the
// server; API views expose ID and Prompt only.
type Question struct {
	ID        int64     `json:"id"`
	Prompt    string    `json:"question"`
	Answer    string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// QuestionView is the client-safe projection of a question.
type QuestionView struct {
	ID     int64  `json:"_id"`
	Prompt string `json:"question"`
}

// View strips the answer for transport.
func (q Question) View() QuestionView {
	return QuestionView{ID: q.ID, Prompt: q.Prompt}
}

// User is a registered quiz taker.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// QuizResult is the per-user record of the most recent score, upserted on
// completion or timeout.
type QuizResult struct {
	ID        int64
	UserID    int64
	Score     int
	CreatedAt time.Time
	UpdatedAt time.Time
}
