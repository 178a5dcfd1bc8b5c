package app

import (
	"strconv"
	"strings"

	"timed-quiz-service/internal/domain"
)

// Score counts correct answers in a submission against the question bank.
// Keys are decimal question IDs as posted by the quiz form; comparison is
// case-insensitive and whitespace-trimmed. Unknown or malformed keys are
// skipped rather than failing the whole submission. The computation is
// identical whether the session completed normally or timed out.
func Score(answers map[string]string, questions []domain.Question) int {
	if len(answers) == 0 || len(questions) == 0 {
		return 0
	}

	bank := make(map[int64]string, len(questions))
	for _, q := range questions {
		bank[q.ID] = normalizeAnswer(q.Answer)
	}

	correct := 0
	for rawID, answer := range answers {
		id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
		if err != nil {
			continue
		}
		expected, ok := bank[id]
		if !ok {
			continue
		}
		if normalizeAnswer(answer) == expected {
			correct++
		}
	}
	return correct
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
