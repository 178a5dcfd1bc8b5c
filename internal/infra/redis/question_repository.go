package redis

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"timed-quiz-service/internal/domain"
)

// QuestionLoader fetches the question bank from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

const (
	promptsKey = "quiz:questions:prompts"
	answersKey = "quiz:questions:answers"
)

// QuestionRepository caches the question bank in Redis (two hashes keyed by
// question ID, one for prompts and one for answers) and falls back to a
// loader on cache miss. Answers never leave the server; the hash is read only
// by the scoring path.
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context) ([]domain.Question, error) {
	prompts, err := r.client.HGetAll(ctx, promptsKey).Result()
	if err == nil && len(prompts) > 0 {
		answers, _ := r.client.HGetAll(ctx, answersKey).Result()
		return buildQuestionsFromCache(prompts, answers), nil
	}

	result, err, _ := r.sf.Do("questions", func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		prompts, err := r.client.HGetAll(ctx, promptsKey).Result()
		if err == nil && len(prompts) > 0 {
			answers, _ := r.client.HGetAll(ctx, answersKey).Result()
			return buildQuestionsFromCache(prompts, answers), nil
		}

		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		for _, q := range questions {
			field := strconv.FormatInt(q.ID, 10)
			pipe.HSet(ctx, promptsKey, field, q.Prompt)
			pipe.HSet(ctx, answersKey, field, q.Answer)
		}
		if ttl > 0 {
			pipe.Expire(ctx, promptsKey, ttl)
			pipe.Expire(ctx, answersKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func buildQuestionsFromCache(prompts, answers map[string]string) []domain.Question {
	questions := make([]domain.Question, 0, len(prompts))
	for field, prompt := range prompts {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		questions = append(questions, domain.Question{
			ID:     id,
			Prompt: prompt,
			Answer: answers[field],
		})
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
