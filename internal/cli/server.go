package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
	pg "timed-quiz-service/internal/infra/postgres"
	rediscache "timed-quiz-service/internal/infra/redis"
	"timed-quiz-service/internal/lib/logging"
	transport "timed-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.Setup(cfg.Log.Format, cfg.Log.Level)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	questionTTL := config.TTLDuration(cfg.Quiz.QuestionCacheTTL, 10*time.Minute)

	var sessions app.SessionRepository
	var users app.UserRepository
	var results app.ResultRepository
	var loader memory.QuestionLoader
	if pool != nil {
		sessions = pg.NewSessionRepository(pool)
		users = pg.NewUserRepository(pool)
		results = pg.NewResultRepository(pool)
		loader = pg.NewQuestionLoader(pool)
	} else {
		sessions = memory.NewSessionRepository()
		users = memory.NewUserRepository()
		results = memory.NewResultRepository()
		loader = memory.NewStaticQuestionLoader(sampleQuestions())
		log.Warn("postgres not configured, using in-memory storage with sample questions")
	}

	var questions app.QuestionRepository
	if redisClient != nil {
		questions = rediscache.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
	}

	sessionService := app.NewSessionService(sessions, questions, results).
		WithDefaultLimit(cfg.Quiz.DefaultTimeLimitMinutes)
	if redisClient != nil {
		sessionService = sessionService.WithIndex(rediscache.NewSessionIndex(redisClient))
	}
	userService := app.NewUserService(users)

	handler := transport.NewHandler(sessionService, userService, log)
	router := transport.NewRouter(handler)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting timed quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions seeds the in-memory question bank when no database is
// configured, so a bare `start` still serves a working quiz.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Prompt: "What is the capital of France?", Answer: "Paris"},
		{ID: 2, Prompt: "What is 7 x 8?", Answer: "56"},
		{ID: 3, Prompt: "Which planet is known as the Red Planet?", Answer: "Mars"},
		{ID: 4, Prompt: "What is the chemical symbol for gold?", Answer: "Au"},
		{ID: 5, Prompt: "In which year did World War II end?", Answer: "1945"},
	}
}
