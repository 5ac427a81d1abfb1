package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/dskvich/simba-ai/pkg/classifier"
	"github.com/dskvich/simba-ai/pkg/conversation"
	"github.com/dskvich/simba-ai/pkg/database"
	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/dskvich/simba-ai/pkg/httpapi"
	"github.com/dskvich/simba-ai/pkg/llm/openai"
	"github.com/dskvich/simba-ai/pkg/logger"
	"github.com/dskvich/simba-ai/pkg/repository"
	"github.com/dskvich/simba-ai/pkg/router"
	"github.com/dskvich/simba-ai/pkg/services"
	"github.com/dskvich/simba-ai/pkg/specialist"
	"github.com/dskvich/simba-ai/pkg/telegram/handlers"
	"github.com/dskvich/simba-ai/pkg/telegram/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/uptrace/bun"
)

const (
	storageMemory   = "memory"
	storagePostgres = "postgres"
	storageRedis    = "redis"

	classifierLLM     = "llm"
	classifierKeyword = "keyword"
)

type Config struct {
	OpenAIToken               string        `env:"OPEN_AI_TOKEN,required"`
	OpenAIBaseURL             string        `env:"OPEN_AI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel               string        `env:"OPEN_AI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAITTSModel            string        `env:"OPEN_AI_TTS_MODEL" envDefault:"tts-1-hd"`
	OpenAITimeout             time.Duration `env:"OPEN_AI_TIMEOUT" envDefault:"60s"`
	OpenAIRequestsPerMinute   int           `env:"OPEN_AI_REQUESTS_PER_MINUTE" envDefault:"0"`
	MaxHistoryLength          int           `env:"MAX_HISTORY_LENGTH" envDefault:"10"`
	SummaryMaxWords           int           `env:"SUMMARY_MAX_WORDS" envDefault:"200"`
	BatchDelay                time.Duration `env:"BATCH_DELAY" envDefault:"1s"`
	Classifier                string        `env:"CLASSIFIER" envDefault:"llm"`
	Storage                   string        `env:"STORAGE" envDefault:"memory"`
	PgURL                     string        `env:"DATABASE_URL"`
	PgHost                    string        `env:"DB_HOST" envDefault:"localhost:61234"`
	BunDebug                  int           `env:"BUNDEBUG" envDefault:"0"`
	RedisAddr                 string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword             string        `env:"REDIS_PASSWORD"`
	RedisDB                   int           `env:"REDIS_DB" envDefault:"0"`
	RedisTTL                  time.Duration `env:"REDIS_TTL" envDefault:"0"`
	HTTPAddr                  string        `env:"HTTP_ADDR" envDefault:":8080"`
	TelegramBotToken          string        `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAuthorizedUserIDs []int64       `env:"TELEGRAM_AUTHORIZED_USER_IDS" envSeparator:" "`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	svcGroup, err := setupServices(ctx)
	if err != nil {
		return err
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return svcGroup.Start(ctx)
}

type preferenceStore interface {
	Get(ctx context.Context, chatID int64, topicID int) (*domain.ChatPreferences, error)
	Save(ctx context.Context, prefs *domain.ChatPreferences) error
}

type storage struct {
	conversations conversation.Store
	preferences   preferenceStore
	decisions     router.DecisionRecorder
}

func setupStorage(cfg Config) (*storage, error) {
	switch cfg.Storage {
	case storageMemory:
		return &storage{
			conversations: repository.NewMemoryConversationStore(),
			preferences:   repository.NewMemoryPreferenceRepository(),
		}, nil
	case storagePostgres:
		db, err := database.NewDB(cfg.PgURL, cfg.PgHost)
		if err != nil {
			return nil, fmt.Errorf("initializing database: %w", err)
		}
		return postgresStorage(db), nil
	case storageRedis:
		rdb, err := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("initializing redis: %w", err)
		}
		return &storage{
			conversations: repository.NewRedisConversationStore(rdb, cfg.RedisTTL),
			preferences:   repository.NewMemoryPreferenceRepository(),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage %q", cfg.Storage)
	}
}

func postgresStorage(db *bun.DB) *storage {
	return &storage{
		conversations: repository.NewConversationRepository(db),
		preferences:   repository.NewPreferenceRepository(db),
		decisions:     repository.NewDecisionRepository(db),
	}
}

func setupClassifier(cfg Config, generator classifier.Generator, registry *specialist.Registry) (classifier.Classifier, error) {
	switch cfg.Classifier {
	case classifierLLM:
		return classifier.NewLLM(generator, registry), nil
	case classifierKeyword:
		return classifier.NewKeyword(registry), nil
	default:
		return nil, fmt.Errorf("unsupported classifier %q", cfg.Classifier)
	}
}

func setupServices(ctx context.Context) (services.Group, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	var svcGroup services.Group

	registry, err := specialist.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("loading specialists: %w", err)
	}

	openAIClient, err := openai.NewClient(cfg.OpenAIToken,
		openai.WithBaseURL(cfg.OpenAIBaseURL),
		openai.WithModel(cfg.OpenAIModel),
		openai.WithSpeechModel(cfg.OpenAITTSModel),
		openai.WithTimeout(cfg.OpenAITimeout),
		openai.WithRateLimit(cfg.OpenAIRequestsPerMinute),
	)
	if err != nil {
		return nil, fmt.Errorf("creating open ai client: %w", err)
	}

	store, err := setupStorage(cfg)
	if err != nil {
		return nil, err
	}

	manager := conversation.NewManager(store.conversations, openAIClient, registry, conversation.Config{
		MaxHistoryLength: cfg.MaxHistoryLength,
		SummaryMaxWords:  cfg.SummaryMaxWords,
	})

	cls, err := setupClassifier(cfg, openAIClient, registry)
	if err != nil {
		return nil, err
	}

	smartRouter := router.New(cls, registry, manager)
	if store.decisions != nil {
		smartRouter.WithRecorder(store.decisions)
	}

	slog.InfoContext(ctx, "assistant configured",
		"storage", cfg.Storage,
		"classifier", cfg.Classifier,
		"model", cfg.OpenAIModel,
		"max_history_length", cfg.MaxHistoryLength,
	)

	if cfg.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		api := httpapi.NewHandler(smartRouter, manager, registry, openAIClient, cfg.BatchDelay)
		svc, err := services.NewHTTPServer(cfg.HTTPAddr, api.Engine())
		if err != nil {
			return nil, err
		}
		svcGroup = append(svcGroup, svc)
	}

	if cfg.TelegramBotToken != "" {
		svc, err := setupTelegram(cfg, store.preferences, smartRouter, manager, registry, openAIClient)
		if err != nil {
			return nil, err
		}
		svcGroup = append(svcGroup, svc)
	}

	if len(svcGroup) == 0 {
		return nil, errors.New("nothing to run: set HTTP_ADDR or TELEGRAM_BOT_TOKEN")
	}

	return svcGroup, nil
}

func setupTelegram(
	cfg Config,
	preferences preferenceStore,
	smartRouter *router.Router,
	manager *conversation.Manager,
	registry *specialist.Registry,
	speaker handlers.Speaker,
) (services.Service, error) {
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.RequestID,
			middleware.Auth(cfg.TelegramAuthorizedUserIDs),
			middleware.Typing,
		),

		bot.WithDefaultHandler(handlers.GenerateContent(preferences, smartRouter, registry, speaker)),
		bot.WithMessageTextHandler("/start", bot.MatchTypePrefix, handlers.Start(registry)),
		bot.WithMessageTextHandler("/new", bot.MatchTypePrefix, handlers.ClearChat(manager)),
		bot.WithMessageTextHandler("/specialists", bot.MatchTypePrefix, handlers.ShowSpecialists(registry)),
		bot.WithMessageTextHandler("/voice", bot.MatchTypePrefix, handlers.ShowVoice()),
		bot.WithMessageTextHandler("/system_prompt", bot.MatchTypePrefix, handlers.SetSystemPrompt(preferences)),
		bot.WithMessageTextHandler("/summary", bot.MatchTypePrefix, handlers.Summary(manager)),
		bot.WithMessageTextHandler("/followup", bot.MatchTypePrefix, handlers.FollowUps(manager)),
		bot.WithMessageTextHandler("/tasks", bot.MatchTypePrefix, handlers.ActionItems(manager)),

		bot.WithCallbackQueryDataHandler(domain.SetSpecialistCallbackPrefix, bot.MatchTypePrefix, handlers.SetSpecialist(preferences, registry)),
		bot.WithCallbackQueryDataHandler(domain.SetVoiceCallbackPrefix, bot.MatchTypePrefix, handlers.SetVoice(preferences)),
	}

	b, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	svc, err := services.NewTelegramBot(b)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
