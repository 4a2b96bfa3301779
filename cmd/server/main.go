package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"family-site/internal/assistant"
	"family-site/internal/claim"
	"family-site/internal/config"
	"family-site/internal/http/handler"
	"family-site/internal/narration"
	"family-site/internal/realtime"
	"family-site/internal/repository"
	"family-site/internal/speech"

	"github.com/nats-io/nats.go"
	"github.com/revrost/go-openrouter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDB(ctx, cfg.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	rdb, err := config.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// claims and chat memory degrade without redis; narration still works
		logger.Warn().Err(err).Msg("redis unavailable at startup")
	}
	defer rdb.Close()

	cache, closeCache := audioCache(cfg, db, logger)
	defer closeCache()

	synth, err := speech.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIKey, &http.Client{}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("speech client")
	}

	blogs := repository.NewBlogStore(db)

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	n := cfg.Narration
	narrator := narration.NewService(narration.Deps{
		Content:     blogs,
		Cache:       cache,
		Synthesizer: synth,
		Claims:      claim.NewRedisClaims(rdb, "narration:claim:", n.Budget.Std()+30*time.Second),
		Notifier:    hub,
		Logger:      logger,
	}, narration.Options{
		TargetChunkSize: n.TargetChunkSize,
		MaxSegments:     n.MaxSegments,
		MinTextLength:   n.MinTextLength,
		CallTimeout:     n.CallTimeout.Std(),
		Budget:          n.Budget.Std(),
		Voice:           n.Voice,
		Model:           n.Model,
		Persona:         n.Persona,
	})

	router := openrouter.NewClient(cfg.OpenRouterKey)
	chat := assistant.New(
		router,
		assistant.NewMemory(rdb, assistant.DefaultHistoryTTL, assistant.DefaultHistoryTurns),
		assistant.Options{Model: cfg.ChatModel, SystemPrompt: assistant.DefaultSystemPrompt},
		logger,
	).WithStreams(assistant.OpenRouterStreams{Client: router})

	tokens := config.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	app := newApp(routes{
		logger:       logger,
		tokens:       tokens,
		auth:         handler.NewAuthHandler(repository.NewUserStore(db), tokens, cfg.CookieSecure),
		audio:        handler.NewAudioHandler(narrator, cache, logger),
		blogs:        handler.NewBlogHandler(blogs),
		journey:      handler.NewJourneyHandler(repository.NewJourneyStore(db)),
		chat:         handler.NewChatHandler(chat),
		hub:          hub,
		corsOrigins:  cfg.CORSOrigins,
		writeTimeout: n.Budget.Std() + 15*time.Second,
	})

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	addr := cfg.Addr()
	logger.Info().Str("addr", addr).Str("audio_cache", cfg.AudioCacheBackend).Msg("server listening")
	if err := app.Listen(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

type audioStore interface {
	narration.AudioCache
	handler.AudioEvicter
}

func audioCache(cfg *config.Config, db *sql.DB, logger zerolog.Logger) (audioStore, func()) {
	if cfg.AudioCacheBackend != "nats" {
		return repository.NewAudioStore(db), func() {}
	}

	nc, js, err := config.ConnectNATS(cfg.NATS)
	if err != nil {
		logger.Fatal().Err(err).Msg("nats unavailable")
	}

	store, err := repository.NewNATSAudioStore(js, cfg.NATS.AudioBucket)
	if err != nil {
		nc.Close()
		logger.Fatal().Err(err).Msg("nats audio bucket")
	}

	return store, func() { drain(nc, logger) }
}

func drain(nc *nats.Conn, logger zerolog.Logger) {
	if err := nc.Drain(); err != nil {
		logger.Warn().Err(err).Msg("nats drain")
	}
}
