package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/handlers"
	"github.com/kruthika-chat/kruthika-go/internal/i18n"
	"github.com/kruthika-chat/kruthika-go/internal/middleware"
	"github.com/kruthika-chat/kruthika-go/internal/services/ai"
	"github.com/kruthika-chat/kruthika-go/internal/services/cache"
	"github.com/kruthika-chat/kruthika-go/internal/services/conversation"
	"github.com/kruthika-chat/kruthika-go/internal/services/fallback"
	"github.com/kruthika-chat/kruthika-go/internal/services/matcher"
	"github.com/kruthika-chat/kruthika-go/internal/services/media"
	"github.com/kruthika-chat/kruthika-go/internal/services/personalization"
	"github.com/kruthika-chat/kruthika-go/internal/services/responder"
	"github.com/kruthika-chat/kruthika-go/internal/services/storage"
	"github.com/kruthika-chat/kruthika-go/pkg/logger"
	"github.com/kruthika-chat/kruthika-go/pkg/weighted"
	"github.com/sirupsen/logrus"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(logrus.Fields{
		"persona": cfg.Persona.Name,
		"storage": cfg.Storage.Type,
	}).Info("Starting chat server...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := middleware.NewMetrics()

	storageManager, err := storage.NewManager(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}
	defer storageManager.Close()
	storageManager.SetObserver(metrics.RecordStorageOperation)
	storageManager.StartCleanup(ctx, time.Hour, cfg.Storage.Memory.DefaultExpiration)

	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize localizer")
	}

	rnd := weighted.Default()

	responseCache := cache.NewCache(&cfg.Cache, log)
	profiles := personalization.NewStore(cfg.Personalization, rnd, log)

	tracker := conversation.NewTracker(cfg.Conversation, log)
	tracker.Start(ctx)
	defer tracker.Stop()

	library := media.NewLibrary(cfg.Media, storageManager, log)

	detector := matcher.NewDetector(matcher.DetectorConfig{
		Window:      cfg.Matcher.HistoryWindow,
		RepeatTurns: cfg.Matcher.RepeatTurns,
		LongAfter:   cfg.Matcher.LongConversation,
		BreakChance: cfg.Matcher.BreakProbability,
	}, rnd)

	deps := responder.Deps{
		Matcher:  matcher.NewMatcher(rnd),
		Detector: detector,
		Cache:    responseCache,
		Profiles: profiles,
		Tracker:  tracker,
		Fallback: fallback.NewGenerator(localizer, nil, rnd, log),
		History:  storageManager,
		Media:    library,
		Metrics:  metrics,
		Rand:     rnd,
	}

	modelID := defaultModel(&cfg.Models)
	aiClient := ai.NewClient(&cfg.Models, log)
	if aiClient.Enabled() && modelID != "" {
		deps.AI = aiClient
	} else {
		log.Warn("No AI model configured, replies come from canned and fallback phrases only")
	}

	service := responder.NewService(responder.Options{
		ModelID:         modelID,
		SystemPrompt:    cfg.Persona.SystemPrompt,
		DefaultMood:     cfg.Persona.DefaultMood,
		Location:        cfg.Persona.Location(),
		MaxMessages:     cfg.Context.MaxMessages,
		GoodbyeAfter:    cfg.Conversation.GoodbyeAfterMessages,
		ProactiveChance: cfg.Media.ProactiveChance,
		MinMessages:     cfg.Media.MinMessages,
		AITimeout:       cfg.Server.RequestTimeout,
	}, deps, log)

	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	rateLimiter.StartCleanup(ctx, 10*time.Minute)

	chatHandler := handlers.NewChatHandler(
		&cfg.Server,
		service,
		profiles,
		storageManager,
		library,
		rateLimiter,
		metrics,
		localizer,
		log,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chatHandler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 10*time.Second,
	}

	// Start metrics server if enabled
	var metricsServer *http.Server
	if cfg.Monitoring.Metrics.Enabled {
		metricsServer = middleware.NewMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path)
		go func() {
			log.WithField("port", cfg.Monitoring.Metrics.Port).Info("Starting metrics server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	go reportGauges(ctx, metrics, profiles, tracker, responseCache, log)

	go func() {
		log.WithField("port", cfg.Server.Port).Info("Chat server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Chat server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shut down chat server")
	}
	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}

	log.Info("Server stopped")
}

// defaultModel picks the configured default, else the first model of the first endpoint
func defaultModel(cfg *config.ModelsConfig) string {
	if cfg.Default != "" {
		return cfg.Default
	}
	for _, endpoint := range cfg.Endpoints {
		if len(endpoint.Models) > 0 {
			return endpoint.Models[0].ID
		}
	}
	return ""
}

// reportGauges refreshes the user and cache gauges and purges expired cache entries
func reportGauges(ctx context.Context, metrics *middleware.Metrics, profiles *personalization.Store, tracker *conversation.Tracker, responseCache *cache.Cache, log *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if purged := responseCache.Purge(); purged > 0 {
				log.WithField("purged", purged).Debug("Purged expired cache entries")
			}
			metrics.SetActiveUsers(float64(profiles.ActiveUsers(time.Now().Add(-time.Hour))))
			metrics.SetAwayUsers(float64(tracker.AwayCount()))
			metrics.SetCacheEntries(float64(responseCache.Len()))
		}
	}
}
