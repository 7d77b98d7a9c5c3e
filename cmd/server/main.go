package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/chatio/internal/adapters/chat"
	router "github.com/dkeye/chatio/internal/adapters/http"
	"github.com/dkeye/chatio/internal/app"
	"github.com/dkeye/chatio/internal/config"
	"github.com/dkeye/chatio/internal/core"
	"github.com/dkeye/chatio/internal/push"
	"github.com/dkeye/chatio/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("failed to open database")
	}

	var subs core.SubscriptionStore
	switch cfg.SubscriptionStore {
	case "memory":
		subs = store.NewMemorySubscriptions()
		log.Info().Str("module", "main").Msg("using in-memory subscription store")
	default:
		subs = store.NewSQLiteSubscriptions(db)
		log.Info().Str("module", "main").Msg("using sqlite subscription store")
	}

	if cfg.VapidPrivateKey == "" {
		log.Warn().Str("module", "main").Msg("VAPID private key not set, push delivery will fail")
	}
	sender := push.NewSender(cfg.VapidPublicKey, cfg.VapidPrivateKey, cfg.VapidSubject)

	dispatcher := &app.Dispatcher{
		Registry:       app.NewRegistry(),
		Subs:           subs,
		Messages:       store.NewSQLiteMessages(db),
		Push:           sender,
		Policy:         app.RoomPolicy{},
		PushTimeout:    cfg.PushTimeout,
		PersistTimeout: cfg.PersistTimeout,
	}

	flood := chat.NewFloodLimiter(cfg.MessageRateLimit, cfg.MessageRateWindow)
	ctl := chat.NewController(dispatcher, flood, cfg.ReadLimit, cfg.PingPeriod)

	pushHandler := &router.PushHandler{
		Subs:      subs,
		Dispatch:  dispatcher,
		PublicKey: cfg.VapidPublicKey,
	}

	r := router.SetupRouter(ctx, cfg, ctl, pushHandler)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("base_url", cfg.BaseURL).Msg("chatio server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// Fail fast rather than run in a corrupted state.
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
