package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ranjit123-yst/ananya/internal/config"
	"github.com/ranjit123-yst/ananya/internal/handler"
	modelchat "github.com/ranjit123-yst/ananya/internal/model/chat"
	"github.com/ranjit123-yst/ananya/internal/model/mode"
	"github.com/ranjit123-yst/ananya/internal/service/ai"
	chatservice "github.com/ranjit123-yst/ananya/internal/service/chat"
	"github.com/ranjit123-yst/ananya/internal/service/orchestrator"
	"github.com/ranjit123-yst/ananya/internal/service/ratelimit"
	"github.com/ranjit123-yst/ananya/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	modeStore := mode.NewMemoryStore(mode.Seed())

	// Quota counter: remote REST backend when configured, in-process fallback
	// otherwise.
	var counter ratelimit.Counter
	if cfg.Chat.RemoteCounterEnabled() {
		counter = ratelimit.NewRestCounter(cfg.Chat.UpstashURL, cfg.Chat.UpstashToken, cfg.Chat.RateWindow)
		log.Println("rate limiter using remote counter backend")
	} else {
		counter = ratelimit.NewMemoryCounter(cfg.Chat.RateWindow)
		log.Println("rate limiter using in-process counter")
	}
	limiter := ratelimit.New(counter, cfg.Chat.DailyLimit, cfg.Chat.RateWindow, cfg.Chat.FailOpen)

	sessions := chatservice.NewService(store.NewMemory[modelchat.Session](), cfg.Chat.SessionTTL)
	sessions.StartSweeper(ctx, cfg.Chat.SweepInterval)

	// The orchestrator treats a nil generator as "unconfigured": chat turns
	// answer 503 while history and modes stay up.
	var generator orchestrator.Generator
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - check the Ark model environment variables")
		} else {
			generator = aiService
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, chat endpoint will answer 503")
	}

	orch := orchestrator.New(limiter, sessions, modeStore, generator)
	router := handler.NewRouter(modeStore, orch)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Ananya backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
