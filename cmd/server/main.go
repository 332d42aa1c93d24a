package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"popup-orchestrator/internal/generation"
	"popup-orchestrator/internal/orchestrator"
	"popup-orchestrator/internal/platform/clock"
	"popup-orchestrator/internal/platform/config"
	"popup-orchestrator/internal/platform/logger"
	"popup-orchestrator/internal/platform/metrics"
	"popup-orchestrator/internal/platform/ratelimit"
	"popup-orchestrator/internal/playback"
	"popup-orchestrator/internal/widgethost"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	cfg, err := config.Parse()
	if err != nil {
		logger.New("error", "json").Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY is not set; every submission will fail")
	}

	met := metrics.New()
	httpClient := &http.Client{Timeout: cfg.GenerationTimeout}
	gen := generation.NewGeminiClient(generation.GeminiConfig{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		BaseURL:    cfg.GeminiBaseURL,
		HTTPClient: httpClient,
	}, log)
	titles := generation.NewNoEmbedResolver(cfg.NoEmbedURL, httpClient, log)

	orchCfg := orchestrator.Config{
		Timing: playback.Timing{
			PrimingDelay:    cfg.PrimingDelay,
			FirstReveal:     cfg.FirstRevealDelay,
			RevealInterval:  cfg.RevealInterval,
			OverlayDuration: cfg.OverlayDuration,
		},
		EndGrace:          cfg.EndGrace,
		EmbedAPIPoll:      cfg.EmbedAPIPoll,
		GenerationTimeout: cfg.GenerationTimeout,
	}
	clk := clock.Real()

	reg := orchestrator.NewRegistry(func(id orchestrator.SessionID) (*orchestrator.Orchestrator, orchestrator.WidgetHost) {
		sessLog := log.With("session_id", string(id))
		host := widgethost.New(sessLog)
		o := orchestrator.New(orchestrator.Deps{
			Generator: gen,
			Titles:    titles,
			Embed:     host,
			Sink:      host,
			Clock:     clk,
			Log:       sessLog,
			Metrics:   met,
		}, orchCfg)
		return o, host
	}, clk, log, met)
	h := orchestrator.NewHandler(reg, log, met)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveSessions(reg.ActiveCount()) }).ServeHTTP(w, r)
	})
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.With(ratelimit.Limit(ratelimit.Config{
				RequestLimit: cfg.SubmitRateLimit,
				WindowSize:   cfg.SubmitRateWindow,
			})).Post("/submit", h.Submit)
			r.Post("/reset", h.Reset)
			r.Get("/widget", h.Widget)
		})
	})

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweep(sweepCtx, reg, cfg.SessionIdleTTL, log)

	log.Info("server starting",
		"port", cfg.Port,
		"model", cfg.GeminiModel,
		"log_level", cfg.LogLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := reg.CloseAll(ctx); err != nil {
		log.Error("session teardown incomplete", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// sweep closes idle sessions every ttl/2 until ctx ends.
func sweep(ctx context.Context, reg *orchestrator.Registry, ttl time.Duration, log *slog.Logger) {
	if ttl <= 0 {
		return
	}
	t := time.NewTicker(ttl / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := reg.Sweep(ttl); n > 0 {
				log.Info("idle sessions swept", "count", n)
			}
		}
	}
}
