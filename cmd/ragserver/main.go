// Command ragserver is the main entry point for the transcript RAG server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kotodama-ai/transcript-rag/internal/admission"
	"github.com/kotodama-ai/transcript-rag/internal/answer/retriever"
	"github.com/kotodama-ai/transcript-rag/internal/answer/service"
	"github.com/kotodama-ai/transcript-rag/internal/cache/audiocache"
	"github.com/kotodama-ai/transcript-rag/internal/config"
	"github.com/kotodama-ai/transcript-rag/internal/health"
	"github.com/kotodama-ai/transcript-rag/internal/observe"
	"github.com/kotodama-ai/transcript-rag/internal/providerwiring"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

// Providers is an alias kept for readability within this file's signatures.
type Providers = providerwiring.Providers

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "ragserver: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "ragserver: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("ragserver starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	providerwiring.RegisterBuiltins(reg)

	providers, err := providerwiring.Build(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Observability ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownObserve, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "transcript-rag"})
	if err != nil {
		slog.Error("failed to init observability provider", "err", err)
		return 1
	}
	defer shutdownObserve(context.Background())
	metrics := observe.DefaultMetrics()

	// ── Application wiring ────────────────────────────────────────────────────
	if providers.Embeddings == nil || providers.VectorDB == nil {
		slog.Error("embeddings and vector_db providers are required to serve /chat")
		return 1
	}

	r := retriever.New(providers.Embeddings, providers.VectorDB,
		retriever.WithTopK(cfg.Index.TopK),
		retriever.WithNamespace(cfg.Index.Namespace),
	)

	var cache *audiocache.Cache
	if providers.TTS != nil {
		cache = audiocache.New()
		cache.Init()
		defer cache.Shutdown()
	}

	answerSvc := service.New(r, providers.LLM, providers.TTS, cache, service.WithLogger(logger))

	admis := admission.New(admission.Config{
		Mode:            cfg.Admission.Mode,
		APIKeys:         cfg.Admission.APIKeys,
		AllowedOrigins:  cfg.Admission.AllowedOrigins,
		RateLimitWindow: time.Duration(cfg.Admission.RateLimitWindowSeconds) * time.Second,
		AnswerMax:       cfg.Admission.AnswerMaxPerWindow,
		HealthMax:       cfg.Admission.HealthMaxPerWindow,
	}, logger)

	sweepStop := make(chan struct{})
	go sweepLoop(admis, sweepStop)
	defer close(sweepStop)

	healthHandler := health.New(buildCheckers(cfg, providers)...)

	mux := http.NewServeMux()
	healthHandler.Register(mux)
	mux.HandleFunc("OPTIONS /chat", admission.CORSPreflight)
	mux.Handle("POST /chat", chatHandler(answerSvc, admis))

	handler := observe.Middleware(metrics)(mux)

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: handler,
	}

	printStartupSummary(cfg, providers)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server ready — press Ctrl+C to shut down", "listen_addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			slog.Error("server error", "err", err)
			return 1
		}
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── HTTP handlers ─────────────────────────────────────────────────────────────

func chatHandler(svc *service.Service, admis *admission.Admission) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := admis.Check(r, admission.CategoryAnswer); err != nil {
			writeAdmissionError(w, err)
			return
		}

		var req types.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"malformed request body"}`, http.StatusBadRequest)
			return
		}

		resp, err := svc.Answer(r.Context(), req)
		if err != nil {
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				http.Error(w, fmt.Sprintf(`{"error":%q}`, verr.Error()), http.StatusBadRequest)
				return
			}
			slog.Error("answer failed", "err", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(resp)
	})
}

func writeAdmissionError(w http.ResponseWriter, err error) {
	var aerr *admission.Error
	if errors.As(err, &aerr) {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, aerr.Message), aerr.Status)
		return
	}
	http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
}

func sweepLoop(a *admission.Admission, stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.Limiter().Sweep()
		case <-stop:
			return
		}
	}
}

func buildCheckers(cfg *config.Config, p *Providers) []health.Checker {
	var checkers []health.Checker
	if p.VectorDB != nil {
		checkers = append(checkers, health.Checker{
			Name: "vector_db",
			Check: func(ctx context.Context) error {
				_, err := p.VectorDB.Describe(ctx, cfg.Index.Name)
				return err
			},
		})
	}
	if p.Embeddings != nil {
		checkers = append(checkers, health.Checker{
			Name: "embeddings",
			Check: func(ctx context.Context) error {
				_, err := p.Embeddings.Embed(ctx, "healthcheck")
				return err
			},
		})
	}
	return checkers
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, p *Providers) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║      ragserver — startup summary      ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	printProvider("Embeddings", cfg.Providers.Embeddings.Name, cfg.Providers.Embeddings.Model)
	printProvider("VectorDB", cfg.Providers.VectorDB.Name, "")
	fmt.Printf("║  Index namespace : %-19s ║\n", cfg.Index.Namespace)
	fmt.Printf("║  Admission mode  : %-19s ║\n", cfg.Admission.Mode)
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
