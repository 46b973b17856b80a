package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/groundline-ai/groundline/internal/config"
	"github.com/groundline-ai/groundline/internal/db"
	dbRedis "github.com/groundline-ai/groundline/internal/db/redis"
	"github.com/groundline-ai/groundline/internal/domain/section"
	"github.com/groundline-ai/groundline/internal/index"
	"github.com/groundline-ai/groundline/internal/lexicon"
	logpkg "github.com/groundline-ai/groundline/internal/logger"
	"github.com/groundline-ai/groundline/internal/metrics"
	auditrepo "github.com/groundline-ai/groundline/internal/repository/audit"
	chiTransport "github.com/groundline-ai/groundline/internal/transport/chi"
	openaiGen "github.com/groundline-ai/groundline/internal/transport/openai"
	askuc "github.com/groundline-ai/groundline/internal/usecase/ask"
	corpusuc "github.com/groundline-ai/groundline/internal/usecase/corpus"
	healthuc "github.com/groundline-ai/groundline/internal/usecase/health"
	loaderuc "github.com/groundline-ai/groundline/internal/usecase/loader"
	policyuc "github.com/groundline-ai/groundline/internal/usecase/policy"
	routeruc "github.com/groundline-ai/groundline/internal/usecase/router"
	verifieruc "github.com/groundline-ai/groundline/internal/usecase/verifier"
	"github.com/groundline-ai/groundline/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting groundline API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("lexicon_domain", cfg.Lexicon.Domain),
	)

	metrics.RegisterPipelineMetrics()

	ctx := context.Background()

	// Audit store is optional: without Redis, denials are only logged and counted.
	var store db.Store
	var audit *auditrepo.Store
	if len(cfg.Database.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create audit store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Audit store not ready", zap.Error(err))
		}
		audit = auditrepo.New(store, cfg.Audit.MaxEntries)
		logger.Info("Connected to audit store", zap.Strings("addrs", cfg.Database.Addrs))
	}

	// Lexicon adapter per deployment domain
	lex, err := lexicon.ForDomain(cfg.Lexicon.Domain, cfg.Lexicon.Aliases, cfg.Lexicon.Entities)
	if err != nil {
		logger.Fatal("Failed to create lexicon adapter", zap.Error(err))
	}

	// Index: builder + atomically swapped holder
	holder := index.NewHolder()
	builder := index.NewBuilder(lex)

	// Disambiguation rules, in registration order
	rules := make([]routeruc.Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		rule, ruleErr := routeruc.NewRule(rc.Name, rc.Trigger, rc.Entity, rc.Term, routeruc.Action(rc.Action), rc.Amount)
		if ruleErr != nil {
			logger.Fatal("Invalid disambiguation rule", zap.Error(ruleErr))
		}
		rules = append(rules, rule)
	}

	// Pass nil interface (not typed nil pointer!) if audit is not configured.
	var auditRecorder policyuc.AuditRecorder
	var snapshotRecorder corpusuc.SnapshotRecorder
	var dbPinger healthuc.DBPinger
	if audit != nil {
		auditRecorder = audit
		snapshotRecorder = audit
		dbPinger = audit
	}

	// Pipeline services
	routerSvc := routeruc.New(holder, rules).WithOptions(routeruc.Options{
		AliasBonus:  cfg.Pipeline.AliasBonus,
		EntityBonus: cfg.Pipeline.EntityBonus,
	})
	policySvc := policyuc.New(holder, auditRecorder, logger)
	loaderSvc := loaderuc.New(holder, logger)
	verifierSvc := verifieruc.New(nil, logger)

	generator := buildGenerator(cfg.Provider, logger)

	askSvc := askuc.New(
		routerSvc, policySvc, loaderSvc, verifierSvc, generator,
		cfg.Pipeline.TopK, cfg.Pipeline.BudgetTokens, logger,
	)
	corpusSvc := corpusuc.New(builder, holder, snapshotRecorder, logger)
	healthSvc := healthuc.New(dbPinger, holder)

	// Seed the index from the ingestion collaborator's output, if configured.
	if cfg.Corpus.Path != "" {
		snap, seedErr := corpusSvc.PublishFile(ctx, cfg.Corpus.Path)
		if seedErr != nil {
			logger.Fatal("Failed to seed corpus", zap.Error(seedErr))
		}
		logger.Info("Seeded corpus",
			zap.String("path", cfg.Corpus.Path),
			zap.String("snapshot_version", snap.Version()),
		)
	}

	server := chiTransport.NewServer(askSvc, corpusSvc, &snapshotInfo{holder: holder}, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildGenerator creates the synthesis provider, or a stub that reports
// the provider as unconfigured so route/preview still work.
func buildGenerator(cfg config.ProviderConfig, logger *zap.Logger) askuc.Generator {
	if cfg.Model == "" {
		logger.Warn("No synthesis provider configured; /v1/ask will fail, /v1/route remains available")
		return unconfiguredGenerator{}
	}
	return openaiGen.NewGenerator(&openaiGen.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Logger:    logger,
	})
}

type unconfiguredGenerator struct{}

func (unconfiguredGenerator) Generate(context.Context, string, []section.Section) (string, error) {
	return "", fmt.Errorf("no synthesis provider configured")
}

// snapshotInfo adapts the index holder to the transport's status endpoint.
type snapshotInfo struct {
	holder *index.Holder
}

func (s *snapshotInfo) Current() (chiTransport.SnapshotResponse, error) {
	snap, err := s.holder.Current()
	if err != nil {
		return chiTransport.SnapshotResponse{}, err
	}
	return chiTransport.SnapshotResponse{
		Version:  snap.Version(),
		Sections: snap.NumSections(),
		Terms:    snap.NumTerms(),
		BuiltAt:  snap.BuiltAt(),
	}, nil
}

func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line: one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

