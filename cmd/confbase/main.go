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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/confbase/confbase/internal/auth"
	"github.com/confbase/confbase/internal/config"
	dbRedis "github.com/confbase/confbase/internal/db/redis"
	logpkg "github.com/confbase/confbase/internal/logger"
	"github.com/confbase/confbase/internal/metrics"
	affiliationrepo "github.com/confbase/confbase/internal/repository/affiliation"
	preferencerepo "github.com/confbase/confbase/internal/repository/preference"
	profilerepo "github.com/confbase/confbase/internal/repository/profile"
	"github.com/confbase/confbase/internal/repository/recstore"
	submissionrepo "github.com/confbase/confbase/internal/repository/submission"
	"github.com/confbase/confbase/internal/repository/tablestore"
	chiTransport "github.com/confbase/confbase/internal/transport/chi"
	sendgridTransport "github.com/confbase/confbase/internal/transport/sendgrid"
	affiliationuc "github.com/confbase/confbase/internal/usecase/affiliation"
	agendauc "github.com/confbase/confbase/internal/usecase/agenda"
	healthuc "github.com/confbase/confbase/internal/usecase/health"
	maileruc "github.com/confbase/confbase/internal/usecase/mailer"
	preferenceuc "github.com/confbase/confbase/internal/usecase/preference"
	profileuc "github.com/confbase/confbase/internal/usecase/profile"
	submissionuc "github.com/confbase/confbase/internal/usecase/submission"
	"github.com/confbase/confbase/internal/version"
)

func main() {
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting confbase API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("current_edition", cfg.Editions.Current),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Recommendation artifacts: best-effort, API degrades without them.
	editions := make([]string, 0, len(cfg.Editions.Editions))
	tableRefs := make(map[string]submissionuc.TableRef, len(cfg.Editions.Editions))
	for name, ed := range cfg.Editions.Editions {
		editions = append(editions, name)
		if ed.TableBaseID != "" {
			tableRefs[name] = submissionuc.TableRef{BaseID: ed.TableBaseID, Table: ed.TableName}
		}
	}
	catalog, err := recstore.LoadCatalog(recstore.New(cfg.Recommend.EmbeddingsDir), editions, logger)
	if err != nil {
		logger.Fatal("Failed to load neighbor indexes", zap.Error(err))
	}

	// Repositories
	profileRepo := profilerepo.New(store)
	prefRepo := preferencerepo.New(store)
	subRepo := submissionrepo.New(store, cfg.Search.MaxResults)
	affRepo := affiliationrepo.New(store, cfg.Search.AffiliationIndex)
	tables := tablestore.New(cfg.TableStore.BaseURL, cfg.TableStore.APIKey)

	// Email templates: optional, endpoint degrades to a logged no-op.
	templates := map[string]maileruc.Template{}
	if cfg.Email.TemplatePath != "" {
		templates, err = maileruc.LoadTemplates(cfg.Email.TemplatePath)
		if err != nil {
			logger.Warn("Failed to load email templates", zap.Error(err))
			templates = map[string]maileruc.Template{}
		}
	}
	mailSender := sendgridTransport.NewMailer(&sendgridTransport.Config{
		APIKey:      cfg.Email.SendgridAPIKey,
		FromName:    cfg.Email.FromName,
		FromAddress: cfg.Email.FromAddress,
	})

	// Use case services
	profileSvc := profileuc.New(profileRepo)
	prefSvc := preferenceuc.New(prefRepo, subRepo)
	subSvc := submissionuc.New(
		subRepo, prefRepo, catalog, tables, tableRefs, profileRepo,
		cfg.Search.DefaultPageSize, cfg.Search.MaxResults,
	)
	agendaSvc := agendauc.New(subRepo)
	affSvc := affiliationuc.New(affRepo)
	var sender maileruc.Sender
	if mailSender != nil {
		sender = mailSender
	}
	mailSvc := maileruc.New(sender, templates, logger)
	healthSvc := healthuc.New(store, nil)

	verifier := auth.New(cfg.Auth.JWTSecret, cfg.Auth.Audience)
	server := chiTransport.NewServer(
		profileSvc, prefSvc, subSvc, agendaSvc, affSvc, mailSvc, healthSvc, verifier,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware(cfg.HTTP.CORSOrigins))
	r.Use(chiTransport.IdentityMiddleware(verifier))
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

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
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
