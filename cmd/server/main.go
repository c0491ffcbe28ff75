package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/rosterpilot/internal/audit"
	"github.com/yourorg/rosterpilot/internal/handler"
	"github.com/yourorg/rosterpilot/internal/infrastructure/logger"
	"github.com/yourorg/rosterpilot/internal/infrastructure/redis"
	"github.com/yourorg/rosterpilot/internal/observability/metrics"
	"github.com/yourorg/rosterpilot/internal/observability/tracing"
	"github.com/yourorg/rosterpilot/internal/proposal"
	"github.com/yourorg/rosterpilot/internal/reliability/ratelimit"
	"github.com/yourorg/rosterpilot/internal/repository"
	"github.com/yourorg/rosterpilot/internal/resolver"
	"github.com/yourorg/rosterpilot/internal/service"
	"github.com/yourorg/rosterpilot/internal/translator"
	"github.com/yourorg/rosterpilot/pkg/config"
	"github.com/yourorg/rosterpilot/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting RosterPilot server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op without an OTLP endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, "rosterpilot", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Initialize database pool
	pool, err := database.NewConnectionPool(ctx, &database.Config{URL: cfg.DatabaseURL}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	db := pool.GetDB()

	// 5. Initialize Redis client
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	proposalTTL := time.Duration(cfg.ProposalTTLMinutes) * time.Minute

	// 6. Initialize repositories
	employeeRepo := repository.NewPostgresEmployeeRepository(db, log)
	orgUnitRepo := repository.NewPostgresOrgUnitRepository(db, log)
	rosterStore := repository.NewPostgresRosterStore(db, log)
	auditRepo := repository.NewPostgresAuditRepository(db, log)
	markerStore := repository.NewTokenMarkerRepository(redisClient, proposalTTL, log)

	// 7. Initialize services
	parser := translator.NewOpenAIParser(translator.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	}, log)
	entityResolver := resolver.New(employeeRepo, orgUnitRepo, log)
	codec := proposal.New(cfg.ProposalSecret, proposalTTL, log)
	recorder := audit.NewRecorder(auditRepo, log)
	dispatcher := service.NewDispatcher(cfg.YearMin, cfg.YearMax, cfg.DefaultServiceType)
	commandService := service.NewCommandService(parser, entityResolver, rosterStore, recorder, codec, markerStore, dispatcher, cfg.MinConfidence, log)
	rosterService := service.NewRosterService(employeeRepo, rosterStore, entityResolver, log)

	// 8. Initialize handlers
	queryHandler := handler.NewQueryHandler(commandService, log)
	commitHandler := handler.NewCommitHandler(commandService, log)
	auditHandler := handler.NewAuditHandler(recorder, log)
	orgUnitsHandler := handler.NewOrgUnitsHandler(orgUnitRepo, log)
	rosterHandler := handler.NewRosterHandler(rosterService, log)
	healthHandler := handler.NewHealthHandler(pool, redisClient, log)

	// 9. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("POST /api/assistant/query", queryHandler)
	mux.Handle("POST /api/assistant/commit", commitHandler)
	mux.Handle("GET /api/audit", auditHandler)
	mux.Handle("GET /api/org-units", orgUnitsHandler)
	mux.Handle("POST /api/roster/save", http.HandlerFunc(rosterHandler.Save))
	mux.Handle("GET /api/roster/list", http.HandlerFunc(rosterHandler.List))
	mux.Handle("POST /api/roster/rollover", http.HandlerFunc(rosterHandler.Rollover))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", healthHandler.Health)
	mux.HandleFunc("/readyz", healthHandler.Ready)

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Assistant queries fan out to the language model, so they get a
	// per-client limit.
	rateLimiter := ratelimit.NewLimiter(30, time.Minute)
	limited := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/assistant/") && !rateLimiter.Allow(clientKey(r)) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		handlerWithCORS.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> tracing -> metrics -> rate limit ->
	// CORS. Metrics sit inside the tracing handler: it derives a fresh
	// request, and the metrics layer needs the same request the mux
	// stamps with the matched route pattern.
	rootHandler := withRequestID(
		otelhttp.NewHandler(
			metrics.HTTPMetricsMiddleware(limited),
			"rosterpilot",
		),
		log,
	)

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("model", cfg.OpenAIModel),
		slog.Int("proposal_ttl_minutes", cfg.ProposalTTLMinutes),
		slog.Bool("proposals_signed", cfg.ProposalSecret != ""),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	rateLimiter.Stop()
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// clientKey identifies the caller for rate limiting. Proxied setups
// should put the server behind a trusted X-Forwarded-For stripper.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
