package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	activityapp "dnspulse/internal/activity/application"
	activityinterfaces "dnspulse/internal/activity/interfaces"
	activityhttp "dnspulse/internal/activity/interfaces/http"
	apihttp "dnspulse/internal/api/http"
	"dnspulse/internal/auth"
	"dnspulse/internal/observability/metrics"
	querylogapp "dnspulse/internal/querylog/application"
	"dnspulse/internal/querylog/infrastructure/memory"
	querylogrepo "dnspulse/internal/querylog/infrastructure/postgres"
	queryloghttp "dnspulse/internal/querylog/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
	} else {
		logger.Printf("no DATABASE_URL set, running with the in-memory query log only")
	}

	metrics.Init(db, logger)

	graphCfg, err := activityapp.LoadConfig()
	if err != nil {
		logger.Fatalf("graph config error: %v", err)
	}

	tracker := memory.NewTracker(graphCfg.HistorySize)

	recordOpts := []querylogapp.ServiceOption{}
	var queryRepo *querylogrepo.QueryRepository
	if db != nil {
		queryRepo = querylogrepo.NewQueryRepository(db)
		recordOpts = append(recordOpts, querylogapp.WithRepository(queryRepo))
	}
	recordService, err := querylogapp.NewRecordService(tracker, logger, recordOpts...)
	if err != nil {
		logger.Fatalf("record service error: %v", err)
	}

	broker := activityhttp.NewSSEBroker(graphCfg.GraphConfig())
	graphService, err := activityapp.NewGraphService(
		tracker,
		graphCfg.GraphConfig(),
		activityapp.WithLogger(logger),
		activityapp.WithNotifier(broker),
	)
	if err != nil {
		logger.Fatalf("graph service error: %v", err)
	}
	go graphService.Run(context.Background(), graphCfg.RefreshInterval())

	ingestHandler, err := queryloghttp.NewIngestHandler(recordService, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}
	graphHandler, err := activityhttp.NewGraphHandler(graphService)
	if err != nil {
		logger.Fatalf("graph handler error: %v", err)
	}
	refreshHandler, err := activityhttp.NewRefreshHandler(graphService)
	if err != nil {
		logger.Fatalf("refresh handler error: %v", err)
	}
	reportHandler, err := activityinterfaces.NewReportHandler(graphService)
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	if cfg.IngestSecret != "" {
		ingestAuth := auth.NewIngestAuthMiddleware([]byte(cfg.IngestSecret), time.Duration(cfg.IngestSkewSeconds)*time.Second)
		mux.Handle("/ingest/queries", ingestAuth.Wrap(ingestHandler))
	} else {
		mux.Handle("/ingest/queries", ingestHandler)
	}
	mux.Handle("/api/v1/graph", graphHandler)
	mux.Handle("/api/v1/graph/refresh", refreshHandler)
	mux.Handle("/api/v1/graph/stream", activityhttp.NewStreamHandler(broker))
	mux.Handle("/api/v1/graph/report", reportHandler)
	if queryRepo != nil {
		mux.Handle("/api/v1/queries/stats", apihttp.NewQueryStatsHandler(queryRepo))
		mux.Handle("/api/v1/exports/queries.csv", apihttp.NewExportQueriesCSVHandler(queryRepo))
	}
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL       string
	HTTPAddr          string
	JWTSecret         string
	IngestSecret      string
	IngestSkewSeconds int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestSecret:      getenvDefault("INGEST_HMAC_SECRET", ""),
		IngestSkewSeconds: getenvIntDefault("INGEST_MAX_SKEW_SECONDS", 300),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
