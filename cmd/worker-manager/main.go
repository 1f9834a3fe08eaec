// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"candidate-matching-workers/internal/common/camunda"
	"candidate-matching-workers/internal/common/config"
	"candidate-matching-workers/internal/common/database"
	"candidate-matching-workers/internal/common/logger"
	"candidate-matching-workers/internal/common/observability"
	"candidate-matching-workers/internal/filtering"
	"candidate-matching-workers/internal/store"

	be "candidate-matching-workers/internal/workers/evaluation/batch-evaluate"
	ec "candidate-matching-workers/internal/workers/evaluation/evaluate-candidate"
	as "candidate-matching-workers/internal/workers/search/advanced-search"
	fc "candidate-matching-workers/internal/workers/search/filter-candidates"
	fo "candidate-matching-workers/internal/workers/search/filter-options"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err})
	os.Exit(1)
}

func main() {
	boot := logger.NewStructured("info", "console")

	cfg, err := config.Load()
	if err != nil {
		fatal(boot, "config load failed", err)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting worker manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		fatal(log, "postgres failed after retries", err)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		fatal(log, "postgres schema setup failed", err)
	}
	log.Info("PostgreSQL connected", nil)

	// --- Redis ---
	rdb := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		fatal(log, "redis failed after retries", err)
	}
	defer rdb.Close()
	log.Info("Redis connected", nil)

	// --- Stores ---
	pgStore := store.NewPostgresStore(pg.DB, log)
	var reader store.Reader = pgStore
	// indexer stays nil without Elasticsearch; evaluations are then only
	// stored in Postgres.
	var indexer ec.Indexer

	if cfg.Database.Elasticsearch.Configured() {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			fatal(log, "elasticsearch failed after retries", err)
		}
		if err := esClient.EnsureIndex(ctx, cfg.Matching.Search.Index); err != nil {
			fatal(log, "elasticsearch index setup failed", err)
		}

		esStore := store.NewElasticsearchStore(esClient.Client, cfg.Matching.Search.Index, log)
		indexer = esStore
		if cfg.Matching.Search.Backend == config.SearchBackendElasticsearch {
			reader = esStore
		}
		log.Info("Elasticsearch connected", map[string]interface{}{"index": cfg.Matching.Search.Index})
	}
	log.Info("search backend selected", map[string]interface{}{"backend": cfg.Matching.Search.Backend})

	filterService := filtering.NewService(reader, cfg.Matching.QueryTimeoutDuration(), log)

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(cfg.Camunda.BrokerAddress)
	if err != nil {
		fatal(log, "zeebe client failed", err)
	}
	log.Info("Zeebe client connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

	workers := camunda.NewWorkerSet(zeebe.GetClient(), log)

	evaluate := ec.NewHandler(ec.LoadConfig(cfg), ec.Dependencies{
		Repository:    pgStore,
		Indexer:       indexer,
		Cache:         rdb.Client,
		Observability: obs,
		Logger:        log,
	})
	workers.Register(ec.TaskType, config.GetWorkerConfig(cfg, ec.TaskType), evaluate.Handle)

	batchEvaluate := be.NewHandler(be.LoadConfig(cfg), be.Dependencies{
		Repository:    pgStore,
		Indexer:       indexer,
		Cache:         rdb.Client,
		Observability: obs,
		Logger:        log,
	})
	workers.Register(be.TaskType, config.GetWorkerConfig(cfg, be.TaskType), batchEvaluate.Handle)

	filterCandidates := fc.NewHandler(fc.LoadConfig(cfg), filterService, obs, log)
	workers.Register(fc.TaskType, config.GetWorkerConfig(cfg, fc.TaskType), filterCandidates.Handle)

	advancedSearch := as.NewHandler(as.LoadConfig(cfg), filterService, obs, log)
	workers.Register(as.TaskType, config.GetWorkerConfig(cfg, as.TaskType), advancedSearch.Handle)

	filterOptions := fo.NewHandler(fo.LoadConfig(cfg), fo.Dependencies{
		Service:       filterService,
		Cache:         rdb.Client,
		Observability: obs,
		Logger:        log,
	})
	workers.Register(fo.TaskType, config.GetWorkerConfig(cfg, fo.TaskType), filterOptions.Handle)

	log.Info("workers registered", map[string]interface{}{"taskTypes": workers.TaskTypes()})

	// --- Health & Metrics Server ---
	srv := newHealthServer(cfg.App.MetricsPort, pg, rdb)
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping workers...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping health server", map[string]interface{}{"error": err})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("error closing Zeebe client", map[string]interface{}{"error": err})
	}

	log.Info("worker manager stopped", nil)
}

func newHealthServer(port int, pg *database.PostgresClient, rdb *database.RedisClient) *http.Server {
	if port == 0 {
		port = 8080
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "postgres unavailable")
			return
		}
		if err := rdb.Ping(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
