// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"staff-loans/internal/common/camunda"
	"staff-loans/internal/common/config"
	"staff-loans/internal/common/database"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/common/observability"
	"staff-loans/internal/loan/catalog"
	"staff-loans/internal/loan/poller"
	"staff-loans/internal/models"
	"staff-loans/internal/store/esproducts"
	"staff-loans/internal/store/httpstore"
	"staff-loans/internal/store/pgstore"
	"staff-loans/pkg/registry"

	ca "staff-loans/internal/workers/loan/compute-affordability"
	rgd "staff-loans/internal/workers/loan/record-guarantor-decision"
	rld "staff-loans/internal/workers/loan/resolve-loan-documents"
	rlp "staff-loans/internal/workers/loan/resume-loan-position"
	slc "staff-loans/internal/workers/loan/score-loan-completeness"
	vls "staff-loans/internal/workers/loan/validate-loan-step"
)

// backend is the part of the application store the workers need.
type backend interface {
	catalog.ProductSource
	rgd.Decider
}

type readinessCheck func(ctx context.Context) error

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
				"error":       err.Error(),
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

func main() {
	bootLog := logger.New("info", "console")
	defer bootLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format,
		zap.String("service", cfg.App.Name), zap.String("version", cfg.App.Version))
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("Starting loan worker manager...", map[string]interface{}{
		"environment": cfg.App.Environment,
		"store":       cfg.Store.Backend,
	})

	obs := observability.New(observability.Options{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: cfg.Tracing.Endpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zeebeClient, err := camunda.Connect(ctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	log.Info("Zeebe client connected successfully", nil)

	checks := map[string]readinessCheck{
		"zeebe": func(ctx context.Context) error {
			return camunda.HealthCheck(ctx, zeebeClient, 5*time.Second)
		},
	}

	redisClient := database.NewRedis(cfg.Database.Redis)
	if err := retryWithBackoff(func() error { return redisClient.Ping(ctx) }, 10, 2*time.Second, log, "Redis connection"); err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	checks["redis"] = redisClient.Ping
	log.Info("Redis connected successfully", nil)

	var store backend
	switch cfg.Store.Backend {
	case "http":
		store = httpstore.New(cfg.Store.BaseURL, os.Getenv("LOAN_API_TOKEN"), config.GetDuration(cfg.Store.Timeout), log)
		log.Info("Using REST application store", map[string]interface{}{"baseUrl": cfg.Store.BaseURL})
	default:
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
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		checks["postgres"] = pg.Ping

		pgStore := pgstore.New(pg.DB, log)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		store = pgStore
		log.Info("PostgreSQL connected successfully", nil)
	}

	var products catalog.ProductSource = store
	if cfg.Loan.ProductsFromIndex {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		index := cfg.Database.Elasticsearch.ProductIndex
		if err := es.EnsureIndex(ctx, index, esproducts.Mapping); err != nil {
			zapLog.Fatal("product index setup failed", zap.Error(err))
		}
		products = esproducts.New(es.Client, index, log)
		checks["elasticsearch"] = es.Ping
		log.Info("Elasticsearch connected successfully", map[string]interface{}{"index": index})
	}

	productCatalog := catalog.New(products, redisClient.Client, catalog.Options{
		ClientType: models.ClientType(cfg.Loan.ClientType),
		CacheTTL:   config.GetDuration(cfg.Loan.ProductCacheTTL),
	}, log)

	// The catalog memoizes for its lifetime; a long-running worker drops the
	// copy once per cache TTL so product changes reach it.
	catalogRefresh := poller.New("catalog-refresh", config.GetDuration(cfg.Loan.ProductCacheTTL), productCatalog.Invalidate, log)
	catalogRefresh.Start(ctx)

	locker := redislock.New(redisClient.Client)

	workers := camunda.NewWorkerSet(zeebeClient, log)

	vlsCfg := vls.LoadConfig()
	vlsCfg.Timeout = workerTimeout(cfg, vls.TaskType, vlsCfg.Timeout)
	workers.Start(vls.TaskType, config.GetWorkerConfig(cfg, vls.TaskType),
		vls.NewHandler(vlsCfg, productCatalog, obs, log))

	slcCfg := slc.LoadConfig()
	slcCfg.Timeout = workerTimeout(cfg, slc.TaskType, slcCfg.Timeout)
	workers.Start(slc.TaskType, config.GetWorkerConfig(cfg, slc.TaskType),
		slc.NewHandler(slcCfg, obs, log))

	rldCfg := rld.LoadConfig()
	rldCfg.Timeout = workerTimeout(cfg, rld.TaskType, rldCfg.Timeout)
	workers.Start(rld.TaskType, config.GetWorkerConfig(cfg, rld.TaskType),
		rld.NewHandler(rldCfg, obs, log))

	rlpCfg := rlp.LoadConfig()
	rlpCfg.Timeout = workerTimeout(cfg, rlp.TaskType, rlpCfg.Timeout)
	workers.Start(rlp.TaskType, config.GetWorkerConfig(cfg, rlp.TaskType),
		rlp.NewHandler(rlpCfg, obs, log))

	caCfg := ca.LoadConfig()
	caCfg.Timeout = workerTimeout(cfg, ca.TaskType, caCfg.Timeout)
	workers.Start(ca.TaskType, config.GetWorkerConfig(cfg, ca.TaskType),
		ca.NewHandler(caCfg, obs, log))

	rgdCfg := rgd.LoadConfig()
	rgdCfg.Timeout = workerTimeout(cfg, rgd.TaskType, rgdCfg.Timeout)
	rgdCfg.LockTTL = config.GetDuration(cfg.Loan.DecisionLockTTL)
	workers.Start(rgd.TaskType, config.GetWorkerConfig(cfg, rgd.TaskType),
		rgd.NewHandler(rgdCfg, store, locker, obs, log))

	if reg, err := registry.LoadRegistry(cfg.Registry.Path); err != nil {
		log.Warn("activity registry not loaded", map[string]interface{}{"path": cfg.Registry.Path, "error": err.Error()})
	} else if missing := reg.Missing(workers.TaskTypes()); len(missing) > 0 {
		log.Warn("workers running without an implemented registry entry", map[string]interface{}{"taskTypes": missing})
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           newMux(checks, workers.TaskTypes()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, stopping workers...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Stop(shutdownCtx)
	catalogRefresh.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping HTTP server", map[string]interface{}{"error": err.Error()})
	}
	if err := zeebeClient.Close(); err != nil {
		log.Error("Error closing Zeebe client", map[string]interface{}{"error": err.Error()})
	}
	obs.Shutdown(shutdownCtx)

	log.Info("Worker manager stopped gracefully", nil)
}

func workerTimeout(cfg *config.Config, taskType string, def time.Duration) time.Duration {
	if w, ok := cfg.Workers[taskType]; ok && w.Timeout > 0 {
		return config.GetDuration(w.Timeout)
	}
	return def
}

func newMux(checks map[string]readinessCheck, taskTypes []string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"workers": taskTypes,
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not ready"
		}
		writeJSON(w, status, map[string]interface{}{"status": state, "checks": results})
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
