package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cropsense-workers/internal/common/aws"
	"cropsense-workers/internal/common/camunda"
	"cropsense-workers/internal/common/config"
	"cropsense-workers/internal/common/database"
	apperrors "cropsense-workers/internal/common/errors"
	"cropsense-workers/internal/common/logger"
	"cropsense-workers/internal/common/metrics"
	"cropsense-workers/internal/common/observability"
	"cropsense-workers/internal/market/forecast"
	"cropsense-workers/internal/market/forecastcache"
	"cropsense-workers/internal/market/recommend"
	"cropsense-workers/internal/market/refdata"

	fcp "cropsense-workers/internal/workers/market/forecast-crop-price"
	rm "cropsense-workers/internal/workers/market/recommend-mandi"
	"cropsense-workers/pkg/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"app":     cfg.App.Name,
		"version": cfg.App.Version,
	})
	log.Info("starting worker manager", map[string]interface{}{"environment": cfg.App.Environment})

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Reference data ---
	var catalogOpts []refdata.Option
	if cfg.Database.Postgres.Enabled {
		markets, err := loadMarkets(ctx, cfg.Database.Postgres, log)
		if err != nil {
			stdErr := apperrors.NewReferenceDataLoadFailedError(err)
			log.Warn("using built-in market table", map[string]interface{}{
				"errorCode": string(stdErr.Code),
				"error":     stdErr.Details,
			})
		} else {
			catalogOpts = append(catalogOpts, refdata.WithMarkets(markets))
		}
	}
	cat := refdata.NewCatalog(catalogOpts...)

	// --- Forecast service, trained once ---
	svc := forecast.NewService(cat, forecastConfig(cfg.Forecast), log)
	if m, ok := svc.ModelMetrics(); ok {
		metrics.PriceModelActive.Set(1)
		metrics.PriceModelRSquared.Set(m.RSquared)
	} else {
		metrics.PriceModelActive.Set(0)
	}

	// --- Redis forecast cache (optional) ---
	var store *forecastcache.Store
	var redisClient *database.RedisClient
	if cfg.Database.Redis.Enabled {
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err == nil {
			err = database.RetryWithBackoff(ctx, 5, time.Second, log, "redis connection", redisClient.Ping)
		}
		if err != nil {
			log.Warn("forecast cache disabled", map[string]interface{}{"error": err.Error()})
		} else {
			defer redisClient.Close()
			store = forecastcache.NewStore(redisClient.Client, cfg.Forecast.CacheTTL)
			log.Info("redis connected", map[string]interface{}{"address": cfg.Database.Redis.Address})
		}
	}
	forecaster := forecastcache.NewForecaster(svc, store, log)

	engine := recommend.NewEngine(cat, svc, log,
		recommend.WithUnknownCropRejection(cfg.Recommend.RejectUnknownCrops))

	var notifier *aws.SMSNotifier
	if cfg.Notifications.SMS.Enabled {
		notifier, err = aws.NewSMSNotifier(ctx, cfg.Notifications.SMS.Region, cfg.Notifications.SMS.SenderID, log)
		if err != nil {
			log.Error("sms notifier unavailable", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.UsePlaintext,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		log.Error("zeebe client failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer zeebe.Close()
	log.Info("zeebe client connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

	// --- Workers ---
	var workers []*camunda.CamundaWorker

	if config.IsWorkerEnabled(cfg, fcp.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, fcp.TaskType)
		handler, err := fcp.NewHandler(&fcp.Config{Timeout: config.GetDuration(wcfg.Timeout)}, forecaster, obs, log)
		if err != nil {
			log.Error("failed to create handler", map[string]interface{}{"taskType": fcp.TaskType, "error": err.Error()})
			os.Exit(1)
		}
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), fcp.TaskType, wcfg, handler.Handle, obs, log))
	}

	if config.IsWorkerEnabled(cfg, rm.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, rm.TaskType)
		opts := rm.HandlerOptions{
			Config: &rm.Config{
				Timeout:    config.GetDuration(wcfg.Timeout),
				SMSEnabled: cfg.Notifications.SMS.Enabled,
			},
			Forecaster:    forecaster,
			Recommender:   engine,
			Observability: obs,
			Logger:        log,
		}
		if notifier != nil {
			opts.Notifier = notifier
		}
		handler, err := rm.NewHandler(opts)
		if err != nil {
			log.Error("failed to create handler", map[string]interface{}{"taskType": rm.TaskType, "error": err.Error()})
			os.Exit(1)
		}
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), rm.TaskType, wcfg, handler.Handle, obs, log))
	}

	reg, err := registry.New(cfg.App.Version,
		fcp.Describe(config.GetWorkerConfig(cfg, fcp.TaskType)),
		rm.Describe(config.GetWorkerConfig(cfg, rm.TaskType)),
	)
	if err != nil {
		log.Error("invalid activity registry", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	checks := map[string]readinessCheck{"zeebe": zeebe.HealthCheck}
	if store != nil {
		checks["redis"] = redisClient.Ping
	}
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           newHTTPHandler(checks, svc.ModelActive, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping http server", map[string]interface{}{"error": err.Error()})
	}
	log.Info("worker manager stopped", nil)
}

func loadMarkets(ctx context.Context, pgCfg config.PostgresConfig, log logger.Logger) ([]refdata.MarketLocation, error) {
	pg, err := database.NewPostgres(pgCfg)
	if err != nil {
		return nil, err
	}
	defer pg.Close()

	if err := database.RetryWithBackoff(ctx, 5, 2*time.Second, log, "postgres connection", pg.Ping); err != nil {
		return nil, err
	}

	markets, err := refdata.LoadMarkets(ctx, pg.DB)
	if err != nil {
		return nil, err
	}
	log.Info("loaded market overrides", map[string]interface{}{"markets": len(markets)})
	return markets, nil
}

func forecastConfig(c config.ForecastConfig) forecast.Config {
	return forecast.Config{
		ModelEnabled: c.ModelEnabled,
		Boosting: forecast.BoostingParams{
			Estimators:   c.Estimators,
			MaxDepth:     c.MaxDepth,
			LearningRate: c.LearningRate,
			Subsample:    c.Subsample,
			Seed:         c.Seed,
		},
		NoiseMode: forecast.NoiseMode(c.NoiseMode),
	}
}
