package forecastcache

import (
	"context"

	"cropsense-workers/internal/common/errors"
	"cropsense-workers/internal/common/logger"
	"cropsense-workers/internal/common/metrics"
	"cropsense-workers/internal/market/forecast"
)

// Forecaster serves forecasts from the store when it can and computes them
// otherwise. A nil store or a failing Redis degrades to direct computation.
type Forecaster struct {
	svc    *forecast.Service
	store  *Store
	logger logger.Logger
}

func NewForecaster(svc *forecast.Service, store *Store, log logger.Logger) *Forecaster {
	return &Forecaster{svc: svc, store: store, logger: log}
}

// Forecast returns the forecast and whether it came from the cache.
func (f *Forecaster) Forecast(ctx context.Context, crop, location string) (forecast.Result, bool) {
	if f.store == nil {
		return f.svc.Forecast(crop, location), false
	}

	cat := f.svc.Catalog()
	key := Key(cat.ResolveCrop(crop), cat.ResolveState(location), location, f.svc.Today())

	cached, ok, err := f.store.Get(ctx, key)
	switch {
	case err != nil:
		metrics.ForecastCacheLookups.WithLabelValues("error").Inc()
		f.warn(err, key)
	case ok:
		metrics.ForecastCacheLookups.WithLabelValues("hit").Inc()
		// Keys are normalized; echo the caller's spelling back.
		cached.Crop = crop
		cached.Location = location
		return cached, true
	default:
		metrics.ForecastCacheLookups.WithLabelValues("miss").Inc()
		f.logger.Debug("forecast cache miss", map[string]interface{}{"key": key})
	}

	res := f.svc.Forecast(crop, location)
	if err == nil {
		if err := f.store.Set(ctx, key, res); err != nil {
			f.warn(err, key)
		}
	}
	return res, false
}

func (f *Forecaster) warn(err error, key string) {
	stdErr := errors.NewCacheUnavailableError(err)
	f.logger.Warn("forecast cache unavailable", map[string]interface{}{
		"key":       key,
		"errorCode": string(stdErr.Code),
		"error":     stdErr.Details,
	})
}
