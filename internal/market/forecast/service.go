package forecast

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"cropsense-workers/internal/common/logger"
	"cropsense-workers/internal/market/refdata"
)

const (
	Days = 14

	confidenceModel    = 0.91
	confidenceFormula  = 0.75
	volatilityPenalty  = 0.08
	trendThresholdPct  = 0.5
	dailyWaveAmplitude = 0.015
	dailyWaveFrequency = 0.4
	dailyNoiseStd      = 0.008
)

const (
	TrendUpward   = "upward"
	TrendDownward = "downward"
	TrendStable   = "stable"
)

var volatileCrops = map[string]bool{"tomato": true, "onion": true, "potato": true}

// NoiseMode selects the per-request noise source.
type NoiseMode string

const (
	// NoiseJitter draws from a fresh random source on every request.
	NoiseJitter NoiseMode = "jitter"
	// NoiseHashed seeds from (crop, location, date) for repeatable output.
	NoiseHashed NoiseMode = "hashed"
)

type Config struct {
	ModelEnabled bool
	Boosting     BoostingParams
	NoiseMode    NoiseMode
}

func DefaultConfig() Config {
	return Config{
		ModelEnabled: true,
		Boosting:     DefaultBoostingParams(),
		NoiseMode:    NoiseJitter,
	}
}

// Result is a 14-day price forecast.
type Result struct {
	PredictedPrices []int   `json:"predicted_prices"`
	StartPrice      int     `json:"start_price"`
	EndPrice        int     `json:"end_price"`
	PctChange       float64 `json:"pct_change"`
	Trend           string  `json:"trend"`
	ConfidenceScore float64 `json:"confidence_score"`
	Crop            string  `json:"crop"`
	CropKey         string  `json:"crop_key"`
	Location        string  `json:"location"`
	State           string  `json:"state"`
	Unit            string  `json:"unit"`
}

// Service produces forecasts. The model is trained once in NewService and
// read-only afterwards, so a Service may be shared across goroutines.
type Service struct {
	cat   *refdata.Catalog
	model *Model
	noise NoiseMode
	now   func() time.Time
	log   logger.Logger
}

type Option func(*Service)

// WithClock overrides the time source used for "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the service and fits the price model. A failed fit
// leaves the service in formula mode.
func NewService(cat *refdata.Catalog, cfg Config, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		cat:   cat,
		noise: cfg.NoiseMode,
		now:   time.Now,
		log:   log,
	}
	if s.noise == "" {
		s.noise = NoiseJitter
	}
	for _, opt := range opts {
		opt(s)
	}

	if !cfg.ModelEnabled {
		log.Warn("price model disabled, using formula fallback", nil)
		return s
	}

	start := time.Now()
	model, err := Train(cat, cfg.Boosting)
	if err != nil {
		log.Warn("price model unavailable, using formula fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return s
	}
	s.model = model
	m := model.Metrics()
	log.Info("price model trained", map[string]interface{}{
		"samples":    m.Samples,
		"r2":         m.RSquared,
		"rmse":       m.RMSE,
		"estimators": cfg.Boosting.Estimators,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return s
}

// ModelActive reports whether predictions come from the fitted model.
func (s *Service) ModelActive() bool {
	return s.model != nil
}

// ModelMetrics returns the fit statistics of the active model.
func (s *Service) ModelMetrics() (TrainingMetrics, bool) {
	if s.model == nil {
		return TrainingMetrics{}, false
	}
	return s.model.Metrics(), true
}

// Catalog returns the reference data the service was built with.
func (s *Service) Catalog() *refdata.Catalog {
	return s.cat
}

// Today is the UTC instant forecasts start from.
func (s *Service) Today() time.Time {
	return s.now().UTC()
}

// Predict returns a single strictly positive price estimate.
func (s *Service) Predict(cropKey, state string, month, yearOffset int, rng *rand.Rand) float64 {
	if s.model != nil {
		if v, ok := s.model.Estimate(cropKey, state, month, yearOffset); ok && v > 0 && !math.IsNaN(v) {
			return v
		}
	}
	return fallbackPrice(s.cat, cropKey, state, month, yearOffset, rng)
}

// Forecast resolves crop and location and returns the daily series from today.
func (s *Service) Forecast(crop, location string) Result {
	cropKey := s.cat.ResolveCrop(crop)
	state := s.cat.ResolveState(location)
	now := s.Today()
	yearOffset := now.Year() - refdata.BaseYear
	rng := s.newRand(cropKey, location, now)

	prices := make([]int, Days)
	for day := 0; day < Days; day++ {
		month := int(now.AddDate(0, 0, day).Month())
		base := s.Predict(cropKey, state, month, yearOffset, rng)
		wave := 1 + dailyWaveAmplitude*math.Sin(dailyWaveFrequency*float64(day)) +
			dailyNoiseStd*clamp(rng.NormFloat64(), -noiseClampSigma, noiseClampSigma)
		prices[day] = int(math.RoundToEven(base * wave))
	}

	start, end := prices[0], prices[Days-1]
	if start <= 0 {
		panic(fmt.Sprintf("forecast: non-positive start price %d for %s/%s", start, cropKey, state))
	}
	pct := roundTo(float64(end-start)/float64(start)*100, 1)

	confidence := confidenceFormula
	if s.model != nil {
		confidence = confidenceModel
	}
	if volatileCrops[cropKey] {
		confidence -= volatilityPenalty
	}

	return Result{
		PredictedPrices: prices,
		StartPrice:      start,
		EndPrice:        end,
		PctChange:       pct,
		Trend:           Trend(pct),
		ConfidenceScore: roundTo(confidence, 2),
		Crop:            crop,
		CropKey:         cropKey,
		Location:        location,
		State:           state,
		Unit:            s.cat.Crop(cropKey).Unit,
	}
}

// Trend classifies a percent change.
func Trend(pct float64) string {
	switch {
	case pct > trendThresholdPct:
		return TrendUpward
	case pct < -trendThresholdPct:
		return TrendDownward
	default:
		return TrendStable
	}
}

func (s *Service) newRand(cropKey, location string, now time.Time) *rand.Rand {
	if s.noise == NoiseHashed {
		h := fnv.New64a()
		h.Write([]byte(cropKey))
		h.Write([]byte{0})
		h.Write([]byte(strings.ToLower(strings.TrimSpace(location))))
		h.Write([]byte{0})
		h.Write([]byte(now.Format(time.DateOnly)))
		seed := h.Sum64()
		return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
