// internal/market/recommend/engine.go
package recommend

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"cropsense-workers/internal/common/logger"
	"cropsense-workers/internal/market/forecast"
	"cropsense-workers/internal/market/refdata"
)

const (
	confidenceFloor   = 0.70
	confidenceCeiling = 0.97
	confidenceSpan    = 0.27

	nearbyKm       = 100.0
	strongDemand   = 85
	topMandisCount = 3
)

var ErrUnsupportedCrop = errors.New("unsupported crop")

// Forecaster supplies the baseline price series.
type Forecaster interface {
	Forecast(crop, location string) forecast.Result
}

// TopMandi is one row of the ranked shortlist.
type TopMandi struct {
	Name          string  `json:"name"`
	State         string  `json:"state"`
	DistanceKm    float64 `json:"distance_km"`
	Price         int     `json:"price"`
	NetPrice      int     `json:"net_price"`
	Score         float64 `json:"score"`
	TransportCost int     `json:"transport_cost"`
	Tier          int     `json:"tier"`
}

// Result is the recommendation returned to callers.
type Result struct {
	RecommendationID    string     `json:"recommendation_id"`
	BestMandi           string     `json:"best_mandi"`
	BestMandiState      string     `json:"best_mandi_state"`
	DistanceKm          float64    `json:"distance_km"`
	PredictedPrice      int        `json:"predicted_price"`
	NetPrice            int        `json:"net_price"`
	TransportCost       int        `json:"transport_cost"`
	ExpectedProfitPerQt int        `json:"expected_profit_per_qt"`
	Confidence          float64    `json:"confidence"`
	ConfidencePct       int        `json:"confidence_pct"`
	Explanation         string     `json:"explanation"`
	TopMandis           []TopMandi `json:"top_mandis"`
	Crop                string     `json:"crop"`
	CropKey             string     `json:"crop_key"`
	Location            string     `json:"location"`
	State               string     `json:"state"`
	GeneratedAt         time.Time  `json:"generated_at"`

	// Ranked is the full scored candidate list, best first.
	Ranked []Score `json:"-"`
	// Fallback is set when no market lay within the viable radius.
	Fallback bool `json:"-"`
}

type Engine struct {
	cat           *refdata.Catalog
	forecaster    Forecaster
	selector      *Selector
	scorer        *Scorer
	now           func() time.Time
	rejectUnknown bool
	log           logger.Logger
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithUnknownCropRejection makes Recommend fail with ErrUnsupportedCrop for
// crops that resolve to the default band instead of pricing them generically.
func WithUnknownCropRejection(reject bool) Option {
	return func(e *Engine) { e.rejectUnknown = reject }
}

func NewEngine(cat *refdata.Catalog, fc Forecaster, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		cat:        cat,
		forecaster: fc,
		selector:   NewSelector(cat),
		scorer:     NewScorer(cat),
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend forecasts the base price and ranks candidate markets.
func (e *Engine) Recommend(crop, location string) (*Result, error) {
	if err := e.checkCrop(crop); err != nil {
		return nil, err
	}
	return e.rank(crop, location, e.forecaster.Forecast(crop, location))
}

// RecommendFrom ranks markets against an already computed forecast.
func (e *Engine) RecommendFrom(crop, location string, fc forecast.Result) (*Result, error) {
	if err := e.checkCrop(crop); err != nil {
		return nil, err
	}
	return e.rank(crop, location, fc)
}

func (e *Engine) checkCrop(crop string) error {
	if !e.rejectUnknown {
		return nil
	}
	n := strings.ToLower(strings.TrimSpace(crop))
	if e.cat.ResolveCrop(crop) == refdata.DefaultCropKey && n != refdata.DefaultCropKey {
		return fmt.Errorf("%w: %q", ErrUnsupportedCrop, crop)
	}
	return nil
}

func (e *Engine) rank(crop, location string, fc forecast.Result) (*Result, error) {
	if fc.StartPrice <= 0 {
		return nil, fmt.Errorf("invalid base price %d for %s", fc.StartPrice, crop)
	}
	cropKey := e.cat.ResolveCrop(crop)
	state := e.cat.ResolveState(location)
	loc := e.cat.ResolveLocation(location)
	now := e.now().UTC()
	month := int(now.Month())
	base := float64(fc.StartPrice)

	candidates, fallback := e.selector.Select(loc.Lat, loc.Lon, state)
	if fallback {
		e.log.Warn("no markets within viable distance, using home state", map[string]interface{}{
			"location": location,
			"state":    state,
		})
	}

	scored := Rank(e.scorer.ScoreAll(candidates, cropKey, base, month))

	best := scored[0]
	confidence := roundTo(math.Min(confidenceCeiling, confidenceFloor+best.CompositeScore/100*confidenceSpan), 2)

	top := scored[:min(topMandisCount, len(scored))]
	topMandis := make([]TopMandi, len(top))
	for i, sc := range top {
		topMandis[i] = TopMandi{
			Name:          sc.Name,
			State:         refdata.TitleState(sc.State),
			DistanceKm:    sc.DistanceKm,
			Price:         sc.MandiPrice,
			NetPrice:      sc.NetPrice,
			Score:         sc.CompositeScore,
			TransportCost: sc.TransportCost,
			Tier:          sc.Tier,
		}
	}

	e.log.Debug("ranked markets", map[string]interface{}{
		"cropKey":    cropKey,
		"state":      state,
		"candidates": len(scored),
		"best":       best.Name,
	})

	return &Result{
		RecommendationID:    uuid.NewString(),
		BestMandi:           best.Name,
		BestMandiState:      refdata.TitleState(best.State),
		DistanceKm:          best.DistanceKm,
		PredictedPrice:      best.MandiPrice,
		NetPrice:            best.NetPrice,
		TransportCost:       best.TransportCost,
		ExpectedProfitPerQt: best.EstimatedProfit,
		Confidence:          confidence,
		ConfidencePct:       int(math.RoundToEven(confidence * 100)),
		Explanation:         Explain(best, base),
		TopMandis:           topMandis,
		Crop:                crop,
		CropKey:             cropKey,
		Location:            loc.Label,
		State:               state,
		GeneratedAt:         now,
		Ranked:              scored,
		Fallback:            fallback,
	}, nil
}

// Rank sorts scores best first in place. Equal scores keep their input order.
func Rank(scored []Score) []Score {
	slices.SortStableFunc(scored, func(a, b Score) int {
		return cmp.Compare(b.CompositeScore, a.CompositeScore)
	})
	return scored
}

// Explain builds the justification for the chosen market.
func Explain(best Score, basePrice float64) string {
	var parts []string
	if best.DistanceKm < nearbyKm {
		parts = append(parts, fmt.Sprintf("Only %.1f km away with low transport cost.", best.DistanceKm))
	}
	if best.Tier == 1 {
		parts = append(parts, "Grade-A mandi with high liquidity and daily auctions.")
	}
	if float64(best.MandiPrice) > basePrice {
		premium := roundTo((float64(best.MandiPrice)/basePrice-1)*100, 1)
		parts = append(parts, fmt.Sprintf("%.1f%% above your local base price.", premium))
	}
	if best.DemandScore > strongDemand {
		parts = append(parts, "Strong buyer demand drives competitive bidding.")
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Best net price after ₹%d/qt transport.", best.TransportCost)
	}
	return strings.Join(parts, " ")
}
