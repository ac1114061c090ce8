// internal/market/forecast/model.go
package forecast

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"cropsense-workers/internal/market/refdata"
)

const (
	trainingYears    = 3
	yearlyDrift      = 0.05
	trainingNoiseStd = 0.04
	fallbackNoiseStd = 0.02
	// Clamp on the fallback noise draw, in standard deviations, so the
	// estimate stays strictly positive.
	noiseClampSigma = 4
)

// TrainingMetrics describes the fit of the model on its own corpus.
type TrainingMetrics struct {
	Samples  int
	RSquared float64
	RMSE     float64
}

// Model is a fitted price model. Safe for concurrent use.
type Model struct {
	cat      *refdata.Catalog
	ens      *ensemble
	cropIdx  map[string]int
	stateIdx map[string]int
	metrics  TrainingMetrics
}

type corpus struct {
	x        [][]float64
	y        []float64
	cropIdx  map[string]int
	stateIdx map[string]int
}

// buildCorpus generates crop x state x year x month samples. The noise source
// is seeded so the corpus, and therefore the fit, is reproducible.
func buildCorpus(cat *refdata.Catalog, seed uint64) corpus {
	crops := cat.CropKeys()
	states := cat.States()
	rng := rand.New(rand.NewPCG(seed, seed))

	c := corpus{
		cropIdx:  make(map[string]int, len(crops)),
		stateIdx: make(map[string]int, len(states)),
	}
	for i, s := range states {
		c.stateIdx[s] = i
	}

	for ci, crop := range crops {
		c.cropIdx[crop] = ci
		base := cat.Crop(crop).Base
		for si, state := range states {
			sf := cat.StateFactor(state)
			for yo := 0; yo < trainingYears; yo++ {
				yf := 1 + yearlyDrift*float64(yo)
				for month := 1; month <= 12; month++ {
					seasonal := cat.SeasonalMultiplier(crop, month)
					noise := 1 + trainingNoiseStd*rng.NormFloat64()
					price := base * sf * yf * seasonal * noise
					c.x = append(c.x, []float64{float64(ci), float64(si), float64(month), float64(yo), seasonal})
					c.y = append(c.y, roundTo(price, 2))
				}
			}
		}
	}
	return c
}

// Train fits a model over the synthetic corpus of cat.
func Train(cat *refdata.Catalog, p BoostingParams) (*Model, error) {
	c := buildCorpus(cat, p.Seed)
	ens, err := fitEnsemble(c.x, c.y, p)
	if err != nil {
		return nil, fmt.Errorf("fit price model: %w", err)
	}

	fitted := make([]float64, len(c.y))
	for i, row := range c.x {
		fitted[i] = ens.predict(row)
	}
	metrics := TrainingMetrics{
		Samples:  len(c.y),
		RSquared: stat.RSquaredFrom(fitted, c.y, nil),
		RMSE:     floats.Distance(fitted, c.y, 2) / math.Sqrt(float64(len(c.y))),
	}

	return &Model{
		cat:      cat,
		ens:      ens,
		cropIdx:  c.cropIdx,
		stateIdx: c.stateIdx,
		metrics:  metrics,
	}, nil
}

// Metrics returns the in-sample fit statistics.
func (m *Model) Metrics() TrainingMetrics {
	return m.metrics
}

// Estimate returns the model price, or false when crop or state were not in
// the training vocabulary.
func (m *Model) Estimate(cropKey, state string, month, yearOffset int) (float64, bool) {
	ci, ok := m.cropIdx[cropKey]
	if !ok {
		return 0, false
	}
	si, ok := m.stateIdx[state]
	if !ok {
		return 0, false
	}
	seasonal := m.cat.SeasonalMultiplier(cropKey, month)
	return m.ens.predict([]float64{float64(ci), float64(si), float64(month), float64(yearOffset), seasonal}), true
}

// fallbackPrice is the closed-form estimate used when no model applies.
func fallbackPrice(cat *refdata.Catalog, cropKey, state string, month, yearOffset int, rng *rand.Rand) float64 {
	base := cat.Crop(cropKey).Base
	noise := clamp(rng.NormFloat64(), -noiseClampSigma, noiseClampSigma) * fallbackNoiseStd
	return base *
		cat.StateFactor(state) *
		cat.SeasonalMultiplier(cropKey, month) *
		(1 + yearlyDrift*float64(yearOffset)) *
		(1 + noise)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// roundTo rounds half to even, matching the usual reporting convention.
func roundTo(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.RoundToEven(x*p) / p
}
