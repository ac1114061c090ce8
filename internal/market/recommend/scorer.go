// internal/market/recommend/scorer.go
package recommend

import (
	"math"

	"github.com/sourcegraph/conc/iter"

	"cropsense-workers/internal/market/refdata"
)

const (
	transportCostPerKm = 2.5
	productionCostRate = 0.7

	weightPrice    = 0.50
	weightDistance = 0.25
	weightDemand   = 0.25

	defaultDemand = 70
)

var (
	tierPremium = map[int]float64{1: 1.04, 2: 1.00, 3: 0.96}
	tierDemand  = map[int]int{1: 95, 2: 78, 3: 60}
)

// Score is a candidate priced and ranked against a base price. Money values
// are per quintal.
type Score struct {
	Candidate
	MandiPrice      int     `json:"mandi_price"`
	TransportCost   int     `json:"transport_cost"`
	NetPrice        int     `json:"net_price"`
	DemandScore     int     `json:"demand_score"`
	CompositeScore  float64 `json:"composite_score"`
	EstimatedProfit int     `json:"estimated_profit"`
}

type Scorer struct {
	cat *refdata.Catalog
}

func NewScorer(cat *refdata.Catalog) *Scorer {
	return &Scorer{cat: cat}
}

// Score prices one candidate. basePrice must be positive.
func (s *Scorer) Score(c Candidate, cropKey string, basePrice float64, month int) Score {
	premium, ok := tierPremium[c.Tier]
	if !ok {
		premium = 1.0
	}
	mandiPrice := math.RoundToEven(basePrice *
		s.cat.StateFactor(c.State) *
		premium *
		s.cat.SeasonalMultiplier(cropKey, month))
	transport := math.RoundToEven(c.DistanceKm * transportCostPerKm)
	net := mandiPrice - transport

	demand, ok := tierDemand[c.Tier]
	if !ok {
		demand = defaultDemand
	}

	composite := weightPrice*(mandiPrice/basePrice*100) +
		weightDistance*(1-c.DistanceKm/MaxViableDistanceKm)*100 +
		weightDemand*float64(demand)

	return Score{
		Candidate:       c,
		MandiPrice:      int(mandiPrice),
		TransportCost:   int(transport),
		NetPrice:        int(net),
		DemandScore:     demand,
		CompositeScore:  roundTo(composite, 1),
		EstimatedProfit: int(math.RoundToEven(net - basePrice*productionCostRate)),
	}
}

// ScoreAll scores candidates concurrently. The output keeps input order.
func (s *Scorer) ScoreAll(candidates []Candidate, cropKey string, basePrice float64, month int) []Score {
	return iter.Map(candidates, func(c *Candidate) Score {
		return s.Score(*c, cropKey, basePrice, month)
	})
}
