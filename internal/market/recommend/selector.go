// internal/market/recommend/selector.go
package recommend

import (
	"cmp"
	"math"
	"slices"

	"cropsense-workers/internal/market/refdata"
)

const (
	earthRadiusKm = 6371.0

	MaxViableDistanceKm = 600.0
	MaxCandidates       = 15
	FallbackDistanceKm  = 50.0

	// used only when the home state has no markets of its own
	fallbackPerStateLimit = 5
)

// Candidate is a market with its travel distance from the query location.
type Candidate struct {
	refdata.MarketLocation
	DistanceKm float64 `json:"distance_km"`
}

// Haversine returns the great-circle distance in km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

type Selector struct {
	cat *refdata.Catalog
}

func NewSelector(cat *refdata.Catalog) *Selector {
	return &Selector{cat: cat}
}

// Select returns the nearest markets within the viable radius, closest
// first. When none qualify it returns the home state's markets at an assumed
// distance and reports fallback. The result is never empty.
func (s *Selector) Select(lat, lon float64, homeState string) (candidates []Candidate, fallback bool) {
	seen := make(map[string]bool)
	for _, mk := range s.cat.AllMarkets() {
		if seen[mk.Name] {
			continue
		}
		d := Haversine(lat, lon, mk.Lat, mk.Lon)
		if d > MaxViableDistanceKm {
			continue
		}
		seen[mk.Name] = true
		candidates = append(candidates, Candidate{MarketLocation: mk, DistanceKm: roundTo(d, 1)})
	}

	if len(candidates) > 0 {
		slices.SortStableFunc(candidates, func(a, b Candidate) int {
			return cmp.Compare(a.DistanceKm, b.DistanceKm)
		})
		if len(candidates) > MaxCandidates {
			candidates = candidates[:MaxCandidates]
		}
		return candidates, false
	}

	return s.fallback(homeState), true
}

func (s *Selector) fallback(homeState string) []Candidate {
	markets := s.cat.Markets(homeState)
	if len(markets) == 0 {
		for _, state := range s.cat.States() {
			markets = append(markets, s.cat.Markets(state)[0])
			if len(markets) == fallbackPerStateLimit {
				break
			}
		}
	}
	out := make([]Candidate, len(markets))
	for i, mk := range markets {
		out[i] = Candidate{MarketLocation: mk, DistanceKm: FallbackDistanceKm}
	}
	return out
}

func roundTo(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.RoundToEven(x*p) / p
}
