// internal/market/refdata/catalog.go
package refdata

import (
	"slices"
	"sync"
)

const (
	DefaultCropKey = "default"
	DefaultState   = "madhya pradesh"
	DefaultLabel   = "Central India"

	// Bhopal, roughly the centroid of the mandi network.
	DefaultLat = 23.2599
	DefaultLon = 77.4126

	// BaseYear is the first year of the synthetic price history.
	BaseYear = 2022
)

// CropReference is the price band and seasonal curve of one crop.
type CropReference struct {
	Key      string
	Base     float64
	Min      float64
	Max      float64
	Seasonal [12]float64
	Unit     string
}

// MarketLocation is a mandi with its coordinates and liquidity tier
// (1 = highest volume, 3 = lowest).
type MarketLocation struct {
	Name  string  `json:"name"`
	State string  `json:"state"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Tier  int     `json:"tier"`
}

// Location is a resolved free-text location.
type Location struct {
	Lat   float64
	Lon   float64
	Label string
}

// Catalog holds the immutable lookup tables. All methods are safe for
// concurrent use; returned slices are copies.
type Catalog struct {
	crops      []CropReference
	cropIndex  map[string]int
	states     []string
	stateIndex map[string]int
	markets    map[string][]MarketLocation
	all        []MarketLocation
	cityStates []cityState
	cityCoords []cityCoord
}

// Option customises a catalog at construction time.
type Option func(*catalogBuilder)

type catalogBuilder struct {
	markets []stateMarkets
}

// WithMarkets merges extra markets into the built-in table. A market whose
// name already exists replaces the built-in record; new states are appended
// after the built-in ones.
func WithMarkets(extra []MarketLocation) Option {
	return func(b *catalogBuilder) {
		for _, mk := range extra {
			if mk.Name == "" || mk.State == "" {
				continue
			}
			b.remove(mk.Name)
			b.add(mk)
		}
	}
}

func (b *catalogBuilder) remove(name string) {
	for i := range b.markets {
		b.markets[i].markets = slices.DeleteFunc(b.markets[i].markets, func(x MarketLocation) bool {
			return x.Name == name
		})
	}
}

func (b *catalogBuilder) add(mk MarketLocation) {
	for i := range b.markets {
		if b.markets[i].state == mk.State {
			b.markets[i].markets = append(b.markets[i].markets, mk)
			return
		}
	}
	b.markets = append(b.markets, stateMarkets{state: mk.State, markets: []MarketLocation{mk}})
}

var defaultCatalog = sync.OnceValue(func() *Catalog { return NewCatalog() })

// Default returns the process-wide built-in catalog.
func Default() *Catalog {
	return defaultCatalog()
}

// NewCatalog builds a catalog from the built-in India tables.
func NewCatalog(opts ...Option) *Catalog {
	b := &catalogBuilder{markets: make([]stateMarkets, len(indiaMarkets))}
	for i, sm := range indiaMarkets {
		b.markets[i] = stateMarkets{state: sm.state, markets: slices.Clone(sm.markets)}
	}
	for _, opt := range opts {
		opt(b)
	}

	c := &Catalog{
		cropIndex:  make(map[string]int, len(cropBands)),
		stateIndex: make(map[string]int, len(b.markets)),
		markets:    make(map[string][]MarketLocation, len(b.markets)),
		cityStates: cityStateTable,
		cityCoords: cityCoordTable,
	}

	for i, band := range cropBands {
		curve, ok := seasonalCurves[band.key]
		if !ok {
			curve = seasonalCurves[DefaultCropKey]
		}
		c.crops = append(c.crops, CropReference{
			Key:      band.key,
			Base:     band.base,
			Min:      band.min,
			Max:      band.max,
			Seasonal: curve,
			Unit:     band.unit,
		})
		c.cropIndex[band.key] = i
	}

	for _, sm := range b.markets {
		if len(sm.markets) == 0 {
			continue
		}
		c.stateIndex[sm.state] = len(c.states)
		c.states = append(c.states, sm.state)
		list := make([]MarketLocation, len(sm.markets))
		for i, mk := range sm.markets {
			mk.State = sm.state
			list[i] = mk
		}
		c.markets[sm.state] = list
		c.all = append(c.all, list...)
	}
	return c
}

// Crop returns the reference for key, or the default band when unknown.
func (c *Catalog) Crop(key string) CropReference {
	if i, ok := c.cropIndex[key]; ok {
		return c.crops[i]
	}
	return c.crops[c.cropIndex[DefaultCropKey]]
}

// HasCrop reports whether key is a known crop (including "default").
func (c *Catalog) HasCrop(key string) bool {
	_, ok := c.cropIndex[key]
	return ok
}

// CropKeys lists crop keys in table order.
func (c *Catalog) CropKeys() []string {
	keys := make([]string, len(c.crops))
	for i, cr := range c.crops {
		keys[i] = cr.Key
	}
	return keys
}

// States lists states that have at least one market, in table order.
func (c *Catalog) States() []string {
	return slices.Clone(c.states)
}

// StateFactor returns the state's price factor, 1.0 for unknown states.
func (c *Catalog) StateFactor(state string) float64 {
	if f, ok := stateFactors[state]; ok {
		return f
	}
	return 1.0
}

// SeasonalMultiplier returns the multiplier for month (1-12). Crops without
// their own curve use the default curve.
func (c *Catalog) SeasonalMultiplier(cropKey string, month int) float64 {
	if month < 1 || month > 12 {
		month = ((month-1)%12+12)%12 + 1
	}
	return c.Crop(cropKey).Seasonal[month-1]
}

// Markets returns the markets of one state.
func (c *Catalog) Markets(state string) []MarketLocation {
	return slices.Clone(c.markets[state])
}

// AllMarkets returns every market, grouped by state in table order.
func (c *Catalog) AllMarkets() []MarketLocation {
	return slices.Clone(c.all)
}
