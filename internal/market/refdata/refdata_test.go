package refdata

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCrop(t *testing.T) {
	c := Default()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"exact key", "wheat", "wheat"},
		{"case and whitespace", "  Onion ", "onion"},
		{"substring", "basmati rice", "rice"},
		{"longest substring wins", "paddy rice", "paddy"},
		{"unknown crop", "dragonfruit", DefaultCropKey},
		{"empty", "", DefaultCropKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ResolveCrop(tt.input))
		})
	}
}

func TestResolveState(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		location string
		want     string
	}{
		{"state name", "Somewhere in Uttar Pradesh", "uttar pradesh"},
		{"longest state name", "west bengal", "west bengal"},
		{"city table", "Ludhiana", "punjab"},
		{"city beats shorter city", "Ludhiana Grain Mandi", "punjab"},
		{"city with suffix", "Nashik, MH", "maharashtra"},
		{"first token inside city", "Visakha, AP", "andhra pradesh"},
		{"unknown", "Atlantis", DefaultState},
		{"empty", "", DefaultState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ResolveState(tt.location))
		})
	}
}

func TestResolveState_PassOrder(t *testing.T) {
	c := Default()

	// "pune" is a city, but the explicit state name takes precedence.
	assert.Equal(t, "karnataka", c.ResolveState("pune karnataka"))

	s, ok := c.matchStateName("gurugram")
	assert.False(t, ok)
	assert.Empty(t, s)

	s, ok = c.matchCityState("gurugram")
	assert.True(t, ok)
	assert.Equal(t, "haryana", s)

	s, ok = c.matchStateFirstToken("ab, punjab")
	assert.False(t, ok, "tokens shorter than three characters are ignored")
	assert.Empty(t, s)
}

func TestResolveLocation(t *testing.T) {
	c := Default()

	tests := []struct {
		name      string
		location  string
		wantLabel string
		wantLat   float64
	}{
		{"known city", "Ludhiana", "Ludhiana", 30.9010},
		{"longest city", "New Delhi", "New Delhi", 28.6139},
		{"prefix heuristic", "Coimbt, TN", "Coimbatore", 11.0168},
		{"unknown", "Atlantis", DefaultLabel, DefaultLat},
		{"empty", "", DefaultLabel, DefaultLat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := c.ResolveLocation(tt.location)
			assert.Equal(t, tt.wantLabel, loc.Label)
			assert.InDelta(t, tt.wantLat, loc.Lat, 1e-9)
		})
	}
}

func TestCatalog_Lookups(t *testing.T) {
	c := Default()

	wheat := c.Crop("wheat")
	assert.Equal(t, 2275.0, wheat.Base)
	assert.Equal(t, "quintal", wheat.Unit)

	unknown := c.Crop("dragonfruit")
	assert.Equal(t, DefaultCropKey, unknown.Key)

	// crops without a curve share the default one
	assert.Equal(t, c.Crop(DefaultCropKey).Seasonal, c.Crop("turmeric").Seasonal)

	assert.Equal(t, 1.18, c.SeasonalMultiplier("wheat", 1))
	assert.Equal(t, 1.15, c.SeasonalMultiplier("wheat", 12))
	assert.Equal(t, 1.18, c.SeasonalMultiplier("wheat", 13))

	assert.Equal(t, 1.05, c.StateFactor("punjab"))
	assert.Equal(t, 1.0, c.StateFactor("atlantis"))

	assert.Equal(t, "punjab", c.States()[0])
	assert.Len(t, c.States(), 20)
	assert.Equal(t, "Ludhiana Grain Mandi", c.Markets("punjab")[0].Name)
	assert.Equal(t, "punjab", c.Markets("punjab")[0].State)
}

func TestCatalog_MarketNamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, mk := range Default().AllMarkets() {
		assert.False(t, seen[mk.Name], "duplicate market %s", mk.Name)
		seen[mk.Name] = true
		assert.GreaterOrEqual(t, mk.Tier, 1)
		assert.LessOrEqual(t, mk.Tier, 3)
	}
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := NewCatalog()
	list := c.Markets("punjab")
	list[0].Name = "mutated"
	assert.Equal(t, "Ludhiana Grain Mandi", c.Markets("punjab")[0].Name)
}

func TestWithMarkets(t *testing.T) {
	c := NewCatalog(WithMarkets([]MarketLocation{
		{Name: "Ludhiana Grain Mandi", State: "punjab", Lat: 30.9, Lon: 75.85, Tier: 2},
		{Name: "Panaji Mandi", State: "goa", Lat: 15.4909, Lon: 73.8278, Tier: 3},
		{Name: "", State: "goa"},
	}))

	states := c.States()
	assert.Equal(t, "goa", states[len(states)-1])
	assert.Len(t, c.Markets("goa"), 1)

	var ludhiana []MarketLocation
	for _, mk := range c.AllMarkets() {
		if mk.Name == "Ludhiana Grain Mandi" {
			ludhiana = append(ludhiana, mk)
		}
	}
	require.Len(t, ludhiana, 1)
	assert.Equal(t, 2, ludhiana[0].Tier)

	// the built-in catalog is untouched
	assert.Equal(t, 1, Default().Markets("punjab")[0].Tier)
}

func TestTitleState(t *testing.T) {
	assert.Equal(t, "Uttar Pradesh", TitleState("uttar pradesh"))
	assert.Equal(t, "Punjab", TitleState("punjab"))
}

func TestLoadMarkets(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"state", "name", "latitude", "longitude", "tier"}).
		AddRow("Goa", "Panaji Mandi ", 15.4909, 73.8278, 3).
		AddRow("punjab", "Batala Mandi", 31.8150, 75.2002, 1)
	mock.ExpectQuery(`SELECT state, name, latitude, longitude, tier FROM mandis ORDER BY state, name`).
		WillReturnRows(rows)

	markets, err := LoadMarkets(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "goa", markets[0].State)
	assert.Equal(t, "Panaji Mandi", markets[0].Name)
	assert.Equal(t, 1, markets[1].Tier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMarkets_Errors(t *testing.T) {
	t.Run("query error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT state, name`).WillReturnError(errors.New("connection refused"))

		_, err = LoadMarkets(context.Background(), db)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("invalid tier", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows([]string{"state", "name", "latitude", "longitude", "tier"}).
			AddRow("goa", "Panaji Mandi", 15.4909, 73.8278, 7)
		mock.ExpectQuery(`SELECT state, name`).WillReturnRows(rows)

		_, err = LoadMarkets(context.Background(), db)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid tier")
	})
}
