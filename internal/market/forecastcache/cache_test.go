package forecastcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsense-workers/internal/common/logger"
	"cropsense-workers/internal/market/forecast"
	"cropsense-workers/internal/market/refdata"
)

var fixedNow = time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC)

func setup(t *testing.T) (*miniredis.Miniredis, *Store, *forecast.Service) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := forecast.DefaultConfig()
	cfg.ModelEnabled = false
	svc := forecast.NewService(refdata.NewCatalog(), cfg, logger.NewNoOpLogger(),
		forecast.WithClock(func() time.Time { return fixedNow }))

	return mr, NewStore(client, time.Hour), svc
}

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		cropKey  string
		state    string
		location string
		want     string
	}{
		{"simple", "wheat", "punjab", "Ludhiana", "forecast:wheat:punjab:ludhiana:2025-03-03"},
		{"spaces collapsed", "onion", "maharashtra", "  Nashik   Road ", "forecast:onion:maharashtra:nashik_road:2025-03-03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.cropKey, tt.state, tt.location, fixedNow))
		})
	}
}

func TestStore_GetSet(t *testing.T) {
	mr, store, _ := setup(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "forecast:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	in := forecast.Result{PredictedPrices: []int{2000, 2010}, StartPrice: 2000, EndPrice: 2010, Trend: forecast.TrendUpward}
	require.NoError(t, store.Set(ctx, "forecast:k", in))

	out, ok, err := store.Get(ctx, "forecast:k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in, out)
	assert.Equal(t, time.Hour, mr.TTL("forecast:k"))
}

func TestStore_CorruptEntry(t *testing.T) {
	mr, store, _ := setup(t)
	require.NoError(t, mr.Set("forecast:bad", "{not json"))

	_, ok, err := store.Get(context.Background(), "forecast:bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestForecaster_MissThenHit(t *testing.T) {
	mr, store, svc := setup(t)
	f := NewForecaster(svc, store, logger.NewTestLogger(t))
	ctx := context.Background()

	first, cached := f.Forecast(ctx, "Wheat", "Ludhiana")
	assert.False(t, cached)
	assert.True(t, mr.Exists("forecast:wheat:punjab:ludhiana:2025-03-03"))

	second, cached := f.Forecast(ctx, "wheat", "Ludhiana")
	assert.True(t, cached)
	assert.Equal(t, first.PredictedPrices, second.PredictedPrices)
	assert.Equal(t, "wheat", second.Crop)
}

func TestForecaster_HitEchoesRequestSpelling(t *testing.T) {
	_, store, svc := setup(t)
	f := NewForecaster(svc, store, logger.NewNoOpLogger())
	ctx := context.Background()

	first, cached := f.Forecast(ctx, "Wheat", "Ludhiana")
	require.False(t, cached)
	assert.Equal(t, "Ludhiana", first.Location)

	second, cached := f.Forecast(ctx, "WHEAT", "  LUDHIANA ")
	require.True(t, cached)
	assert.Equal(t, "WHEAT", second.Crop)
	assert.Equal(t, "  LUDHIANA ", second.Location)
	assert.Equal(t, first.PredictedPrices, second.PredictedPrices)
}

func TestForecaster_RedisDown(t *testing.T) {
	mr, store, svc := setup(t)
	mr.Close()

	f := NewForecaster(svc, store, logger.NewNoOpLogger())
	res, cached := f.Forecast(context.Background(), "rice", "Cuttack")
	assert.False(t, cached)
	assert.Len(t, res.PredictedPrices, forecast.Days)
}

func TestForecaster_NilStore(t *testing.T) {
	_, _, svc := setup(t)
	f := NewForecaster(svc, nil, logger.NewNoOpLogger())

	res, cached := f.Forecast(context.Background(), "cotton", "Rajkot")
	assert.False(t, cached)
	assert.Equal(t, "cotton", res.CropKey)
}
