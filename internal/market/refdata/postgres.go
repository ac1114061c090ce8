// internal/market/refdata/postgres.go
package refdata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const marketsQuery = `SELECT state, name, latitude, longitude, tier FROM mandis ORDER BY state, name`

// Querier is the subset of *sql.DB used by LoadMarkets.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// LoadMarkets reads market overrides from the mandis table. The result is
// meant for WithMarkets. State names are lower-cased; tiers outside 1-3 are
// rejected.
func LoadMarkets(ctx context.Context, db Querier) ([]MarketLocation, error) {
	rows, err := db.QueryContext(ctx, marketsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query mandis: %w", err)
	}
	defer rows.Close()

	var out []MarketLocation
	for rows.Next() {
		var mk MarketLocation
		if err := rows.Scan(&mk.State, &mk.Name, &mk.Lat, &mk.Lon, &mk.Tier); err != nil {
			return nil, fmt.Errorf("failed to scan mandi row: %w", err)
		}
		if mk.Tier < 1 || mk.Tier > 3 {
			return nil, fmt.Errorf("mandi %q has invalid tier %d", mk.Name, mk.Tier)
		}
		mk.State = normalize(mk.State)
		mk.Name = strings.TrimSpace(mk.Name)
		out = append(out, mk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mandis: %w", err)
	}
	return out, nil
}
