package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

// MarketPriceStore defines the driven port for stored mandi price snapshots
// and commodity lookup demand.
type MarketPriceStore interface {
	// Upsert stores price quotes, replacing any quote for the same commodity,
	// market, variety and arrival date.
	Upsert(ctx context.Context, prices []model.MarketPrice) error
	// Latest returns quotes for the commodity (case-insensitive) from its most
	// recent arrival date, optionally filtered by state (empty means all).
	Latest(ctx context.Context, commodity, state string) ([]model.MarketPrice, error)
	// TouchLookup records that the commodity was looked up at the given time.
	TouchLookup(ctx context.Context, commodity string, at time.Time) error
	// LastLookups returns the most recent lookup time per commodity.
	LastLookups(ctx context.Context) (map[string]time.Time, error)
}
