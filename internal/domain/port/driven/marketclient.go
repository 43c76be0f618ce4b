package driven

import (
	"context"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

// MarketClient defines the driven port for the live mandi price API.
type MarketClient interface {
	// FetchPrices returns current quotes for a commodity, optionally filtered by state.
	FetchPrices(ctx context.Context, commodity, state string, limit int) ([]model.MarketPrice, error)
}
