package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

func makePrice(commodity, market, state string, modal float64, day int) model.MarketPrice {
	return model.MarketPrice{
		Commodity:   commodity,
		Variety:     "Local",
		State:       state,
		District:    "Pune",
		Market:      market,
		MinPrice:    modal - 200,
		MaxPrice:    modal + 200,
		ModalPrice:  modal,
		ArrivalDate: time.Date(2026, 10, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestMarketPriceRepo_UpsertAndLatest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMarketPriceRepo(db)
	ctx := context.Background()

	err := repo.Upsert(ctx, []model.MarketPrice{
		makePrice("Onion", "Lasalgaon", "Maharashtra", 1800, 14),
		makePrice("Onion", "Lasalgaon", "Maharashtra", 2100, 15),
		makePrice("Onion", "Pimpalgaon", "Maharashtra", 2300, 15),
		makePrice("Onion", "Indore", "Madhya Pradesh", 1900, 15),
		makePrice("Wheat", "Indore", "Madhya Pradesh", 2500, 15),
	})
	require.NoError(t, err)

	latest, err := repo.Latest(ctx, "onion", "")
	require.NoError(t, err)
	require.Len(t, latest, 3, "only quotes from the latest arrival date")
	assert.Equal(t, "Pimpalgaon", latest[0].Market, "ordered by modal price descending")
	assert.Equal(t, 2300.0, latest[0].ModalPrice)
	assert.Equal(t, 15, latest[0].ArrivalDate.Day())

	filtered, err := repo.Latest(ctx, "Onion", "maharashtra")
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}

func TestMarketPriceRepo_UpsertReplacesQuote(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMarketPriceRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, []model.MarketPrice{makePrice("Onion", "Lasalgaon", "Maharashtra", 1800, 15)}))
	require.NoError(t, repo.Upsert(ctx, []model.MarketPrice{makePrice("Onion", "Lasalgaon", "Maharashtra", 2000, 15)}))

	latest, err := repo.Latest(ctx, "Onion", "")
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 2000.0, latest[0].ModalPrice)
}

func TestMarketPriceRepo_LatestEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMarketPriceRepo(db)

	latest, err := repo.Latest(context.Background(), "Saffron", "")
	require.NoError(t, err)
	assert.Empty(t, latest)
}

func TestMarketPriceRepo_Lookups(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMarketPriceRepo(db)
	ctx := context.Background()

	t1 := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Hour)
	require.NoError(t, repo.TouchLookup(ctx, "Onion", t1))
	require.NoError(t, repo.TouchLookup(ctx, "Onion", t2))
	require.NoError(t, repo.TouchLookup(ctx, "Wheat", t1))

	lookups, err := repo.LastLookups(ctx)
	require.NoError(t, err)
	assert.Len(t, lookups, 2)
	assert.Equal(t, t2, lookups["Onion"])
	assert.Equal(t, t1, lookups["Wheat"])
}
