package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// Errors returned by MarketService.
var (
	// ErrNoPrices is returned when neither the live API nor stored snapshots
	// have quotes for the commodity.
	ErrNoPrices = errors.New("no market prices available")

	// ErrInvalidProfitRequest is returned when a profit estimate lacks the
	// figures it needs and the catalog cannot supply them.
	ErrInvalidProfitRequest = errors.New("invalid profit request")
)

// Price sources reported with quotes and estimates.
const (
	PriceSourceLive     = "live"
	PriceSourceSnapshot = "snapshot"
	PriceSourceInput    = "input"
	PriceSourceMSP      = "msp"
)

const livePriceLimit = 100

// PriceQuotes is the result of a price lookup.
type PriceQuotes struct {
	Commodity string
	State     string
	Source    string
	Prices    []model.MarketPrice
}

// ProfitRequest describes a planned crop. Zero YieldPerAcre, CostPerAcre or
// PricePerQtl are filled from the catalog and latest prices.
type ProfitRequest struct {
	Commodity    string
	State        string
	AreaAcres    float64
	YieldPerAcre float64
	CostPerAcre  float64
	PricePerQtl  float64
}

// MarketService serves mandi prices and profit estimates.
type MarketService struct {
	client  driven.MarketClient
	store   driven.MarketPriceStore
	catalog *EconomicsCatalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewMarketService creates a MarketService. client may be nil when no live
// API key is configured; lookups are then served from stored snapshots.
func NewMarketService(client driven.MarketClient, store driven.MarketPriceStore, catalog *EconomicsCatalog, logger *slog.Logger) *MarketService {
	if catalog == nil {
		catalog = DefaultEconomicsCatalog()
	}
	return &MarketService{
		client:  client,
		store:   store,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// Prices returns current quotes for commodity, preferring the live API and
// falling back to the latest stored snapshot. Every lookup is recorded so the
// background refresher can prioritize popular commodities.
func (s *MarketService) Prices(ctx context.Context, commodity, state string) (PriceQuotes, error) {
	commodity = strings.TrimSpace(commodity)
	state = strings.TrimSpace(state)
	if commodity == "" {
		return PriceQuotes{}, ErrInvalidCrop
	}

	if err := s.store.TouchLookup(ctx, commodity, s.now()); err != nil {
		s.logger.WarnContext(ctx, "record commodity lookup failed", "commodity", commodity, "error", err)
	}

	quotes := PriceQuotes{Commodity: commodity, State: state}

	if s.client != nil {
		live, err := s.fetchAndStore(ctx, commodity, state)
		if err == nil && len(live) > 0 {
			quotes.Source = PriceSourceLive
			quotes.Prices = live
			return quotes, nil
		}
		if err != nil {
			s.logger.WarnContext(ctx, "live market lookup failed, using snapshot", "commodity", commodity, "error", err)
		}
	}

	stored, err := s.store.Latest(ctx, commodity, state)
	if err != nil {
		return PriceQuotes{}, fmt.Errorf("load price snapshot for %s: %w", commodity, err)
	}
	if len(stored) == 0 {
		return PriceQuotes{}, fmt.Errorf("%w: %s", ErrNoPrices, commodity)
	}

	quotes.Source = PriceSourceSnapshot
	quotes.Prices = stored
	return quotes, nil
}

// Refresh fetches live quotes for commodity across all states and stores
// them. It returns the number of quotes stored.
func (s *MarketService) Refresh(ctx context.Context, commodity string) (int, error) {
	if s.client == nil {
		return 0, errors.New("live market api not configured")
	}
	prices, err := s.fetchAndStore(ctx, commodity, "")
	return len(prices), err
}

// Import stores externally sourced quotes, such as a price import file.
func (s *MarketService) Import(ctx context.Context, prices []model.MarketPrice) error {
	if err := s.store.Upsert(ctx, prices); err != nil {
		return fmt.Errorf("import prices: %w", err)
	}
	return nil
}

func (s *MarketService) fetchAndStore(ctx context.Context, commodity, state string) ([]model.MarketPrice, error) {
	prices, err := s.client.FetchPrices(ctx, commodity, state, livePriceLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch prices for %s: %w", commodity, err)
	}
	if len(prices) == 0 {
		return prices, nil
	}

	fetched := s.now().UTC()
	for i := range prices {
		if prices[i].FetchedAt.IsZero() {
			prices[i].FetchedAt = fetched
		}
	}
	if err := s.store.Upsert(ctx, prices); err != nil {
		return nil, fmt.Errorf("store prices for %s: %w", commodity, err)
	}
	return prices, nil
}

// EstimateProfit projects revenue and profit for req.
func (s *MarketService) EstimateProfit(ctx context.Context, req ProfitRequest) (model.ProfitEstimate, error) {
	commodity := model.NormalizeCropName(req.Commodity)
	if commodity == "" {
		return model.ProfitEstimate{}, fmt.Errorf("%w: commodity is required", ErrInvalidProfitRequest)
	}
	if req.AreaAcres <= 0 || math.IsNaN(req.AreaAcres) || math.IsInf(req.AreaAcres, 0) {
		return model.ProfitEstimate{}, fmt.Errorf("%w: area must be positive", ErrInvalidProfitRequest)
	}
	if req.YieldPerAcre < 0 || req.CostPerAcre < 0 || req.PricePerQtl < 0 {
		return model.ProfitEstimate{}, fmt.Errorf("%w: figures must not be negative", ErrInvalidProfitRequest)
	}

	ref, hasRef := s.catalog.Lookup(commodity)

	yield := req.YieldPerAcre
	if yield == 0 {
		if !hasRef {
			return model.ProfitEstimate{}, fmt.Errorf("%w: no reference yield for %s", ErrInvalidProfitRequest, commodity)
		}
		yield = ref.YieldPerAcre
	}

	cost := req.CostPerAcre
	if cost == 0 && hasRef {
		cost = ref.CostPerAcre
	}

	price, source := req.PricePerQtl, PriceSourceInput
	if price == 0 {
		var err error
		price, source, err = s.referencePrice(ctx, commodity, req.State, ref, hasRef)
		if err != nil {
			return model.ProfitEstimate{}, err
		}
	}

	est := model.ProfitEstimate{
		Commodity:    commodity,
		AreaAcres:    req.AreaAcres,
		YieldPerAcre: yield,
		CostPerAcre:  cost,
		PricePerQtl:  price,
		PriceSource:  source,
		TotalYield:   yield * req.AreaAcres,
		TotalCost:    cost * req.AreaAcres,
	}
	est.Revenue = est.TotalYield * price
	est.Profit = est.Revenue - est.TotalCost
	if est.Revenue > 0 {
		est.MarginPct = round2(est.Profit / est.Revenue * 100)
	}
	return est, nil
}

// referencePrice picks the median modal price of the latest snapshot, then
// the minimum support price.
func (s *MarketService) referencePrice(ctx context.Context, commodity, state string, ref model.CropEconomics, hasRef bool) (float64, string, error) {
	stored, err := s.store.Latest(ctx, commodity, state)
	if err != nil {
		return 0, "", fmt.Errorf("load price snapshot for %s: %w", commodity, err)
	}
	if median := medianModalPrice(stored); median > 0 {
		return median, PriceSourceSnapshot, nil
	}
	if hasRef && ref.MinimumSupportPrice > 0 {
		return ref.MinimumSupportPrice, PriceSourceMSP, nil
	}
	return 0, "", fmt.Errorf("%w: no price known for %s, pass price_per_quintal", ErrInvalidProfitRequest, commodity)
}

func medianModalPrice(prices []model.MarketPrice) float64 {
	modal := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p.ModalPrice > 0 {
			modal = append(modal, p.ModalPrice)
		}
	}
	if len(modal) == 0 {
		return 0
	}
	sort.Float64s(modal)
	mid := len(modal) / 2
	if len(modal)%2 == 0 {
		return (modal[mid-1] + modal[mid]) / 2
	}
	return modal[mid]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
