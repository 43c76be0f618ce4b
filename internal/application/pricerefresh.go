package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// PriceRefresher fetches and stores live quotes for one commodity.
// MarketService implements it.
type PriceRefresher interface {
	Refresh(ctx context.Context, commodity string) (int, error)
}

// refreshRequest represents a manual refresh trigger.
type refreshRequest struct {
	commodity string
	done      chan error
}

// PriceRefreshService keeps stored mandi prices fresh in the background.
// Tracked commodities and any commodity looked up in the last week are
// refreshed on a schedule set by how recently users asked for them.
type PriceRefreshService struct {
	refresher PriceRefresher
	store     driven.MarketPriceStore
	tracked   []string
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
	refreshCh chan refreshRequest

	mu        sync.Mutex
	schedules map[string]*commoditySchedule
}

// NewPriceRefreshService creates a PriceRefreshService. interval is the
// refresh interval for the hottest commodities.
func NewPriceRefreshService(refresher PriceRefresher, store driven.MarketPriceStore, tracked []string, interval time.Duration, logger *slog.Logger) *PriceRefreshService {
	return &PriceRefreshService{
		refresher: refresher,
		store:     store,
		tracked:   tracked,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		refreshCh: make(chan refreshRequest),
		schedules: make(map[string]*commoditySchedule),
	}
}

// Start runs an immediate refresh cycle, then one per interval, and serves
// manual refresh requests. Start blocks until ctx is canceled.
func (s *PriceRefreshService) Start(ctx context.Context) {
	s.refreshDue(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("price refresh service stopped")
			return
		case <-ticker.C:
			s.refreshDue(ctx)
		case req := <-s.refreshCh:
			req.done <- s.refreshOne(ctx, req.commodity, s.now())
		}
	}
}

// RefreshCommodity refreshes one commodity immediately, bypassing its
// schedule. It blocks until the refresh completes or ctx is canceled.
func (s *PriceRefreshService) RefreshCommodity(ctx context.Context, commodity string) error {
	done := make(chan error, 1)
	req := refreshRequest{commodity: normalizeCommodity(commodity), done: done}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedules returns a snapshot of every commodity's refresh schedule.
func (s *PriceRefreshService) Schedules() map[string]ScheduleInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]ScheduleInfo, len(s.schedules))
	for name, sched := range s.schedules {
		out[name] = ScheduleInfo{
			Tier:          sched.tier,
			NextRefreshAt: sched.nextRefreshAt,
			LastRefreshed: sched.lastRefreshed,
		}
	}
	return out
}

// refreshDue reclassifies every candidate commodity and refreshes the ones
// whose next refresh time has passed.
func (s *PriceRefreshService) refreshDue(ctx context.Context) {
	start := s.now()

	lookups := map[string]time.Time{}
	stored, err := s.store.LastLookups(ctx)
	if err != nil {
		s.logger.Error("load commodity lookups failed", "error", err)
	}
	for name, at := range stored {
		name = normalizeCommodity(name)
		if at.After(lookups[name]) {
			lookups[name] = at
		}
	}

	var refreshed, failed int
	for _, commodity := range s.candidates(lookups, start) {
		if ctx.Err() != nil {
			return
		}

		tier := classifyDemand(lookups[commodity], start)
		if s.isTracked(commodity) && tier > TierActive {
			// Tracked commodities never drop below the active tier.
			tier = TierActive
		}

		s.mu.Lock()
		sched, ok := s.schedules[commodity]
		if !ok {
			sched = &commoditySchedule{}
			s.schedules[commodity] = sched
		}
		if sched.tier != tier && !sched.lastRefreshed.IsZero() {
			sched.nextRefreshAt = sched.lastRefreshed.Add(tierInterval(tier, s.interval))
		}
		sched.tier = tier
		due := !start.Before(sched.nextRefreshAt)
		s.mu.Unlock()

		if !due {
			continue
		}
		if err := s.refreshOne(ctx, commodity, start); err != nil {
			failed++
			continue
		}
		refreshed++
	}

	s.logger.Info("price refresh cycle complete",
		"refreshed", refreshed,
		"errors", failed,
		"duration", s.now().Sub(start).Round(time.Millisecond),
	)
}

func (s *PriceRefreshService) refreshOne(ctx context.Context, commodity string, at time.Time) error {
	n, err := s.refresher.Refresh(ctx, commodity)

	s.mu.Lock()
	sched, ok := s.schedules[commodity]
	if !ok {
		sched = &commoditySchedule{tier: TierHot}
		s.schedules[commodity] = sched
	}
	sched.lastRefreshed = at
	sched.nextRefreshAt = at.Add(tierInterval(sched.tier, s.interval))
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("commodity price refresh failed", "commodity", commodity, "error", err)
		return err
	}
	s.logger.Debug("commodity prices refreshed", "commodity", commodity, "quotes", n, "tier", sched.tier)
	return nil
}

// candidates returns tracked commodities plus every commodity looked up in
// the last week (lookups is keyed by normalized name), sorted for a stable refresh order.
func (s *PriceRefreshService) candidates(lookups map[string]time.Time, now time.Time) []string {
	set := make(map[string]bool, len(s.tracked)+len(lookups))
	for _, c := range s.tracked {
		if name := normalizeCommodity(c); name != "" {
			set[name] = true
		}
	}
	for c, at := range lookups {
		if classifyDemand(at, now) != TierStale {
			set[c] = true
		}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *PriceRefreshService) isTracked(commodity string) bool {
	for _, c := range s.tracked {
		if normalizeCommodity(c) == commodity {
			return true
		}
	}
	return false
}

func normalizeCommodity(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
