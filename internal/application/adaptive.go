package application

import (
	"time"
)

// DemandTier classifies how often a tracked commodity is refreshed based on
// how recently a user looked its prices up.
type DemandTier int

const (
	// TierHot indicates a lookup within the last hour. Refreshes at the base interval.
	TierHot DemandTier = iota
	// TierActive indicates a lookup within the last day. Refreshes at twice the base interval.
	TierActive
	// TierWarm indicates a lookup within the last 7 days. Refreshes every 6 base intervals.
	TierWarm
	// TierStale indicates no lookup for 7+ days. Refreshes every 24 base intervals.
	TierStale
)

// String returns a human-readable name for the demand tier.
func (t DemandTier) String() string {
	switch t {
	case TierHot:
		return "hot"
	case TierActive:
		return "active"
	case TierWarm:
		return "warm"
	case TierStale:
		return "stale"
	default:
		return "unknown"
	}
}

// tierInterval scales the base refresh interval for the given tier.
func tierInterval(tier DemandTier, base time.Duration) time.Duration {
	switch tier {
	case TierHot:
		return base
	case TierActive:
		return 2 * base
	case TierWarm:
		return 6 * base
	case TierStale:
		return 24 * base
	default:
		return 2 * base
	}
}

// classifyDemand determines the demand tier from the time elapsed since the
// last lookup. A zero-value time is treated as TierStale.
func classifyDemand(lastLookup, now time.Time) DemandTier {
	if lastLookup.IsZero() {
		return TierStale
	}

	elapsed := now.Sub(lastLookup)

	switch {
	case elapsed < 1*time.Hour:
		return TierHot
	case elapsed < 24*time.Hour:
		return TierActive
	case elapsed < 7*24*time.Hour:
		return TierWarm
	default:
		return TierStale
	}
}

// commoditySchedule tracks per-commodity refresh state.
type commoditySchedule struct {
	tier          DemandTier
	nextRefreshAt time.Time
	lastRefreshed time.Time
}

// ScheduleInfo is an exported view of a commodity's refresh schedule.
type ScheduleInfo struct {
	Tier          DemandTier
	NextRefreshAt time.Time
	LastRefreshed time.Time
}
