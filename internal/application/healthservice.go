package application

import (
	"context"
	"time"

	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
)

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthReport is the service status returned by the health endpoint.
type HealthReport struct {
	Status       string
	Database     string
	AIKeys       int
	MarketLive   bool
	PhotoArchive bool
	CheckedAt    time.Time
}

// Healthy reports whether the service can serve requests. A degraded
// service is still healthy.
func (r HealthReport) Healthy() bool {
	return r.Status != "unavailable"
}

// HealthService assembles the health view of the running service. It
// depends only on port interfaces.
type HealthService struct {
	db           Pinger
	keys         driven.APIKeySource
	marketLive   bool
	photoArchive bool
}

// NewHealthService creates a HealthService.
func NewHealthService(db Pinger, keys driven.APIKeySource, marketLive, photoArchive bool) *HealthService {
	return &HealthService{
		db:           db,
		keys:         keys,
		marketLive:   marketLive,
		photoArchive: photoArchive,
	}
}

// Check pings the database and counts the usable AI keys. A missing AI key
// degrades the service; an unreachable database makes it unhealthy.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:       "ok",
		Database:     "ok",
		MarketLive:   s.marketLive,
		PhotoArchive: s.photoArchive,
		CheckedAt:    time.Now().UTC(),
	}

	if err := s.db.PingContext(ctx); err != nil {
		report.Status = "unavailable"
		report.Database = "unreachable"
	}

	keys, err := s.keys.AIKeys(ctx)
	if err == nil {
		report.AIKeys = len(keys)
	}
	if report.AIKeys == 0 && report.Status == "ok" {
		report.Status = "degraded"
	}
	return report
}
