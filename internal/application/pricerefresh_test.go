package application_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/krishiai/internal/application"
)

type mockRefresher struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (m *mockRefresher) Refresh(_ context.Context, commodity string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, commodity)
	if err := m.fail[commodity]; err != nil {
		return 0, err
	}
	return 3, nil
}

func (m *mockRefresher) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// startRefresher runs svc.Start until the test ends.
func startRefresher(t *testing.T, svc *application.PriceRefreshService) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestPriceRefreshService_InitialCycleAndManualRefresh(t *testing.T) {
	store := newMockPriceStore()
	store.lookups["Onion"] = time.Now().Add(-10 * time.Minute)
	store.lookups["Saffron"] = time.Now().Add(-30 * 24 * time.Hour)

	refresher := &mockRefresher{fail: map[string]error{"tomato": errors.New("upstream 500")}}
	svc := application.NewPriceRefreshService(refresher, store, []string{" Wheat "}, time.Hour, slog.Default())
	startRefresher(t, svc)

	// The manual request is served after the initial cycle completes.
	err := svc.RefreshCommodity(context.Background(), "Tomato")
	require.Error(t, err)

	calls := refresher.called()
	assert.Equal(t, []string{"onion", "wheat", "tomato"}, calls)

	schedules := svc.Schedules()
	assert.Equal(t, application.TierHot, schedules["onion"].Tier)
	assert.Equal(t, application.TierActive, schedules["wheat"].Tier, "tracked commodities stay at least active")
	assert.NotContains(t, schedules, "saffron")
	assert.True(t, schedules["wheat"].NextRefreshAt.After(schedules["wheat"].LastRefreshed))

	require.NoError(t, svc.RefreshCommodity(context.Background(), "onion"))
	assert.Len(t, refresher.called(), 4)
}

func TestPriceRefreshService_RefreshCommodityCanceled(t *testing.T) {
	svc := application.NewPriceRefreshService(&mockRefresher{}, newMockPriceStore(), nil, time.Hour, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Start is not running, so only the context can end the call.
	err := svc.RefreshCommodity(ctx, "wheat")
	assert.ErrorIs(t, err, context.Canceled)
}
