package service

import (
	"context"
	"time"

	"github.com/stagedoor/auth/internal/auth/store"
	"github.com/stagedoor/auth/pkg/slogx"
)

// DefaultHousekeepingInterval is how often expired rows are swept.
const DefaultHousekeepingInterval = time.Hour

// HousekeepingService periodically deletes expired authorization codes,
// consent transactions and token audit rows. Expiry is still enforced at
// read time; the sweeper only keeps the tables from growing unbounded.
type HousekeepingService struct {
	store    store.Store
	interval time.Duration
}

func NewHousekeepingService(st store.Store, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	return &HousekeepingService{store: st, interval: interval}
}

// Run sweeps on a ticker until ctx is cancelled. Intended to run in its
// own goroutine.
func (s *HousekeepingService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over all expirable tables. Errors are logged and do
// not stop the remaining deletions.
func (s *HousekeepingService) Sweep(ctx context.Context) {
	log := slogx.FromContext(ctx)

	sweeps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"authorization_codes", s.store.AuthorizationCodes().DeleteExpiredAuthorizationCodes},
		{"consent_transactions", s.store.Transactions().DeleteExpiredTransactions},
		{"access_tokens", s.store.AccessTokens().DeleteExpiredAccessTokens},
		{"refresh_tokens", s.store.RefreshTokens().DeleteExpiredRefreshTokens},
	}

	for _, sw := range sweeps {
		if err := sw.fn(ctx); err != nil {
			log.Error("housekeeping sweep failed", "table", sw.name, "err", err)
		}
	}
}
