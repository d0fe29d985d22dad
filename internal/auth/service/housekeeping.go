package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/saludware/citamed/internal/auth/store"
)

// HousekeepingService periodically reconciles ledger flags with the tokens'
// own lifetimes: rows older than the access-token TTL get their expired flag
// flipped. Rows are never deleted; the audit trail stays intact.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	AccessTTL time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval, accessTTL time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:     st,
		Logger:    logger,
		Interval:  interval,
		AccessTTL: accessTTL,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker, blocking until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup.
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep flips the expired flag on ledger rows whose access token cannot be
// valid anymore. Purely an accounting catch-up: the request gate already
// rejects these tokens via their embedded expiry.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()

	cutoff := time.Now().Add(-s.AccessTTL)
	n, err := s.Store.IssuedTokens().ExpireCreatedBefore(ctx, cutoff)
	if err != nil {
		s.Logger.Error("housekeeping sweep failed", "error", err)
		return
	}

	if n > 0 {
		s.Logger.Info("housekeeping sweep completed", "rows_expired", n)
	}
}
