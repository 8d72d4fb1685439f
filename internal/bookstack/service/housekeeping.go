package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
)

// HousekeepingService periodically cleans up expired database records
// (sessions, verification tokens, stale search history) and refreshes the
// popular books snapshot.
type HousekeepingService struct {
	Store      store.Store
	Logger     *slog.Logger
	Interval   time.Duration
	HistoryAge time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour. History older than
// historyAge is pruned from the durable table; it defaults to 30 days.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval, historyAge time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if historyAge <= 0 {
		historyAge = 30 * 24 * time.Hour
	}

	return &HousekeepingService{
		Store:      store,
		Logger:     logger,
		Interval:   interval,
		HistoryAge: historyAge,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// This is non-blocking and should be called after the database is ready.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

// run is the main background worker loop.
func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the actual maintenance work.
// Each task is independent - failures in one won't stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	s.Logger.Info("starting housekeeping cleanup")

	if n, err := s.Store.Sessions().DeleteExpiredSessions(ctx); err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	} else {
		s.Logger.Debug("deleted expired sessions", "count", n)
	}

	if n, err := s.Store.VerificationTokens().DeleteExpiredVerificationTokens(ctx); err != nil {
		s.Logger.Error("failed to delete expired verification tokens", "error", err)
	} else {
		s.Logger.Debug("deleted expired verification tokens", "count", n)
	}

	cutoff := time.Now().UTC().Add(-s.HistoryAge)
	if n, err := s.Store.SearchHistory().DeleteOldSearches(ctx, cutoff); err != nil {
		s.Logger.Error("failed to prune search history", "error", err)
	} else {
		s.Logger.Debug("pruned old search history", "count", n)
	}

	if err := s.Store.Books().RefreshPopularBooks(ctx); err != nil {
		s.Logger.Error("failed to refresh popular books", "error", err)
	} else {
		s.Logger.Debug("refreshed popular books snapshot")
	}

	s.Logger.Info("housekeeping cleanup completed")
}
