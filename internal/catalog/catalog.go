// Package catalog reconciles the locally cached view of source channels
// against the set currently observed on the Discord connection.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"relay_bot/internal/model"
	"relay_bot/internal/storage"
)

// Lister reports the channels currently visible to the source connection.
type Lister interface {
	ListChannels(ctx context.Context) ([]model.ObservedChannel, error)
}

// Synchronizer keeps the channel catalog fresh: once when the source
// connection becomes ready and optionally on a fixed interval.
type Synchronizer struct {
	store    storage.Storage
	lister   Lister
	log      *slog.Logger
	prefix   string
	interval time.Duration
}

// New creates a Synchronizer. prefix, when non-empty, restricts the
// catalog to channels whose name starts with it. interval <= 0 disables
// the periodic resync.
func New(store storage.Storage, lister Lister, prefix string, interval time.Duration, log *slog.Logger) *Synchronizer {
	return &Synchronizer{
		store:    store,
		lister:   lister,
		log:      log,
		prefix:   prefix,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled. It waits for the ready signal, syncs
// once, and then resyncs on the configured interval.
func (s *Synchronizer) Run(ctx context.Context, ready <-chan struct{}) {
	select {
	case <-ctx.Done():
		return
	case <-ready:
	}

	if err := s.SyncOnce(ctx); err != nil {
		s.log.Error("catalog sync", "error", err)
	}

	if s.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SyncOnce(ctx); err != nil {
				s.log.Error("catalog sync", "error", err)
			}
		}
	}
}

// SyncOnce fetches the observed channel list, applies the name-prefix
// filter, and reconciles the catalog in a single transaction.
func (s *Synchronizer) SyncOnce(ctx context.Context) error {
	observed, err := s.lister.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	if s.prefix != "" {
		kept := observed[:0]
		for _, ch := range observed {
			if strings.HasPrefix(ch.Name, s.prefix) {
				kept = append(kept, ch)
			}
		}
		observed = kept
	}

	if err := s.store.SyncChannels(ctx, observed); err != nil {
		return fmt.Errorf("sync channels: %w", err)
	}

	s.log.Info("catalog synced", "channels", len(observed))
	return nil
}
