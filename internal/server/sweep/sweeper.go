// Package sweep reconciles metadata with the payload store. Uploads insert a
// pending record before the disk write; when the process dies in between, the
// leftovers (a pending row, possibly with a file already on disk) are invisible
// to readers but still occupy their path. The sweeper collects them once they
// are old enough that the upload can no longer be in flight.
package sweep

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"github.com/mpavlovs/filestore/internal/logging"
	"github.com/mpavlovs/filestore/internal/server/repositories/repomanager"
	"github.com/mpavlovs/filestore/internal/server/storage"
)

// Sweeper periodically removes stale pending records and their orphaned
// payload files.
type Sweeper struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	resolver    *storage.Resolver
	interval    time.Duration
	maxAge      time.Duration
	log         logging.Logger
}

// NewSweeper constructs a Sweeper. maxAge is how old a pending record must be
// before it counts as stale; it must comfortably exceed the write timeout.
func NewSweeper(db *sql.DB, m repomanager.RepositoryManager, resolver *storage.Resolver,
	interval, maxAge time.Duration, log logging.Logger) *Sweeper {
	return &Sweeper{
		db:          db,
		repomanager: m,
		resolver:    resolver,
		interval:    interval,
		maxAge:      maxAge,
		log:         log.With("component", "sweeper"),
	}
}

// Run sweeps on every tick until ctx is cancelled. It is meant to be started
// on its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info(ctx, "sweeper started", "interval", s.interval, "max_age", s.maxAge)
	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "sweeper stopped")
			return
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				s.log.Error(ctx, "sweep failed", "error", err)
			} else if n > 0 {
				s.log.Info(ctx, "sweep collected stale records", "count", n)
			}
		}
	}
}

// Sweep collects all currently stale pending records and reports how many
// were removed. Records whose cleanup fails are left for the next run.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	repo := s.repomanager.Files(s.db)

	stale, err := repo.SelectStalePending(ctx, time.Now().Add(-s.maxAge))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, file := range stale {
		location := s.resolver.Locate(file.UserID, file.Path)
		if err := os.Remove(location); err != nil && !errors.Is(err, os.ErrNotExist) {
			// Keep the row so the file is retried next run rather than
			// orphaned on disk forever.
			s.log.Error(ctx, "failed to remove orphaned payload",
				"file_id", file.ID, "location", location, "error", err)
			continue
		}
		if err := repo.Delete(ctx, file.ID); err != nil {
			s.log.Error(ctx, "failed to delete stale pending record",
				"file_id", file.ID, "error", err)
			continue
		}
		s.log.Info(ctx, "removed stale pending record",
			"file_id", file.ID, "path", file.Path, "user_id", file.UserID)
		removed++
	}
	return removed, nil
}
