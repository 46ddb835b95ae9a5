package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mpavlovs/filestore/internal/common"
)

// Writer performs payload writes on a bounded pool of worker goroutines so
// that large synchronous disk I/O never stalls the serving goroutines.
// Callers block until their write finishes, fails, or times out.
type Writer struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewWriter creates a writer allowing at most workers concurrent writes, each
// bounded by timeout. Zero values fall back to sensible defaults.
func NewWriter(workers int64, timeout time.Duration) *Writer {
	if workers <= 0 {
		workers = 4
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Writer{
		sem:     semaphore.NewWeighted(workers),
		timeout: timeout,
	}
}

// Write stores the whole payload at location. Either the full payload is
// written or an error wrapping common.ErrStorageWrite is returned; there is
// no partial-success result. The write itself runs on a worker goroutine;
// Write returns early when ctx is done or the timeout fires, in which case
// the file may still appear on disk and is left for the sweeper.
func (w *Writer) Write(ctx context.Context, location string, payload []byte) error {

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("write %s: %w: %w", location, common.ErrStorageWrite, err)
	}

	done := make(chan error, 1)
	go func() {
		defer w.sem.Release(1)
		done <- os.WriteFile(location, payload, 0o660)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("write %s: %w: %w", location, common.ErrStorageWrite, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("write %s: %w: %w", location, common.ErrStorageWrite, ctx.Err())
	}
}
