package highlight

import (
	"context"
	"sync"
	"time"

	"highlight-bot/internal/storage"

	"go.uber.org/zap"
)

type HighlightWriter interface {
	InsertHighlights(ctx context.Context, highlights []storage.Highlight) error
}

// Batch buffers delivered highlights and writes them in bulk. A failed write
// keeps the rows for the next flush.
type Batch struct {
	mu       sync.Mutex
	flushMu  sync.Mutex
	pending  []storage.Highlight
	writer   HighlightWriter
	interval time.Duration
	logger   *zap.Logger
}

func NewBatch(writer HighlightWriter, interval time.Duration, logger *zap.Logger) *Batch {
	return &Batch{writer: writer, interval: interval, logger: logger}
}

func (b *Batch) Record(highlight storage.Highlight) {
	b.mu.Lock()
	b.pending = append(b.pending, highlight)
	b.mu.Unlock()
}

func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Batch) Flush(ctx context.Context) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	items := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(items) == 0 {
		return nil
	}
	if err := b.writer.InsertHighlights(ctx, items); err != nil {
		b.mu.Lock()
		b.pending = append(items, b.pending...)
		b.mu.Unlock()
		return err
	}
	b.logger.Debug("highlights flushed", zap.Int("count", len(items)))
	return nil
}

// Run flushes on every tick and once more when ctx ends.
func (b *Batch) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := b.Flush(flushCtx)
			cancel()
			if err != nil {
				b.logger.Error("final highlight flush failed", zap.Int("pending", b.Len()), zap.Error(err))
			}
			return nil
		case <-ticker.C:
			if err := b.Flush(ctx); err != nil {
				b.logger.Warn("highlight flush failed", zap.Int("pending", b.Len()), zap.Error(err))
			}
		}
	}
}
