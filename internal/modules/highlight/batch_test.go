package highlight

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"highlight-bot/internal/storage"

	"go.uber.org/zap"
)

type fakeWriter struct {
	mu      sync.Mutex
	fail    bool
	batches [][]storage.Highlight
}

func (w *fakeWriter) InsertHighlights(ctx context.Context, highlights []storage.Highlight) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("database unavailable")
	}
	w.batches = append(w.batches, highlights)
	return nil
}

func TestBatchFlushWritesEverythingOnce(t *testing.T) {
	writer := &fakeWriter{}
	batch := NewBatch(writer, time.Minute, zap.NewNop())

	batch.Record(storage.Highlight{UserID: "u1"})
	batch.Record(storage.Highlight{UserID: "u2"})
	if err := batch.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := batch.Flush(context.Background()); err != nil {
		t.Fatalf("empty flush: %v", err)
	}

	if len(writer.batches) != 1 || len(writer.batches[0]) != 2 {
		t.Fatalf("expected a single two-row write, got %+v", writer.batches)
	}
	if batch.Len() != 0 {
		t.Fatalf("expected empty batch after flush")
	}
}

func TestBatchKeepsRowsOnFailure(t *testing.T) {
	writer := &fakeWriter{fail: true}
	batch := NewBatch(writer, time.Minute, zap.NewNop())

	batch.Record(storage.Highlight{UserID: "u1"})
	if err := batch.Flush(context.Background()); err == nil {
		t.Fatalf("expected flush error")
	}
	batch.Record(storage.Highlight{UserID: "u2"})
	if batch.Len() != 2 {
		t.Fatalf("expected failed rows retained, got %d", batch.Len())
	}

	writer.fail = false
	if err := batch.Flush(context.Background()); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	if got := writer.batches[0]; len(got) != 2 || got[0].UserID != "u1" || got[1].UserID != "u2" {
		t.Fatalf("expected retained rows first, got %+v", got)
	}
}

func TestBatchRunFlushesOnShutdown(t *testing.T) {
	writer := &fakeWriter{}
	batch := NewBatch(writer, time.Hour, zap.NewNop())
	batch.Record(storage.Highlight{UserID: "u1"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- batch.Run(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(writer.batches) != 1 {
		t.Fatalf("expected final flush on shutdown")
	}
}
