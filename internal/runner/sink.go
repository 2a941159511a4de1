package runner

import (
	"context"
	"fmt"
	"sync"

	"cockpit/pkg/models"
)

// Sink receives every disposition of a run.
type Sink interface {
	Record(ctx context.Context, rec models.DispositionRecord) error
}

// Flusher is implemented by sinks that buffer records until the run ends.
type Flusher interface {
	Flush(ctx context.Context) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec models.DispositionRecord) error

func (f SinkFunc) Record(ctx context.Context, rec models.DispositionRecord) error {
	return f(ctx, rec)
}

// Named gives a sink a name for the logs.
func Named(name string, s Sink) Sink {
	return namedSink{Sink: s, name: name}
}

type namedSink struct {
	Sink
	name string
}

func (n namedSink) Flush(ctx context.Context) error {
	if f, ok := n.Sink.(Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}

func sinkName(s Sink) string {
	if n, ok := s.(namedSink); ok {
		return n.name
	}
	return fmt.Sprintf("%T", s)
}

// Batch buffers records and writes them in one call when flushed.
type Batch struct {
	mu    sync.Mutex
	recs  []models.DispositionRecord
	write func(ctx context.Context, recs []models.DispositionRecord) error
}

// NewBatch creates a Batch that hands its records to write.
func NewBatch(write func(ctx context.Context, recs []models.DispositionRecord) error) *Batch {
	return &Batch{write: write}
}

func (b *Batch) Record(_ context.Context, rec models.DispositionRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recs = append(b.recs, rec)
	return nil
}

// Flush writes the buffered records. They are kept when the write fails.
func (b *Batch) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.recs) == 0 {
		return nil
	}
	if err := b.write(ctx, b.recs); err != nil {
		return err
	}
	b.recs = nil
	return nil
}
