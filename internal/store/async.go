package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/summary-pipeline/internal/model"
)

// AsyncSink wraps a Sink with a bounded queue and a single writer goroutine,
// keeping persistence off the cascade's critical path. Writes are best
// effort: when the queue is full the record is dropped and logged, never
// blocking the pipeline.
type AsyncSink struct {
	inner Sink
	queue chan job

	wg        sync.WaitGroup
	closeOnce sync.Once

	flushTimeout time.Duration
}

type job struct {
	info    model.RequestInfo
	result  *model.GenerationResult
	doc     *model.SummaryDocument
	failure string
	outcome bool
}

// NewAsync wraps inner with an asynchronous queue of the given size.
func NewAsync(inner Sink, queueSize int) *AsyncSink {
	if queueSize <= 0 {
		queueSize = 256
	}
	s := &AsyncSink{
		inner:        inner,
		queue:        make(chan job, queueSize),
		flushTimeout: 10 * time.Second,
	}
	s.wg.Add(1)
	go s.consume()
	return s
}

func (s *AsyncSink) consume() {
	defer s.wg.Done()
	for j := range s.queue {
		if j.outcome {
			s.write(func(ctx context.Context) error {
				return s.inner.RecordOutcome(ctx, j.info, j.doc, j.failure)
			})
			continue
		}

		// Drain any further queued attempts so a batch-capable sink can
		// flush them in one round trip.
		batch := []AttemptEntry{{Info: j.info, Result: *j.result}}
		var pendingOutcome *job
	drain:
		for {
			select {
			case next, ok := <-s.queue:
				if !ok {
					break drain
				}
				if next.outcome {
					pendingOutcome = &next
					break drain
				}
				batch = append(batch, AttemptEntry{Info: next.info, Result: *next.result})
			default:
				break drain
			}
		}

		s.writeBatch(batch)
		if pendingOutcome != nil {
			j := *pendingOutcome
			s.write(func(ctx context.Context) error {
				return s.inner.RecordOutcome(ctx, j.info, j.doc, j.failure)
			})
		}
	}
}

func (s *AsyncSink) writeBatch(batch []AttemptEntry) {
	if batcher, ok := s.inner.(BatchSink); ok && len(batch) > 1 {
		s.write(func(ctx context.Context) error {
			return batcher.RecordAttemptBatch(ctx, batch)
		})
		return
	}
	for _, e := range batch {
		entry := e
		s.write(func(ctx context.Context) error {
			return s.inner.RecordAttempt(ctx, entry.Info, entry.Result)
		})
	}
}

func (s *AsyncSink) write(fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.flushTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		zap.L().Warn("async sink write failed", zap.Error(err))
	}
}

func (s *AsyncSink) enqueue(j job, kind string) error {
	select {
	case s.queue <- j:
	default:
		zap.L().Warn("async sink queue full, dropping record",
			zap.String("kind", kind),
			zap.String("request_id", j.info.RequestID),
		)
	}
	return nil
}

func (s *AsyncSink) RecordAttempt(_ context.Context, info model.RequestInfo, res model.GenerationResult) error {
	return s.enqueue(job{info: info, result: &res}, "attempt")
}

func (s *AsyncSink) RecordOutcome(_ context.Context, info model.RequestInfo, doc *model.SummaryDocument, failure string) error {
	return s.enqueue(job{info: info, doc: doc, failure: failure, outcome: true}, "outcome")
}

// ListAttempts reads through to the inner sink. Recently queued attempts may
// not be visible yet.
func (s *AsyncSink) ListAttempts(ctx context.Context, requestID string) ([]AttemptRecord, error) {
	return s.inner.ListAttempts(ctx, requestID)
}

func (s *AsyncSink) Migrate(ctx context.Context) error {
	return s.inner.Migrate(ctx)
}

// Close drains the queue, then closes the inner sink.
func (s *AsyncSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
	return s.inner.Close()
}
