package search

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"subsearch/internal/metrics"
)

// DefaultBatchSize is the maximum number of documents in one bulk request
const DefaultBatchSize = 10_000

// Coordinator partitions fragment documents into fixed-size batches and
// dispatches each batch to the search engine concurrently. All batches must
// resolve before a write is considered complete; any per-document failure
// fails the whole operation with the raw batch detail attached. There are
// no retries.
type Coordinator struct {
	engine    Engine
	batchSize int
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewCoordinator creates a Coordinator with the default batch size
func NewCoordinator(engine Engine) *Coordinator {
	return NewCoordinatorWithLogger(engine, nil)
}

// NewCoordinatorWithLogger creates a Coordinator with the default batch
// size and the given logger
func NewCoordinatorWithLogger(engine Engine, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		engine:    engine,
		batchSize: DefaultBatchSize,
		logger:    logger,
	}
}

// SetBatchSize overrides the maximum batch size
func (c *Coordinator) SetBatchSize(size int) {
	if size > 0 {
		c.batchSize = size
	}
}

// SetMetrics attaches Prometheus metrics to the coordinator
func (c *Coordinator) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// Write indexes the given documents into the named index. Batches are
// dispatched concurrently with no cap on the number in flight.
func (c *Coordinator) Write(ctx context.Context, indexName string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	batches := c.partition(docs)

	type outcome struct {
		result *BulkResult
		err    error
	}
	outcomes := make([]outcome, len(batches))

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []Document) {
			defer wg.Done()
			result, err := c.engine.BulkWrite(ctx, indexName, batch)
			outcomes[i] = outcome{result: result, err: err}
		}(i, batch)
	}
	wg.Wait()

	for _, out := range outcomes {
		if out.err != nil {
			c.observeBatch("error", out.result)
			return fmt.Errorf("failed to dispatch bulk write batch: %w", out.err)
		}
		if len(out.result.Failures) > 0 {
			c.observeBatch("failed", out.result)
			return &BulkError{Index: indexName, Failures: out.result.Failures}
		}

		c.observeBatch("ok", out.result)
		c.logger.Info("documents have been successfully indexed",
			zap.String("index", indexName),
			zap.Int("count", out.result.Indexed),
			zap.Duration("took", out.result.Took))
	}
	return nil
}

// partition splits docs into slices of at most batchSize documents
func (c *Coordinator) partition(docs []Document) [][]Document {
	var batches [][]Document
	for len(docs) > c.batchSize {
		batches = append(batches, docs[:c.batchSize])
		docs = docs[c.batchSize:]
	}
	return append(batches, docs)
}

func (c *Coordinator) observeBatch(status string, result *BulkResult) {
	if c.metrics == nil {
		return
	}
	c.metrics.BulkBatchesTotal.WithLabelValues(status).Inc()
	if result != nil {
		c.metrics.BulkBatchDuration.Observe(result.Took.Seconds())
	}
}
