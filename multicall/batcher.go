package multicall

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Maia-DAO/smart-order-router/domain/slices"
	"github.com/Maia-DAO/smart-order-router/domain/workerpool"
	"github.com/Maia-DAO/smart-order-router/log"
)

var (
	batchRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sor_multicall_batch_retries_total",
			Help: "Total number of multicall batches split and retried after a batch-level failure",
		},
	)
	fatalCalls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sor_multicall_fatal_calls_total",
			Help: "Total number of calls abandoned after exhausting the halving depth",
		},
	)
)

func init() {
	prometheus.MustRegister(batchRetries)
	prometheus.MustRegister(fatalCalls)
}

// BatcherConfig tunes the halving batcher.
type BatcherConfig struct {
	// InitialBatchSize is the starting number of calls per batch.
	InitialBatchSize int
	// MaxRetries bounds the halving depth of a failing batch.
	MaxRetries int
	// Concurrency bounds parallel in-flight batches.
	Concurrency int
}

// Batcher executes large call sets through the multicall contract,
// splitting failing batches in half until they succeed or the halving depth
// is exhausted. Results preserve input order; per-call failures never abort
// a batch.
type Batcher struct {
	caller Caller
	config BatcherConfig
	logger log.Logger
}

// NewBatcher creates a halving batcher over the given multicall caller.
func NewBatcher(caller Caller, config BatcherConfig, logger log.Logger) *Batcher {
	if config.InitialBatchSize <= 0 {
		config.InitialBatchSize = 100
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}

	return &Batcher{
		caller: caller,
		config: config,
		logger: logger,
	}
}

// batchJob is one contiguous slice of the input call set.
type batchJob struct {
	start int
	calls []Call
	depth int
}

// batchOutcome pairs a job with its multicall results. err is batch-level;
// per-call failures live inside results.
type batchOutcome struct {
	job     batchJob
	results []Result
	block   uint64
	err     error
}

// Execute runs all calls and returns per-call results in input order,
// together with the block number the calls resolved at.
func (b *Batcher) Execute(ctx context.Context, calls []Call, blockNumber uint64) ([]Result, uint64, error) {
	if len(calls) == 0 {
		return nil, blockNumber, nil
	}

	results := make([]Result, len(calls))

	dispatcher := workerpool.NewDispatcher[batchOutcome](b.config.Concurrency)
	go dispatcher.Run()
	defer dispatcher.Stop()

	outstanding := 0
	submit := func(job batchJob) {
		outstanding++
		dispatcher.JobQueue <- workerpool.Job[batchOutcome]{
			Task: func() (batchOutcome, error) {
				batchResults, block, err := b.caller.Aggregate(ctx, job.calls, blockNumber)
				return batchOutcome{job: job, results: batchResults, block: block, err: err}, nil
			},
		}
	}

	start := 0
	for _, batch := range slices.Split(calls, b.config.InitialBatchSize) {
		submit(batchJob{start: start, calls: batch})
		start += len(batch)
	}

	var resolvedBlock uint64

	for outstanding > 0 {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case outcome := <-dispatcher.ResultQueue:
			outstanding--

			if outcome.Result.err != nil {
				job := outcome.Result.job

				// A single call or an exhausted halving depth terminates
				// with fatal results; the caller decides how to react.
				if len(job.calls) == 1 || job.depth >= b.config.MaxRetries {
					b.logger.Info("abandoning multicall batch",
						zap.Int("start", job.start),
						zap.Int("size", len(job.calls)),
						zap.Int("depth", job.depth),
						zap.Error(outcome.Result.err))

					for i := range job.calls {
						results[job.start+i] = Result{Fatal: true, Reason: outcome.Result.err.Error()}
						fatalCalls.Inc()
					}
					continue
				}

				// Halve and re-enqueue both halves.
				batchRetries.Inc()
				half := len(job.calls) / 2
				b.logger.Debug("splitting failed multicall batch",
					zap.Int("start", job.start),
					zap.Int("size", len(job.calls)),
					zap.Int("depth", job.depth))

				submit(batchJob{start: job.start, calls: job.calls[:half], depth: job.depth + 1})
				submit(batchJob{start: job.start + half, calls: job.calls[half:], depth: job.depth + 1})
				continue
			}

			resolvedBlock = outcome.Result.block
			copy(results[outcome.Result.job.start:], outcome.Result.results)
		}
	}

	return results, resolvedBlock, nil
}
