package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	metrics "github.com/rcrowley/go-metrics"

	"github.com/pior/mctext/text"
)

var (
	ErrNotStored     = errors.New("bench: value not stored")
	ErrMiss          = errors.New("bench: key not found after set")
	ErrValueMismatch = errors.New("bench: value read back differs from value written")
)

// Request outcomes reported to the Observer.
const (
	OutcomeOK       = "ok"
	OutcomeMiss     = "miss"
	OutcomeMismatch = "mismatch"
	OutcomeError    = "error"
)

// Observer receives the duration and outcome of every request.
type Observer interface {
	Observe(op string, d time.Duration, outcome string)
}

type Config struct {
	// Requests is the number of set+get pairs to run.
	Requests int

	// Key is written and read back by every pair.
	Key string

	// Value is written by every set and expected back from every get.
	Value []byte

	// Registry receives the "set" and "get" timers.
	// If nil, a new registry is created.
	Registry metrics.Registry

	// Observer, if set, is notified of every request.
	Observer Observer

	// Logger receives progress at debug level. If nil, events are discarded.
	Logger *slog.Logger
}

// Runner performs constant-key set+get pairs and verifies each value read
// back byte for byte.
type Runner struct {
	cache    Cache
	config   Config
	registry metrics.Registry
	setTimer metrics.Timer
	getTimer metrics.Timer
	logger   *slog.Logger
}

func NewRunner(cache Cache, config Config) *Runner {
	registry := config.Registry
	if registry == nil {
		registry = metrics.NewRegistry()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Runner{
		cache:    cache,
		config:   config,
		registry: registry,
		setTimer: metrics.GetOrRegisterTimer("set", registry),
		getTimer: metrics.GetOrRegisterTimer("get", registry),
		logger:   logger,
	}
}

// Run executes the configured number of pairs. It stops at the first
// failure; the returned Result covers the pairs completed until then.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	r.logger.Debug("bench: starting", "requests", r.config.Requests, "key", r.config.Key, "size", len(r.config.Value))

	start := time.Now()
	for i := range r.config.Requests {
		if err := ctx.Err(); err != nil {
			return r.result(i, time.Since(start)), err
		}
		if err := r.set(ctx); err != nil {
			return r.result(i, time.Since(start)), fmt.Errorf("request %d: %w", i, err)
		}
		if err := r.get(ctx); err != nil {
			return r.result(i, time.Since(start)), fmt.Errorf("request %d: %w", i, err)
		}
	}

	result := r.result(r.config.Requests, time.Since(start))
	r.logger.Debug("bench: done", "elapsed", result.Elapsed)
	return result, nil
}

func (r *Runner) set(ctx context.Context) error {
	began := time.Now()
	stored, err := r.cache.Set(ctx, r.config.Key, r.config.Value)
	r.setTimer.UpdateSince(began)

	switch {
	case err != nil:
		r.observe("set", began, OutcomeError)
		return fmt.Errorf("set: %w", err)
	case !stored:
		r.observe("set", began, OutcomeError)
		return ErrNotStored
	}
	r.observe("set", began, OutcomeOK)
	return nil
}

func (r *Runner) get(ctx context.Context) error {
	began := time.Now()
	value, found, err := r.cache.Get(ctx, r.config.Key)
	r.getTimer.UpdateSince(began)

	switch {
	case err != nil:
		r.observe("get", began, OutcomeError)
		return fmt.Errorf("get: %w", err)
	case !found:
		r.observe("get", began, OutcomeMiss)
		return ErrMiss
	case !text.Equal(value, r.config.Value):
		r.observe("get", began, OutcomeMismatch)
		return ErrValueMismatch
	}
	r.observe("get", began, OutcomeOK)
	return nil
}

func (r *Runner) observe(op string, began time.Time, outcome string) {
	if r.config.Observer != nil {
		r.config.Observer.Observe(op, time.Since(began), outcome)
	}
}

func (r *Runner) result(requests int, elapsed time.Duration) Result {
	return Result{
		Requests: requests,
		Elapsed:  elapsed,
		Set:      summarize(r.setTimer),
		Get:      summarize(r.getTimer),
	}
}

// WriteMetrics writes every metric of the registry to w.
func (r *Runner) WriteMetrics(w io.Writer) {
	metrics.WriteOnce(r.registry, w)
}

// Result summarizes a run.
type Result struct {
	Requests int
	Elapsed  time.Duration
	Set      Latency
	Get      Latency
}

// Latency summarizes the timings of one operation.
type Latency struct {
	Count int64
	Mean  time.Duration
	P50   time.Duration
	P99   time.Duration
	Max   time.Duration
}

func summarize(timer metrics.Timer) Latency {
	snap := timer.Snapshot()
	ps := snap.Percentiles([]float64{0.5, 0.99})
	return Latency{
		Count: snap.Count(),
		Mean:  time.Duration(snap.Mean()),
		P50:   time.Duration(ps[0]),
		P99:   time.Duration(ps[1]),
		Max:   time.Duration(snap.Max()),
	}
}

// RequestsPerSecond returns the set+get pairs completed per second.
func (r Result) RequestsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Requests) / r.Elapsed.Seconds()
}

func (r Result) String() string {
	return fmt.Sprintf("Made %d constant key set+get requests in %.6g seconds = %.6g requests/sec",
		r.Requests, r.Elapsed.Seconds(), r.RequestsPerSecond())
}

func (l Latency) String() string {
	return fmt.Sprintf("count=%d mean=%s p50=%s p99=%s max=%s", l.Count, l.Mean, l.P50, l.P99, l.Max)
}
