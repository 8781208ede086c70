package governor

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/joseph-ayodele/decisions-tracker/internal/common"
	"github.com/joseph-ayodele/decisions-tracker/internal/metrics"
)

const (
	DefaultMaxDocumentTime = 40 * time.Second
	DefaultMemoryThreshold = 0.82
)

// YieldFunc hands control back to the host between pages. A non-nil error
// stops the run the same way a cancellation does.
type YieldFunc func(ctx context.Context) error

// MemoryProbe reports memory pressure as used/limit in [0,1].
type MemoryProbe func() float64

// Sink receives document snapshots whenever a document stops being
// processed (done, error, paused or cancelled).
type Sink interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

type Option func(*Governor)

func WithMaxDocumentTime(d time.Duration) Option {
	return func(g *Governor) {
		if d > 0 {
			g.maxDocTime = d
		}
	}
}

func WithMemoryThreshold(ratio float64) Option {
	return func(g *Governor) {
		if ratio > 0 && ratio <= 1 {
			g.memThreshold = ratio
		}
	}
}

func WithMemoryProbe(p MemoryProbe) Option {
	return func(g *Governor) {
		if p != nil {
			g.memory = p
		}
	}
}

func WithYield(y YieldFunc) Option {
	return func(g *Governor) {
		if y != nil {
			g.yield = y
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Governor) {
		if now != nil {
			g.now = now
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Governor) {
		if m != nil {
			g.metrics = m
		}
	}
}

func WithCrossDocumentMerge(on bool) Option {
	return func(g *Governor) { g.crossMerge = on }
}

func WithSink(s Sink) Option {
	return func(g *Governor) { g.sink = s }
}

// OptionsFromConfig maps the governor section of the config file.
func OptionsFromConfig(cfg common.GovernorConfig) []Option {
	return []Option{
		WithMaxDocumentTime(cfg.MaxDocumentTime),
		WithMemoryThreshold(cfg.MemoryPressureThreshold),
		WithMemoryProbe(RuntimeMemoryProbe(cfg.MemoryLimitBytes)),
		WithCrossDocumentMerge(cfg.CrossDocumentMerge),
	}
}

func gosched(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// RuntimeMemoryProbe compares the live heap against limit. With limit 0 the
// runtime soft memory limit is used; without one the probe reports 0.
func RuntimeMemoryProbe(limit uint64) MemoryProbe {
	return func() float64 {
		l := limit
		if l == 0 {
			soft := debug.SetMemoryLimit(-1)
			if soft <= 0 || soft == math.MaxInt64 {
				return 0
			}
			l = uint64(soft)
		}
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return float64(ms.HeapAlloc) / float64(l)
	}
}
