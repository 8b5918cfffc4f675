// Package rowpipe executes declarative plans of tabular operations over
// in-memory datasets. A plan is an ordered list of operations (filter,
// groupBy, orderBy, select, mapColumn, combineColumns, convertUnits,
// dateDiff, formatDates, unwindArray, limit, offset, drop), typically
// produced by an LLM from a natural-language request. Execution yields the
// transformed dataset plus a narration of what was done, or a single
// descriptive error suitable for feeding back to the plan producer.
package rowpipe

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/rowpipe/rowpipe/internal/config"
	"github.com/rowpipe/rowpipe/internal/engine"
	"github.com/rowpipe/rowpipe/internal/plan"
	"github.com/rowpipe/rowpipe/internal/units"
	"github.com/rowpipe/rowpipe/internal/value"
)

// Cell and dataset types, re-exported for callers.
type (
	Value   = value.Value
	Row     = value.Row
	Dataset = value.Dataset
)

// Cell constructors.
var (
	Null    = value.Null
	Str     = value.Str
	Num     = value.Num
	Bool    = value.Bool
	Object  = value.Object
	Array   = value.Array
	FromAny = value.FromAny
)

// Plan is a decoded operation plan.
type Plan = plan.Plan

// ParsePlan decodes and repairs a JSON plan.
func ParsePlan(data []byte) (*Plan, error) { return plan.Parse(data) }

// Result is the outcome of a successful execution.
type Result = engine.Result

// Config tunes execution: parallelism, currency rate fetching, and the
// narration locale.
type Config = config.Config

// NewConfig returns the default configuration.
func NewConfig() Config { return config.NewConfig() }

// RateSource supplies USD-based currency exchange rates for the
// currency-to-currency cases of convertUnits.
type RateSource = units.RateSource

type options struct {
	cfg    Config
	logger *slog.Logger
	source RateSource
	now    func() time.Time
}

// Option customizes a Pipeline.
type Option func(*options)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg.WithDefaults() }
}

// WithLogger attaches a logger. Without one, logs are discarded; logging
// never changes computed results.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRateSource replaces the HTTP exchange-rate client, e.g. with a fixture
// in tests or an alternative provider.
func WithRateSource(source RateSource) Option {
	return func(o *options) { o.source = source }
}

// WithClock pins the current time used by relative date keywords such as
// today() in dateDiff.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Pipeline is a reusable plan executor. It is safe for concurrent use.
type Pipeline struct {
	engine *engine.Engine
}

// New builds a Pipeline. All options are optional; the zero setup executes
// plans with default configuration, discarded logs, and live currency rates.
func New(opts ...Option) *Pipeline {
	o := options{cfg: config.NewConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.source == nil {
		o.source = &units.HTTPRateSource{
			BaseURL: o.cfg.RateAPIBaseURL,
			APIKey:  os.Getenv(o.cfg.RateAPIKeyEnv),
			Logger:  o.logger,
		}
	}

	cache := units.NewRateCache(o.source, o.cfg.RateCacheTTL)
	converter := units.NewConverter(cache, o.logger)

	eng := engine.New(o.cfg, o.logger, converter)
	if o.now != nil {
		eng.WithClock(o.now)
	}
	return &Pipeline{engine: eng}
}

// Execute runs the plan against the dataset. columns names the dataset's
// columns in row order; rows hold data only, no header. On success the
// result's Dataset starts with a header row, followed by the transformed
// rows. On failure nothing is returned besides the error; there is no
// partially transformed state.
func (p *Pipeline) Execute(ctx context.Context, columns []string, rows Dataset, pl *Plan) (*Result, error) {
	return p.engine.Execute(ctx, columns, rows, pl)
}

// ExecuteJSON parses planJSON and executes it.
func (p *Pipeline) ExecuteJSON(ctx context.Context, columns []string, rows Dataset, planJSON []byte) (*Result, error) {
	pl, err := ParsePlan(planJSON)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, columns, rows, pl)
}

// Close releases the pipeline's worker pool.
func (p *Pipeline) Close() {
	p.engine.Close()
}
