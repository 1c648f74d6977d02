// Package aggregate fills containers from sharded data in parallel and
// reduces the per-shard partials into one result.
package aggregate

import (
	"context"
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"histodb/core"
)

// Sink receives every shard partial before the reduction.
type Sink interface {
	Put(name string, shard int64, c core.Container) error
}

// Weighted is a datum filled with an explicit weight; any other datum is
// filled with weight 1.
type Weighted struct {
	Datum  interface{}
	Weight float64
}

type options struct {
	workers int
	logger  *zap.Logger
	meter   metric.Meter
	sink    Sink
	name    string
}

type Option func(*options)

// WithWorkers bounds the number of shards filled at once. Zero or less means
// GOMAXPROCS.
func WithWorkers(workers int) Option {
	return func(o *options) {
		o.workers = workers
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithStore hands every shard partial to sink under name.
func WithStore(sink Sink, name string) Option {
	return func(o *options) {
		o.sink = sink
		o.name = name
	}
}

type Pipeline struct {
	template core.Container
	workers  int
	logger   *zap.Logger
	sink     Sink
	name     string

	fills    metric.Int64Counter
	combines metric.Int64Counter
}

// NewPipeline prepares a pipeline that fills Zero copies of template.
func NewPipeline(template core.Container, opts ...Option) (*Pipeline, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.workers <= 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.meter == nil {
		o.meter = noop.NewMeterProvider().Meter("histodb/aggregate")
	}

	fills, err := o.meter.Int64Counter("histodb.fills",
		metric.WithDescription("Data filled into shard partials"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	combines, err := o.meter.Int64Counter("histodb.combines",
		metric.WithDescription("Pairwise combines performed while reducing partials"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		template: template,
		workers:  o.workers,
		logger:   o.logger.With(zap.String("container", template.Name())),
		sink:     o.sink,
		name:     o.name,
		fills:    fills,
		combines: combines,
	}, nil
}

// Run fills each shard into its own partial and returns their combination.
// Failing shards are reported together; a cancelled context stops the run.
func (pipeline *Pipeline) Run(ctx context.Context, shards [][]interface{}) (core.Container, error) {
	partials := make([]core.Container, len(shards))
	errs := make([]error, len(shards))

	g := new(errgroup.Group)
	g.SetLimit(pipeline.workers)
	for i := range shards {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partial, err := pipeline.fillShard(ctx, shards[i])
			if err != nil {
				errs[i] = fmt.Errorf("shard %d: %w", i, err)
				return ctx.Err()
			}
			if pipeline.sink != nil {
				if err := pipeline.sink.Put(pipeline.name, int64(i), partial); err != nil {
					errs[i] = fmt.Errorf("shard %d: %w", i, err)
					return nil
				}
			}
			partials[i] = partial
			pipeline.logger.Debug("filled shard",
				zap.Int("shard", i),
				zap.Int("data", len(shards[i])),
				zap.Float64("entries", partial.Entries()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}

	result, err := pipeline.Reduce(ctx, partials)
	if err != nil {
		return nil, err
	}
	pipeline.logger.Info("reduced shards",
		zap.Int("shards", len(shards)),
		zap.Float64("entries", result.Entries()))
	return result, nil
}

func (pipeline *Pipeline) fillShard(ctx context.Context, data []interface{}) (core.Container, error) {
	partial := pipeline.template.Zero()
	for j, datum := range data {
		if j%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		weight := 1.0
		if w, ok := datum.(Weighted); ok {
			datum, weight = w.Datum, w.Weight
		}
		if err := partial.Fill(datum, weight); err != nil {
			return nil, fmt.Errorf("datum %d: %w", j, err)
		}
	}
	pipeline.fills.Add(ctx, int64(len(data)))
	return partial, nil
}

// Reduce is the package Reduce, counted against the pipeline's meter.
func (pipeline *Pipeline) Reduce(ctx context.Context, partials []core.Container) (core.Container, error) {
	result, err := Reduce(partials)
	if err != nil {
		return nil, err
	}
	pipeline.combines.Add(ctx, int64(len(partials)-1))
	return result, nil
}
