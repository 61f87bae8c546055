package loader

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vpcrouter/topology-watcher/internal/metrics"
	"github.com/vpcrouter/topology-watcher/internal/models"
	"github.com/vpcrouter/topology-watcher/internal/routespec"
	"github.com/vpcrouter/topology-watcher/internal/topology"
)

// KV is the read side of a topology store connection.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

type Sink interface {
	Publish(models.RouteSpec)
}

// Loader turns the current topology document into a route spec and
// publishes it: fetch, parse, build, validate, publish, as one unit.
type Loader struct {
	key      string
	validate routespec.ValidateFunc
	sink     Sink
	metrics  metrics.Metrics
	log      zerolog.Logger
}

func New(key string, validate routespec.ValidateFunc, sink Sink, m metrics.Metrics) *Loader {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Loader{
		key:      key,
		validate: validate,
		sink:     sink,
		metrics:  m,
		log:      log.With().Str("key", key).Logger(),
	}
}

// Load fetches the latest topology document and publishes the route
// spec built from it. Any stage failure aborts this load only: it is
// logged and counted, nothing is published, and the previously
// published spec stays the consumer's last known good state.
func (l *Loader) Load(ctx context.Context, kv KV) {
	if err := l.load(ctx, kv); err != nil {
		l.log.Error().Err(err).Msg("cannot load topology data")
		l.metrics.Increment("topology.load.failed")
	}
}

func (l *Loader) load(ctx context.Context, kv KV) error {
	raw, err := kv.Get(ctx, l.key)
	if err != nil {
		return fmt.Errorf("fetching topology document: %w", err)
	}
	snap, err := topology.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing topology document: %w", err)
	}
	spec, err := routespec.Build(snap, l.validate)
	if err != nil {
		return fmt.Errorf("building route spec: %w", err)
	}
	l.sink.Publish(spec)
	l.metrics.Increment("topology.load.ok")
	l.metrics.Gauge("routespec.routes", len(spec))
	l.log.Debug().Int("routes", len(spec)).Msg("published new route spec")
	return nil
}
