// Package supervisor owns the lifecycle of the topology store
// connection: it connects, performs the initial topology load,
// registers the change watch and probes connection health, rebuilding
// everything from scratch whenever the connection is lost.
package supervisor

import (
	"context"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vpcrouter/topology-watcher/internal/loader"
	"github.com/vpcrouter/topology-watcher/internal/metrics"
	"github.com/vpcrouter/topology-watcher/internal/store"
)

// TopologyLoader refreshes the published route spec from the store.
// It absorbs its own failures, see the loader package.
type TopologyLoader interface {
	Load(ctx context.Context, kv loader.KV)
}

type Config struct {
	// Key is the well-known store key holding the topology document.
	Key string
	// ConnectCheckInterval is the pause between health probes while
	// watching, and caps the reconnect backoff.
	ConnectCheckInterval time.Duration
	// ClientTimeout bounds every single store call.
	ClientTimeout time.Duration
}

type Supervisor struct {
	cfg     Config
	dial    store.Dial
	loader  TopologyLoader
	metrics metrics.Metrics
	log     zerolog.Logger
}

func New(cfg Config, dial store.Dial, ldr TopologyLoader, m metrics.Metrics) *Supervisor {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Supervisor{
		cfg:     cfg,
		dial:    dial,
		loader:  ldr,
		metrics: m,
		log:     log.With().Str("key", cfg.Key).Logger(),
	}
}

// Run drives the connection state machine until ctx is canceled. Every
// pass through the loop starts from a clean slate: a fresh client, one
// synchronous topology load, then a registered watch. The returned
// error is always the context's; no store failure ever terminates Run.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		client, events, err := s.connect(ctx)
		if err != nil {
			// connect only gives up on context cancellation
			return err
		}
		s.watch(ctx, client, events)
		if err := client.Close(); err != nil {
			s.log.Debug().Err(err).Msg("closing store client")
		}
		if ctx.Err() == nil {
			s.log.Warn().Msg("lost topology store connection")
			s.metrics.Increment("store.reconnects")
		}
	}
}

// connect is the CONNECTING state: dial, initial load, watch
// registration. It retries with jittered exponential backoff until it
// succeeds or ctx is canceled.
func (s *Supervisor) connect(ctx context.Context) (store.Client, <-chan store.Event, error) {
	var (
		client store.Client
		events <-chan store.Event
	)
	err := retry.Do(
		func() error {
			var err error
			client, events, err = s.connectOnce(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxDelay(s.cfg.ConnectCheckInterval),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(_ uint, err error) {
			s.log.Debug().Err(err).Msg("cannot establish store connection and watch")
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, err
	}
	return client, events, nil
}

func (s *Supervisor) connectOnce(ctx context.Context) (store.Client, <-chan store.Event, error) {
	s.log.Debug().Msg("attempting to connect to topology store")
	client, err := s.dial(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store client: %w", err)
	}

	// The consumer gets a first route spec before the watch counts as
	// established. Load failures are absorbed inside the loader: a
	// reachable store holding a broken document must not keep us in a
	// reconnect loop.
	s.log.Debug().Msg("initial topology read")
	s.loader.Load(ctx, client)

	events, err := client.Watch(ctx, s.cfg.Key)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("registering watch on %s: %w", s.cfg.Key, err)
	}
	s.log.Info().Msg("established store connection and watch for topology data")
	return client, events, nil
}

// watch is the WATCHING state: react to change notifications and probe
// connection health until the watch dies, a probe fails or ctx ends.
// All connection state stays owned by this single loop, watch events
// arrive as channel messages rather than foreign-thread callbacks.
func (s *Supervisor) watch(ctx context.Context, client store.Client, events <-chan store.Event) {
	ticker := time.NewTicker(s.cfg.ConnectCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				s.log.Warn().Msg("watch channel closed")
				return
			}
			if ev.Err != nil {
				s.log.Warn().Err(ev.Err).Msg("watch failed")
				return
			}
			s.log.Info().Msg("detected change in topology data")
			s.metrics.Increment("topology.change_events")
			s.loader.Load(ctx, client)
		case <-ticker.C:
			if err := s.probe(ctx, client); err != nil {
				s.log.Warn().Err(err).Msg("store health probe failed")
				return
			}
		}
	}
}

func (s *Supervisor) probe(ctx context.Context, client store.Client) error {
	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.ClientTimeout)
	defer cancel()
	return client.Status(probeCtx)
}
