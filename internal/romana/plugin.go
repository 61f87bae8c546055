// Package romana is the watcher plugin observing the topology
// information maintained by Romana in etcd.
package romana

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vpcrouter/topology-watcher/internal/config"
	"github.com/vpcrouter/topology-watcher/internal/loader"
	"github.com/vpcrouter/topology-watcher/internal/metrics"
	"github.com/vpcrouter/topology-watcher/internal/routespec"
	"github.com/vpcrouter/topology-watcher/internal/sink"
	etcdstore "github.com/vpcrouter/topology-watcher/internal/store/etcd"
	"github.com/vpcrouter/topology-watcher/internal/supervisor"
	"github.com/vpcrouter/topology-watcher/pkg/watcher"
)

const (
	// Name is the registry name of this plugin.
	Name = "romana"
	// TopologyKey is the well-known etcd key holding the IPAM dataset.
	TopologyKey = "/romana/ipam/data"
)

func init() {
	watcher.Register(Name, func(cfg config.Config, specs *sink.RouteSpecSink, m metrics.Metrics) (watcher.Plugin, error) {
		return New(cfg, specs, m), nil
	})
}

// Plugin adapts the supervisor loop to the host's start/stop lifecycle.
// Start must be called before Stop; both are safe to call once each
// from any goroutine, repeated calls are no-ops.
type Plugin struct {
	sup       *supervisor.Supervisor
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

func New(cfg config.Config, specs *sink.RouteSpecSink, m metrics.Metrics) *Plugin {
	ldr := loader.New(TopologyKey, routespec.ValidateRouteSpec, specs, m)
	dial := etcdstore.Dialer(etcdstore.Config{
		Address: cfg.Address,
		Port:    cfg.Port,
		Timeout: cfg.ClientTimeout,
	})
	sup := supervisor.New(supervisor.Config{
		Key:                  TopologyKey,
		ConnectCheckInterval: cfg.ConnectCheckInterval,
		ClientTimeout:        cfg.ClientTimeout,
	}, dial, ldr, m)
	return &Plugin{
		sup:  sup,
		done: make(chan struct{}),
	}
}

func (p *Plugin) Name() string {
	return Name
}

// Start spawns the supervisor loop and returns immediately.
func (p *Plugin) Start(ctx context.Context) error {
	p.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		p.cancel = cancel
		go func() {
			defer close(p.done)
			_ = p.sup.Run(runCtx)
		}()
		log.Info().Msg("romana watcher plugin: starting to watch for topology updates")
	})
	return nil
}

// Stop cancels the supervisor loop and blocks until it has exited, so
// no load can run against a torn-down connection afterwards.
func (p *Plugin) Stop() error {
	p.stopOnce.Do(func() {
		if p.cancel == nil {
			return
		}
		log.Debug().Msg("romana watcher plugin: sending stop signal to supervisor loop")
		p.cancel()
		<-p.done
		log.Info().Msg("romana watcher plugin: stopped")
	})
	return nil
}
