// Package watcher is the host-facing surface of the topology watcher
// plugins: the lifecycle interface every plugin implements and a
// by-name registry the host uses to build the configured one.
package watcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/vpcrouter/topology-watcher/internal/config"
	"github.com/vpcrouter/topology-watcher/internal/metrics"
	"github.com/vpcrouter/topology-watcher/internal/sink"
)

// Plugin produces route specs from some topology source for the
// lifetime between Start and Stop.
type Plugin interface {
	Name() string
	// Start begins watching in the background and returns immediately.
	Start(ctx context.Context) error
	// Stop shuts the watcher down and waits until its background work
	// has fully exited. No publish happens after Stop returns.
	Stop() error
}

// Factory builds a plugin publishing into specs.
type Factory func(cfg config.Config, specs *sink.RouteSpecSink, m metrics.Metrics) (Plugin, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a plugin factory available by name, to be called from
// the plugin's init. Registering a name twice is a programming error.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("watcher: plugin %q registered twice", name))
	}
	registry[name] = f
}

// New builds the named plugin.
func New(name string, cfg config.Config, specs *sink.RouteSpecSink, m metrics.Metrics) (Plugin, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown watcher plugin %q", name)
	}
	return f(cfg, specs, m)
}
