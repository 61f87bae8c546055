package sink

import (
	"sync/atomic"

	"github.com/vpcrouter/topology-watcher/internal/models"
)

// RouteSpecSink hands built route specs to the downstream consumer.
// Publishes conflate: if the consumer has not yet read the previous
// spec, the new one replaces it, so a read always observes the latest
// completed publish. Publish never blocks the producer.
type RouteSpecSink struct {
	specs  chan models.RouteSpec
	closed atomic.Bool
	close  chan struct{}
}

func New() *RouteSpecSink {
	return &RouteSpecSink{
		specs: make(chan models.RouteSpec, 1),
		close: make(chan struct{}),
	}
}

// Publish delivers spec to the consumer, superseding any unread one.
// Specs published after Close are dropped.
func (s *RouteSpecSink) Publish(spec models.RouteSpec) {
	if s.closed.Load() {
		return
	}
	for {
		select {
		case s.specs <- spec:
			return
		case <-s.close:
			return
		default:
		}
		// drop the stale unread spec, the new one supersedes it
		select {
		case <-s.specs:
		default:
		}
	}
}

func (s *RouteSpecSink) Updates() <-chan models.RouteSpec {
	return s.specs
}

// Close stops accepting publishes. The updates channel stays open so a
// lagging consumer can still drain the last spec.
func (s *RouteSpecSink) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.close)
	}
}
