// Package store defines the connection surface to the remote topology
// store. The supervisor only ever talks to this interface; the etcd
// binding lives in the etcd subpackage.
package store

import "context"

// Event is one change notification from an active watch. A non-nil Err
// means the watch itself broke and the connection must be treated as
// lost; no further events follow it.
type Event struct {
	Err error
}

// Client is an open connection to the topology store. A client carries
// at most one active watch and is discarded as a whole on reconnect.
type Client interface {
	// Get returns the current value stored at key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Watch registers a change watch on key. Notifications arrive on
	// the returned channel until the watch fails or the client closes.
	Watch(ctx context.Context, key string) (<-chan Event, error)
	// Status probes liveness of the connection.
	Status(ctx context.Context) error
	// Close cancels the active watch and tears the connection down.
	Close() error
}

// Dial opens a fresh client. Called once per reconnect attempt.
type Dial func(ctx context.Context) (Client, error)
