package etcd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/vpcrouter/topology-watcher/internal/store"
)

type Config struct {
	Address string
	Port    uint16
	Timeout time.Duration
}

// Client binds store.Client to etcd. It carries at most one active
// watch; Close cancels it together with the connection.
type Client struct {
	etcd        *clientv3.Client
	endpoint    string
	timeout     time.Duration
	watchCancel context.CancelFunc
}

// Dialer returns a store.Dial that opens etcd clients for cfg.
func Dialer(cfg Config) store.Dial {
	return func(ctx context.Context) (store.Client, error) {
		return dial(ctx, cfg)
	}
}

func dial(ctx context.Context, cfg Config) (*Client, error) {
	endpoint := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)
	clnt, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{endpoint},
		DialTimeout: cfg.Timeout,
		Context:     ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return &Client{
		etcd:     clnt,
		endpoint: endpoint,
		timeout:  cfg.Timeout,
	}, nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.etcd.KV.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("no value stored at %s", key)
	}
	return resp.Kvs[0].Value, nil
}

// Watch registers a watch on key and waits for etcd to confirm it, so
// a dead endpoint fails here instead of silently in the background.
func (c *Client) Watch(ctx context.Context, key string) (<-chan store.Event, error) {
	watchCtx, cancel := context.WithCancel(clientv3.WithRequireLeader(ctx))
	watchChan := c.etcd.Watch(watchCtx, key, clientv3.WithCreatedNotify())

	select {
	case resp, ok := <-watchChan:
		if !ok {
			cancel()
			return nil, errors.New("watch channel closed before creation")
		}
		if err := resp.Err(); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to register watch on %s: %w", key, err)
		}
	case <-time.After(c.timeout):
		cancel()
		return nil, fmt.Errorf("timed out registering watch on %s", key)
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}

	c.watchCancel = cancel
	events := make(chan store.Event, 1)
	go c.forward(watchCtx, watchChan, events)
	return events, nil
}

// forward translates raw etcd watch responses into store events and
// exits when the watch dies or is canceled.
func (c *Client) forward(ctx context.Context, watchChan clientv3.WatchChan, events chan<- store.Event) {
	defer close(events)
	logger := log.With().Str("endpoint", c.endpoint).Logger()
	for resp := range watchChan {
		if resp.Canceled {
			c.send(ctx, events, store.Event{
				Err: fmt.Errorf("watch canceled: %w", resp.Err()),
			})
			return
		}
		if err := resp.Err(); err != nil {
			c.send(ctx, events, store.Event{
				Err: fmt.Errorf("watch failure: %w", err),
			})
			return
		}
		if resp.IsProgressNotify() || len(resp.Events) == 0 {
			continue
		}
		for _, ev := range resp.Events {
			if ev.Type == mvccpb.DELETE {
				logger.Debug().Str("key", string(ev.Kv.Key)).Msg("watched key deleted")
			}
		}
		c.send(ctx, events, store.Event{})
	}
}

func (c *Client) send(ctx context.Context, events chan<- store.Event, ev store.Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// Status probes the endpoint through the maintenance API.
func (c *Client) Status(ctx context.Context) error {
	_, err := c.etcd.Maintenance.Status(ctx, c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to get status from etcd: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c.watchCancel != nil {
		c.watchCancel()
	}
	if err := c.etcd.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close etcd client: %w", err)
	}
	return nil
}
