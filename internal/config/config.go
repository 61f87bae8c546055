package config

import (
	"fmt"
	"net"
	"time"
)

// Config holds the watcher plugin settings supplied by the host.
type Config struct {
	Address              string        `envconfig:"ETCD_ADDRESS,default=localhost"`
	Port                 uint16        `envconfig:"ETCD_PORT,default=2379"`
	ConnectCheckInterval time.Duration `envconfig:"CONNECT_CHECK_INTERVAL,default=2s"`
	ClientTimeout        time.Duration `envconfig:"CLIENT_TIMEOUT,default=2s"`
}

// Validate sanity checks the store coordinates: the port must be in
// range and the address must be localhost or a plain IP address.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65534 {
		return fmt.Errorf("invalid etcd port %d", c.Port)
	}
	if c.Address != "localhost" && net.ParseIP(c.Address) == nil {
		return fmt.Errorf("invalid etcd address %q", c.Address)
	}
	if c.ConnectCheckInterval <= 0 {
		return fmt.Errorf("connect check interval must be positive, got %s", c.ConnectCheckInterval)
	}
	if c.ClientTimeout <= 0 {
		return fmt.Errorf("client timeout must be positive, got %s", c.ClientTimeout)
	}
	return nil
}
