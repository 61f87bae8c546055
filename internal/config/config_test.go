package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Address:              "localhost",
		Port:                 2379,
		ConnectCheckInterval: 2 * time.Second,
		ClientTimeout:        2 * time.Second,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	ip := validConfig()
	ip.Address = "10.1.2.3"
	require.NoError(t, ip.Validate())

	hostname := validConfig()
	hostname.Address = "etcd.internal"
	require.Error(t, hostname.Validate())

	zeroPort := validConfig()
	zeroPort.Port = 0
	require.Error(t, zeroPort.Validate())

	highPort := validConfig()
	highPort.Port = 65535
	require.Error(t, highPort.Validate())

	noInterval := validConfig()
	noInterval.ConnectCheckInterval = 0
	require.Error(t, noInterval.Validate())

	noTimeout := validConfig()
	noTimeout.ClientTimeout = 0
	require.Error(t, noTimeout.Validate())
}
