package routespec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vpcrouter/topology-watcher/internal/models"
)

func TestBuildRouteSpec(t *testing.T) {
	snap := models.TopologySnapshot{
		Networks: map[string]models.NetworkEntry{
			"net1": {CIDR: "10.0.0.0/24", Hosts: []string{"10.0.0.1", "10.0.0.2"}},
			"net2": {CIDR: "10.1.0.0/16", Hosts: []string{"10.1.0.1"}},
		},
	}

	spec, err := Build(snap, ValidateRouteSpec)
	require.NoError(t, err)
	require.Equal(t, models.RouteSpec{
		"10.0.0.0/24": {"10.0.0.1", "10.0.0.2"},
		"10.1.0.0/16": {"10.1.0.1"},
	}, spec)
}

func TestBuildRejectsDuplicateCIDR(t *testing.T) {
	snap := models.TopologySnapshot{
		Networks: map[string]models.NetworkEntry{
			"net1": {CIDR: "10.0.0.0/24", Hosts: []string{"10.0.0.1"}},
			"net2": {CIDR: "10.0.0.0/24", Hosts: []string{"10.0.0.2"}},
		},
	}

	spec, err := Build(snap, ValidateRouteSpec)
	require.ErrorIs(t, err, ErrDuplicateCIDR)
	require.Nil(t, spec)
}

func TestBuildValidatorRejection(t *testing.T) {
	snap := models.TopologySnapshot{
		Networks: map[string]models.NetworkEntry{
			"net1": {CIDR: "10.0.0.0/24", Hosts: []string{"10.0.0.1"}},
		},
	}
	rejected := errors.New("policy violation")

	spec, err := Build(snap, func(models.RouteSpec) error { return rejected })
	require.ErrorIs(t, err, ErrSpecRejected)
	require.Nil(t, spec)
}

func TestBuildCopiesHostLists(t *testing.T) {
	hosts := []string{"10.0.0.1"}
	snap := models.TopologySnapshot{
		Networks: map[string]models.NetworkEntry{
			"net1": {CIDR: "10.0.0.0/24", Hosts: hosts},
		},
	}

	spec, err := Build(snap, nil)
	require.NoError(t, err)

	hosts[0] = "mutated"
	require.Equal(t, []string{"10.0.0.1"}, spec["10.0.0.0/24"])
}

func TestValidateRouteSpec(t *testing.T) {
	require.NoError(t, ValidateRouteSpec(models.RouteSpec{
		"10.0.0.0/24": {"10.0.0.1"},
	}))
	require.Error(t, ValidateRouteSpec(models.RouteSpec{
		"not-a-cidr": {"10.0.0.1"},
	}))
	require.Error(t, ValidateRouteSpec(models.RouteSpec{
		"10.0.0.0/24": {"not-an-ip"},
	}))
}
