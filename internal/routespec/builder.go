package routespec

import (
	"errors"
	"fmt"

	"github.com/vpcrouter/topology-watcher/internal/models"
)

var (
	// ErrDuplicateCIDR means two differently named networks claim the
	// same prefix, which would make the routing target ambiguous.
	ErrDuplicateCIDR = errors.New("duplicate cidr in topology")

	// ErrSpecRejected means the built spec failed the sanity check of
	// the validation collaborator.
	ErrSpecRejected = errors.New("route spec rejected by validation")
)

// ValidateFunc is the pluggable cross-cutting sanity check run on every
// built route spec before it is returned.
type ValidateFunc func(models.RouteSpec) error

// Build folds a topology snapshot into a route spec: each network's
// prefix maps to its host addresses. A prefix claimed by more than one
// network fails the build, and a non-nil validate must accept the spec
// before it is returned. Nothing partial ever escapes.
func Build(snap models.TopologySnapshot, validate ValidateFunc) (models.RouteSpec, error) {
	var (
		spec  = make(models.RouteSpec, len(snap.Networks))
		owner = make(map[string]string, len(snap.Networks))
	)
	for name, entry := range snap.Networks {
		if prev, taken := owner[entry.CIDR]; taken {
			// map iteration order is random, keep the message stable
			first, second := prev, name
			if first > second {
				first, second = second, first
			}
			return nil, fmt.Errorf("%w: %s claimed by networks %q and %q",
				ErrDuplicateCIDR, entry.CIDR, first, second)
		}
		owner[entry.CIDR] = name
		spec[entry.CIDR] = append([]string(nil), entry.Hosts...)
	}
	if validate != nil {
		if err := validate(spec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSpecRejected, err)
		}
	}
	return spec, nil
}
