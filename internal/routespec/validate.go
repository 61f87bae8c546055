package routespec

import (
	"fmt"
	"net"

	"github.com/vpcrouter/topology-watcher/internal/models"
)

// ValidateRouteSpec is the default validation collaborator: every key
// must be a parseable CIDR and every host a parseable IP address.
func ValidateRouteSpec(spec models.RouteSpec) error {
	for cidr, hosts := range spec {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("invalid cidr %q: %w", cidr, err)
		}
		for _, host := range hosts {
			if net.ParseIP(host) == nil {
				return fmt.Errorf("invalid host address %q for cidr %q", host, cidr)
			}
		}
	}
	return nil
}
