package topology

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vpcrouter/topology-watcher/internal/models"
)

// ErrMalformedDocument marks a structural failure of the topology
// document: wrong JSON, a missing required field or a type mismatch.
var ErrMalformedDocument = errors.New("malformed topology document")

// Pointer fields so that an absent key is distinguishable from a zero
// value; any absence fails the whole parse.
type hostDoc struct {
	IP *string `json:"ip"`
}

type groupsDoc struct {
	CIDR  *string    `json:"cidr"`
	Hosts *[]hostDoc `json:"hosts"`
}

type networkDoc struct {
	Groups *groupsDoc `json:"groups"`
}

type document struct {
	Networks map[string]networkDoc `json:"networks"`
}

// Parse decodes a raw IPAM document into a topology snapshot. The shape
// is fixed: {"networks": {<name>: {"groups": {"cidr": ..., "hosts":
// [{"ip": ...}, ...]}}}}. Parsing is strict and whole-or-nothing, no
// entry is ever silently dropped. CIDR and address syntax is not
// checked here, that is the route-spec validator's job.
func Parse(raw []byte) (models.TopologySnapshot, error) {
	doc := document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.TopologySnapshot{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc.Networks == nil {
		return models.TopologySnapshot{}, fmt.Errorf("%w: missing networks field", ErrMalformedDocument)
	}

	snap := models.TopologySnapshot{
		Networks: make(map[string]models.NetworkEntry, len(doc.Networks)),
	}
	for name, network := range doc.Networks {
		if network.Groups == nil {
			return models.TopologySnapshot{}, fmt.Errorf(
				"%w: network %q has no groups field", ErrMalformedDocument, name)
		}
		if network.Groups.CIDR == nil {
			return models.TopologySnapshot{}, fmt.Errorf(
				"%w: network %q has no cidr field", ErrMalformedDocument, name)
		}
		if network.Groups.Hosts == nil {
			return models.TopologySnapshot{}, fmt.Errorf(
				"%w: network %q has no hosts field", ErrMalformedDocument, name)
		}
		hosts := make([]string, 0, len(*network.Groups.Hosts))
		for i, host := range *network.Groups.Hosts {
			if host.IP == nil {
				return models.TopologySnapshot{}, fmt.Errorf(
					"%w: network %q host %d has no ip field", ErrMalformedDocument, name, i)
			}
			hosts = append(hosts, *host.IP)
		}
		snap.Networks[name] = models.NetworkEntry{
			CIDR:  *network.Groups.CIDR,
			Hosts: hosts,
		}
	}
	return snap, nil
}
