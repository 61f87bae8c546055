package models

// TopologySnapshot is one parsed IPAM topology document. It is built
// whole-or-nothing: a snapshot only exists if every network entry in the
// document parsed successfully.
type TopologySnapshot struct {
	Networks map[string]NetworkEntry
}

// NetworkEntry describes a single named network in the topology: its
// prefix and the hosts that carry traffic for it. Host order and
// duplicates are kept as found in the document.
type NetworkEntry struct {
	CIDR  string
	Hosts []string
}

// RouteSpec maps a network prefix to the host addresses that should
// receive traffic for it. This is the artifact published downstream;
// once published it is never mutated, a newer spec supersedes it.
type RouteSpec map[string][]string
