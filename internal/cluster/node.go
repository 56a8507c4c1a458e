// Package cluster describes the local node's attachment to the coordination
// service. Configset management is only allowed while the node is attached.
package cluster

import (
	"slices"
	"sync"
)

// Config represents the cluster section of the daemon configuration.
type Config struct {
	Enabled      bool     `mapstructure:"enabled"`      // run in cluster-coordinated mode
	NodeName     string   `mapstructure:"node_name"`    // name reported by system.ping
	Coordinators []string `mapstructure:"coordinators"` // coordination service addresses
}

// Node is the host reference handed to the configsets handler.
type Node struct {
	mu           sync.RWMutex
	name         string
	coordinators []string
	attached     bool
}

// NewNode creates a node from cfg. The node starts attached when cluster
// mode is enabled and at least one coordinator is configured.
func NewNode(cfg Config) *Node {
	n := &Node{
		name:         cfg.NodeName,
		coordinators: slices.Clone(cfg.Coordinators),
	}
	n.attached = cfg.Enabled && len(n.coordinators) > 0
	return n
}

// Name returns the configured node name.
func (n *Node) Name() string {
	return n.name
}

// Coordinators returns the configured coordination service addresses.
func (n *Node) Coordinators() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.coordinators)
}

// Attach connects the node to the given coordinators.
func (n *Node) Attach(coordinators ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(coordinators) > 0 {
		n.coordinators = slices.Clone(coordinators)
	}
	n.attached = len(n.coordinators) > 0
}

// Detach drops the coordination service attachment.
func (n *Node) Detach() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attached = false
}

// IsClusterCoordinated reports whether a coordination service is attached.
func (n *Node) IsClusterCoordinated() bool {
	if n == nil {
		return false
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.attached
}
