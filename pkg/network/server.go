package network

import (
	"fmt"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/config"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/ledger"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/monitoring"
)

// Server owns the gossip Node's lifecycle against a NodeConfig, the shape
// cmd/ledgerd wires up alongside the RPC server.
type Server struct {
	node *Node
	addr string
}

// NewServer builds a gossip server for cfg, seeded with cfg's initial peer
// list and bound to l for admission.
func NewServer(cfg *config.NodeConfig, l *ledger.Ledger, log *monitoring.Logger) *Server {
	selfAddr := fmt.Sprintf("127.0.0.1:%d", cfg.P2PPort)
	return &Server{
		node: NewNode(l, selfAddr, cfg.InitialPeers, log),
		addr: cfg.P2PAddress(),
	}
}

// Start opens the listener, begins gossiping, and performs an initial
// catch-up sync against whatever peers are already known.
func (s *Server) Start() error {
	if err := s.node.Start(s.addr); err != nil {
		return err
	}
	s.node.SyncFromPeers()
	return nil
}

// Stop shuts the gossip node down.
func (s *Server) Stop() {
	s.node.Stop()
}

// Node exposes the underlying gossip node so callers (mining loop, RPC
// handlers) can broadcast what they admit.
func (s *Server) Node() *Node {
	return s.node
}
