// Package network implements the node's peer-to-peer gossip surface: a
// JSON-framed protocol over plain TCP connections, one message per
// connection, matching the eight message types the design calls for.
// Inbound blocks and transactions are never trusted directly; they are
// routed through the same ledger admission paths RPC submissions use.
package network

import "github.com/pouria-shahmiri/learn-bitcoin/pkg/types"

// Message type tags. Each connection carries exactly one Message, encoded
// as a single JSON object, and (for request types) receives at most one
// Message in reply before the connection closes.
const (
	MsgNewBlock       = "NEW_BLOCK"
	MsgNewTransaction = "NEW_TRANSACTION"
	MsgGetBlocks      = "GET_BLOCKS"
	MsgBlocksResponse = "BLOCKS_RESPONSE"
	MsgGetPeers       = "GET_PEERS"
	MsgPeersResponse  = "PEERS_RESPONSE"
	MsgPing           = "PING"
	MsgPong           = "PONG"
)

// Message is the single wire envelope every gossip connection carries.
// Only the fields relevant to Type are populated; the rest are omitted.
type Message struct {
	Type        string             `json:"type"`
	Block       *types.Block       `json:"block,omitempty"`
	Transaction *types.Transaction `json:"transaction,omitempty"`
	StartIndex  uint64             `json:"start_index,omitempty"`
	Blocks      []*types.Block     `json:"blocks,omitempty"`
	Peers       []string           `json:"peers,omitempty"`
}
