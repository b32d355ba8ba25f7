package network

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/ledger"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/monitoring"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
)

const (
	dialTimeout       = 5 * time.Second
	discoveryPeriod   = 30 * time.Second
	peerExpiry        = 3 * discoveryPeriod
	maxBlocksPerReply = 500
)

// peerInfo tracks the last time a peer answered a PING probe.
// A peer that goes unanswered past peerExpiry is dropped from the table.
type peerInfo struct {
	lastSeen time.Time
}

// Node is a gossip participant: it listens for inbound connections, dials
// out to known peers to broadcast and to discover more of them, and feeds
// every inbound block or transaction through the ledger's own admission
// path rather than trusting it.
type Node struct {
	ledger   *ledger.Ledger
	selfAddr string
	log      *monitoring.Logger

	listener net.Listener

	mu    sync.Mutex
	peers map[string]*peerInfo

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewNode builds a node identified by selfAddr (its own dialable
// host:port), seeded with an initial peer set.
func NewNode(l *ledger.Ledger, selfAddr string, seeds []string, log *monitoring.Logger) *Node {
	n := &Node{
		ledger:   l,
		selfAddr: selfAddr,
		log:      log,
		peers:    make(map[string]*peerInfo),
		quit:     make(chan struct{}),
	}
	for _, s := range seeds {
		if s != "" && s != selfAddr {
			n.peers[s] = &peerInfo{lastSeen: time.Now()}
		}
	}
	return n
}

// Start opens the listener and begins the accept and peer-discovery loops.
func (n *Node) Start(listenAddr string) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", listenAddr, err)
	}
	n.listener = ln

	n.wg.Add(2)
	go n.acceptLoop()
	go n.discoveryLoop()
	return nil
}

// Stop closes the listener and waits for background loops to exit.
func (n *Node) Stop() {
	close(n.quit)
	if n.listener != nil {
		n.listener.Close()
	}
	n.wg.Wait()
}

// SyncFromPeers asks each known peer once for the blocks from this node's
// height onward; a peer replies with at most maxBlocksPerReply of them.
// Called once at startup; ordinary catch-up afterward happens
// through gossiped NEW_BLOCK messages.
func (n *Node) SyncFromPeers() {
	for _, addr := range n.peerList() {
		resp, err := n.request(addr, &Message{Type: MsgGetBlocks, StartIndex: n.ledger.Height()})
		if err != nil || resp == nil {
			continue
		}
		n.applyBlocks(resp.Blocks)
	}
}

// BroadcastBlock relays a newly admitted block to every known peer,
// fire-and-forget.
func (n *Node) BroadcastBlock(block *types.Block) {
	n.broadcast(&Message{Type: MsgNewBlock, Block: block})
}

// BroadcastTransaction relays a newly admitted transaction to every known
// peer, fire-and-forget.
func (n *Node) BroadcastTransaction(tx *types.Transaction) {
	n.broadcast(&Message{Type: MsgNewTransaction, Transaction: tx})
}

func (n *Node) broadcast(msg *Message) {
	for _, addr := range n.peerList() {
		go func(addr string) {
			if _, err := n.request(addr, msg); err != nil {
				n.log.Debugf("broadcast %s to %s: %v", msg.Type, addr, err)
			}
		}(addr)
	}
}

func (n *Node) acceptLoop() {
	defer n.wg.Done()
	for {
		conn, err := n.listener.Accept()
		if err != nil {
			select {
			case <-n.quit:
				return
			default:
				n.log.Warnf("accept: %v", err)
				continue
			}
		}
		go n.serveConn(conn)
	}
}

// serveConn handles exactly one message per connection: decode, dispatch,
// optionally reply, close. This mirrors the one-shot request/response
// style of the gossip protocol rather than a persistent peer stream.
func (n *Node) serveConn(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(dialTimeout))

	var msg Message
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		n.log.Debugf("decode message from %s: %v", conn.RemoteAddr(), err)
		return
	}

	resp, err := n.processMessage(&msg)
	if err != nil {
		n.log.Debugf("process %s: %v", msg.Type, err)
		return
	}
	if resp != nil {
		if err := json.NewEncoder(conn).Encode(resp); err != nil {
			n.log.Debugf("reply to %s: %v", conn.RemoteAddr(), err)
		}
	}
}

func (n *Node) processMessage(msg *Message) (*Message, error) {
	switch msg.Type {
	case MsgPing:
		return &Message{Type: MsgPong}, nil

	case MsgPong:
		return nil, nil

	case MsgGetPeers:
		return &Message{Type: MsgPeersResponse, Peers: n.peerList()}, nil

	case MsgPeersResponse:
		n.mergePeers(msg.Peers)
		return nil, nil

	case MsgGetBlocks:
		return n.buildBlocksResponse(msg.StartIndex), nil

	case MsgBlocksResponse:
		n.applyBlocks(msg.Blocks)
		return nil, nil

	case MsgNewBlock:
		if msg.Block == nil {
			return nil, fmt.Errorf("%s missing block", MsgNewBlock)
		}
		if err := n.ledger.SubmitBlock(msg.Block); err != nil {
			n.log.Debugf("reject gossiped block %s: %v", msg.Block.Hash, err)
		}
		return nil, nil

	case MsgNewTransaction:
		if msg.Transaction == nil {
			return nil, fmt.Errorf("%s missing transaction", MsgNewTransaction)
		}
		if err := n.ledger.SubmitTransaction(msg.Transaction); err != nil {
			n.log.Debugf("reject gossiped transaction %s: %v", msg.Transaction.Txid, err)
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (n *Node) buildBlocksResponse(start uint64) *Message {
	height := n.ledger.Height()
	var blocks []*types.Block
	for i := start; i < height && len(blocks) < maxBlocksPerReply; i++ {
		b, err := n.ledger.GetBlockByIndex(i)
		if err != nil {
			break
		}
		blocks = append(blocks, b)
	}
	return &Message{Type: MsgBlocksResponse, Blocks: blocks}
}

// applyBlocks submits a run of blocks through ordinary admission. Blocks
// already committed are rejected as stale; that is expected whenever two
// peers overlap in what they send and is not logged as an error.
func (n *Node) applyBlocks(blocks []*types.Block) {
	for _, b := range blocks {
		if err := n.ledger.SubmitBlock(b); err != nil {
			n.log.Debugf("catch-up block %d: %v", b.Index, err)
		}
	}
}

func (n *Node) discoveryLoop() {
	defer n.wg.Done()
	ticker := time.NewTicker(discoveryPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-n.quit:
			return
		case <-ticker.C:
			n.pingPeers()
			n.cleanupDeadPeers()
		}
	}
}

func (n *Node) pingPeers() {
	for _, addr := range n.peerList() {
		go func(addr string) {
			if _, err := n.request(addr, &Message{Type: MsgPing}); err != nil {
				n.log.Debugf("ping %s: %v", addr, err)
				return
			}
			n.touchPeer(addr)

			resp, err := n.request(addr, &Message{Type: MsgGetPeers})
			if err == nil && resp != nil {
				n.mergePeers(resp.Peers)
			}
		}(addr)
	}
}

func (n *Node) cleanupDeadPeers() {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := time.Now().Add(-peerExpiry)
	for addr, p := range n.peers {
		if p.lastSeen.Before(cutoff) {
			delete(n.peers, addr)
		}
	}
}

func (n *Node) peerList() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.peers))
	for addr := range n.peers {
		out = append(out, addr)
	}
	return out
}

func (n *Node) touchPeer(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if p, ok := n.peers[addr]; ok {
		p.lastSeen = time.Now()
	} else {
		n.peers[addr] = &peerInfo{lastSeen: time.Now()}
	}
}

func (n *Node) mergePeers(addrs []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, addr := range addrs {
		if addr == "" || addr == n.selfAddr {
			continue
		}
		if _, ok := n.peers[addr]; !ok {
			n.peers[addr] = &peerInfo{lastSeen: time.Now()}
		}
	}
}

// request dials addr, sends msg, and, for message types that expect a
// reply, decodes and returns it. Fire-and-forget types return a nil
// response on success.
func (n *Node) request(addr string, msg *Message) (*Message, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(dialTimeout))

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return nil, fmt.Errorf("send %s to %s: %w", msg.Type, addr, err)
	}

	switch msg.Type {
	case MsgNewBlock, MsgNewTransaction, MsgPong:
		return nil, nil
	}

	var resp Message
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read reply from %s: %w", addr, err)
	}
	return &resp, nil
}
