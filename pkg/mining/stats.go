package mining

import "sync/atomic"

// MinerStats tracks this node's own cumulative mining activity. It exists
// independently of the Prometheus registry so an RPC caller can poll
// mining progress without scraping /metrics.
type MinerStats struct {
	blocksMined    atomic.Int64
	hashesComputed atomic.Int64
}

// RecordBlock registers a successfully mined block. Hash attempts for the
// search that found it are expected to have already been reported via
// RecordAttempts as the search progressed.
func (s *MinerStats) RecordBlock() {
	s.blocksMined.Add(1)
}

// RecordAttempts registers nonce attempts from a search that has not yet
// (or may never) succeed, so hash rate stays visible during long searches.
func (s *MinerStats) RecordAttempts(attempts uint64) {
	s.hashesComputed.Add(int64(attempts))
}

// Snapshot returns the cumulative counters.
func (s *MinerStats) Snapshot() (blocksMined, hashesComputed int64) {
	return s.blocksMined.Load(), s.hashesComputed.Load()
}
