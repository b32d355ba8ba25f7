package ledger

import "fmt"

// Kind classifies a ledger error so callers (RPC, gossip, tests) can react
// without parsing error strings.
type Kind int

const (
	// KindMalformed covers an unparseable field or missing required data.
	KindMalformed Kind = iota
	// KindCrypto covers a signature or address mismatch.
	KindCrypto
	// KindUTXO covers an unknown outpoint, insufficient funds, or a
	// negative output.
	KindUTXO
	// KindDoubleSpend covers a mempool or in-block outpoint conflict.
	KindDoubleSpend
	// KindConsensus covers bad PoW, bad Merkle root, bad linkage, or a
	// reward that exceeds the schedule.
	KindConsensus
	// KindStale covers a block submitted for a height already occupied.
	KindStale
	// KindStorage covers a durable write failure; the in-memory commit
	// that triggered it is aborted.
	KindStorage
	// KindInvariant covers an unreachable internal inconsistency. Callers
	// that see this should treat the ledger as unsafe to continue using.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindCrypto:
		return "crypto"
	case KindUTXO:
		return "utxo"
	case KindDoubleSpend:
		return "double_spend"
	case KindConsensus:
		return "consensus"
	case KindStale:
		return "stale"
	case KindStorage:
		return "storage"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is a ledger-raised error carrying a Kind so callers can
// distinguish caller mistakes (malformed/crypto/utxo/double_spend/stale)
// from consensus violations and internal faults.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
