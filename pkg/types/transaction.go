package types

// TxInput spends a previously committed output. ScriptSig carries
// "signature_hex:pubkey_hex" for standard spends; for a coinbase input it is
// an arbitrary tag such as the "height=<n>" tag mining.BuildCoinbase writes.
type TxInput struct {
	PrevTxid  string `json:"prev_txid"`
	PrevVout  uint32 `json:"prev_vout"`
	ScriptSig string `json:"script_sig"`
	Sequence  uint32 `json:"sequence"`
}

// TxOutput assigns Amount satoshis to the address named by ScriptPubKey.
type TxOutput struct {
	Amount       int64  `json:"amount"`
	ScriptPubKey string `json:"script_pubkey"`
}

// Transaction is the unit of value transfer. Txid is derived once, from the
// transaction body with every non-coinbase ScriptSig blanked (a coinbase
// keeps its tag), and never recomputed: a signature later written into an
// input's ScriptSig does not change Txid.
// This mirrors segwit-style identifiers that exclude the witness data.
type Transaction struct {
	Version   int32      `json:"version"`
	Inputs    []TxInput  `json:"inputs"`
	Outputs   []TxOutput `json:"outputs"`
	LockTime  uint32     `json:"locktime"`
	Timestamp int64      `json:"timestamp"`
	Txid      string     `json:"txid"`
}

// IsCoinbase reports whether tx is a block-reward transaction: exactly one
// input pointing at the zero hash and the sentinel output index.
func (tx *Transaction) IsCoinbase() bool {
	if len(tx.Inputs) != 1 {
		return false
	}
	in := tx.Inputs[0]
	return in.PrevTxid == ZeroHash && in.PrevVout == CoinbaseVout
}

// OutputSum returns the sum of every output amount.
func (tx *Transaction) OutputSum() int64 {
	var total int64
	for _, o := range tx.Outputs {
		total += o.Amount
	}
	return total
}

// NewCoinbaseInput builds the single input of a coinbase transaction. tag is
// stored verbatim as ScriptSig; mining.BuildCoinbase passes "height=<n>".
func NewCoinbaseInput(tag string) TxInput {
	return TxInput{
		PrevTxid:  ZeroHash,
		PrevVout:  CoinbaseVout,
		ScriptSig: tag,
		Sequence:  0xFFFFFFFF,
	}
}
