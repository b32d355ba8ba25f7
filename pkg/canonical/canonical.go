// Package canonical fixes the single byte-exact encoding that every
// content-addressed field in the ledger — txid, signing image, and block
// hash — is derived from. The encoding is JSON built from a map, so
// encoding/json's alphabetical key ordering gives us the "sorted keys"
// canonicalization the format requires; field order within nested arrays
// (inputs, outputs) is preserved as given, since ordering there is
// meaningful.
package canonical

import (
	"encoding/json"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/crypto"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
)

// txBytes renders tx to its canonical encoding. Every non-coinbase input's
// ScriptSig is blanked to "" regardless of its current value: this is what
// makes Txid stable under signing (a signature written into ScriptSig after
// the fact never changes it) and is also the exact message every input's
// signature is produced and verified against, per the signing-image fix in
// the design notes (a single shared image rather than a per-input
// placeholder scheme). A coinbase input carries no signature and keeps its
// tag, so coinbases built for different heights get different txids.
func txBytes(tx *types.Transaction) ([]byte, error) {
	inputs := make([]map[string]interface{}, len(tx.Inputs))
	coinbase := tx.IsCoinbase()
	for i, in := range tx.Inputs {
		scriptSig := ""
		if coinbase {
			scriptSig = in.ScriptSig
		}
		inputs[i] = map[string]interface{}{
			"prev_txid":  in.PrevTxid,
			"prev_vout":  in.PrevVout,
			"script_sig": scriptSig,
			"sequence":   in.Sequence,
		}
	}

	outputs := make([]map[string]interface{}, len(tx.Outputs))
	for i, out := range tx.Outputs {
		outputs[i] = map[string]interface{}{
			"amount":        out.Amount,
			"script_pubkey": out.ScriptPubKey,
		}
	}

	body := map[string]interface{}{
		"version":   tx.Version,
		"inputs":    inputs,
		"outputs":   outputs,
		"locktime":  tx.LockTime,
		"timestamp": tx.Timestamp,
	}

	return json.Marshal(body)
}

// TxID computes the transaction id: double-SHA-256 of the canonical
// encoding, hex-encoded. Callers compute this once, at creation, before any
// input is signed.
func TxID(tx *types.Transaction) (string, error) {
	b, err := txBytes(tx)
	if err != nil {
		return "", err
	}
	return crypto.DoubleSHA256Hex(b), nil
}

// SigningImage returns the exact digest every input's signature is produced
// and verified against. It is the double-SHA-256 of the same encoding Txid
// hashes, so it is identical for every input of a transaction and its bytes
// are exactly the bytes Txid hex-encodes.
func SigningImage(tx *types.Transaction) ([]byte, error) {
	b, err := txBytes(tx)
	if err != nil {
		return nil, err
	}
	sum := crypto.DoubleSHA256(b)
	return sum[:], nil
}

// headerBody is the JSON-canonicalized block header: the fields that
// determine a block's hash.
func headerBody(h types.BlockHeader) map[string]interface{} {
	return map[string]interface{}{
		"version":       h.Version,
		"index":         h.Index,
		"timestamp":     h.Timestamp,
		"previous_hash": h.PreviousHash,
		"merkle_root":   h.MerkleRoot,
		"difficulty":    h.Difficulty,
		"nonce":         h.Nonce,
	}
}

// BlockHash computes a block header's hash: double-SHA-256 of its canonical
// encoding, hex-encoded. It is re-derived on every admission rather than
// trusted from the submitted block.
func BlockHash(h types.BlockHeader) (string, error) {
	b, err := json.Marshal(headerBody(h))
	if err != nil {
		return "", err
	}
	return crypto.DoubleSHA256Hex(b), nil
}
