package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/canonical"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/keys"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/utxo"
)

// CreateTransaction spends UTXOs owned by senderPriv until their sum covers
// amount, pays recipient, and returns any leftover above Dust to the
// sender as a change output. It signs every input but does not submit the
// transaction; call SubmitTransaction separately.
func (l *Ledger) CreateTransaction(senderPriv *keys.PrivateKey, recipient string, amount int64, now int64) (*types.Transaction, error) {
	if amount <= 0 {
		return nil, newErr(KindMalformed, "amount must be positive, got %d", amount)
	}

	senderAddr := senderPriv.PublicKey().Address()
	available := l.idx.GetForAddress(senderAddr)
	sort.Slice(available, func(i, j int) bool {
		return available[i].OutPoint().String() < available[j].OutPoint().String()
	})

	var selected []utxo.UTXO
	var total int64
	for _, u := range available {
		selected = append(selected, u)
		total += u.Amount
		if total >= amount {
			break
		}
	}
	if total < amount {
		return nil, newErr(KindUTXO, "insufficient funds: have %d, need %d", total, amount)
	}

	inputs := make([]types.TxInput, len(selected))
	for i, u := range selected {
		inputs[i] = types.TxInput{PrevTxid: u.Txid, PrevVout: u.Vout, Sequence: 0xFFFFFFFF}
	}

	outputs := []types.TxOutput{{Amount: amount, ScriptPubKey: recipient}}
	if change := total - amount; change > Dust {
		outputs = append(outputs, types.TxOutput{Amount: change, ScriptPubKey: senderAddr})
	}

	tx := &types.Transaction{
		Version:   1,
		Inputs:    inputs,
		Outputs:   outputs,
		LockTime:  0,
		Timestamp: now,
	}

	txid, err := canonical.TxID(tx)
	if err != nil {
		return nil, fmt.Errorf("compute txid: %w", err)
	}
	tx.Txid = txid

	digest, err := canonical.SigningImage(tx)
	if err != nil {
		return nil, fmt.Errorf("compute signing image: %w", err)
	}
	sigHex, err := keys.Sign(senderPriv, digest)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	pubHex := senderPriv.PublicKey().Hex()
	for i := range tx.Inputs {
		tx.Inputs[i].ScriptSig = sigHex + ":" + pubHex
	}

	return tx, nil
}

// SubmitTransaction verifies every input's signature against the UTXO it
// spends, validates the transaction against the committed UTXO set, checks
// it does not conflict with a pending mempool transaction, and parks it in
// the mempool.
func (l *Ledger) SubmitTransaction(tx *types.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tx.IsCoinbase() {
		return newErr(KindMalformed, "submitted transaction cannot be a coinbase")
	}

	if err := verifyInputSignatures(l.idx, tx); err != nil {
		return err
	}
	if err := l.idx.Validate(tx); err != nil {
		return newErr(KindUTXO, "%v", err)
	}
	if err := l.mempool.Add(tx, l.now()); err != nil {
		return newErr(KindDoubleSpend, "%v", err)
	}
	if l.metrics != nil {
		l.metrics.MempoolSize.Set(float64(l.mempool.Size()))
	}
	return nil
}

// verifyInputSignatures checks every input of tx against the UTXO it
// claims to spend in idx: the address derived from the embedded pubkey
// must match the UTXO's script_pubkey, and the signature must verify over
// tx's signing image. idx is the committed index for mempool admission, or
// a block's transaction-local shadow during admission, so that a
// transaction spending an output created earlier in the same block
// verifies correctly.
func verifyInputSignatures(idx *utxo.Index, tx *types.Transaction) error {
	digest, err := canonical.SigningImage(tx)
	if err != nil {
		return newErr(KindMalformed, "compute signing image: %v", err)
	}

	for _, in := range tx.Inputs {
		sigHex, pubHex, err := splitScriptSig(in.ScriptSig)
		if err != nil {
			return newErr(KindMalformed, "%v", err)
		}

		addr, err := keys.AddressFromPubKeyHex(pubHex)
		if err != nil {
			return newErr(KindCrypto, "invalid public key: %v", err)
		}

		spent, ok := idx.Get(utxo.OutPoint{Txid: in.PrevTxid, Vout: in.PrevVout})
		if !ok {
			return newErr(KindUTXO, "unknown utxo %s:%d", in.PrevTxid, in.PrevVout)
		}
		if spent.ScriptPubKey != addr {
			return newErr(KindCrypto, "signer address %s does not own utxo %s:%d", addr, in.PrevTxid, in.PrevVout)
		}

		if !keys.Verify(pubHex, digest, sigHex) {
			return newErr(KindCrypto, "signature verification failed for utxo %s:%d", in.PrevTxid, in.PrevVout)
		}
	}
	return nil
}

func splitScriptSig(scriptSig string) (sigHex, pubHex string, err error) {
	parts := strings.SplitN(scriptSig, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed script_sig: %q", scriptSig)
	}
	return parts[0], parts[1], nil
}
