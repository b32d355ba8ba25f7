// Package mining builds candidate blocks from pending transactions and
// searches for a nonce that satisfies the chain's proof-of-work target.
package mining

import (
	"fmt"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/crypto"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
)

// Template holds everything needed to assemble a candidate block except the
// winning nonce.
type Template struct {
	Version      int32
	PreviousHash string
	Height       uint64
	Difficulty   int
	Transactions []*types.Transaction // does not include the coinbase
	Reward       int64
	Fees         int64
	MinerAddress string
}

// BuildCoinbase constructs the block's coinbase transaction, crediting
// reward+fees to minerAddress. Its ScriptSig embeds the block height so two
// coinbases at different heights never collide on txid.
func BuildCoinbase(height uint64, reward, fees int64, minerAddress string) types.Transaction {
	return types.Transaction{
		Version:  1,
		Inputs:   []types.TxInput{types.NewCoinbaseInput(fmt.Sprintf("height=%d", height))},
		Outputs:  []types.TxOutput{{Amount: reward + fees, ScriptPubKey: minerAddress}},
		LockTime: 0,
	}
}

// Assemble builds the full ordered transaction list (coinbase first) and
// the block header ready for nonce search, at the given timestamp. Txid
// must already be set on every transaction in tmpl.Transactions and on the
// coinbase before Assemble is called.
func Assemble(tmpl *Template, coinbase types.Transaction, timestamp int64) (types.BlockHeader, []types.Transaction, error) {
	all := make([]types.Transaction, 0, len(tmpl.Transactions)+1)
	all = append(all, coinbase)
	for _, tx := range tmpl.Transactions {
		all = append(all, *tx)
	}

	txids := make([]string, len(all))
	for i, tx := range all {
		txids[i] = tx.Txid
	}

	root, err := crypto.MerkleRoot(txids)
	if err != nil {
		return types.BlockHeader{}, nil, fmt.Errorf("compute merkle root: %w", err)
	}

	header := types.BlockHeader{
		Version:      tmpl.Version,
		Index:        tmpl.Height,
		Timestamp:    timestamp,
		PreviousHash: tmpl.PreviousHash,
		MerkleRoot:   root,
		Difficulty:   tmpl.Difficulty,
		Nonce:        0,
	}
	return header, all, nil
}
