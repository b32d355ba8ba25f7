package ledger

import (
	"context"
	"fmt"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/canonical"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/mining"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
)

// unclaimedRecipient receives the genesis coinbase when no founder address
// is configured. It is not a spendable address (it decodes to nothing
// meaningful under base58check), which is intentional: the allocation is
// zero in that case anyway.
const unclaimedRecipient = "unclaimed"

// BuildGenesis constructs and mines block 0: previous_hash is the all-zero
// hash, and its single coinbase pays founderAllocation to founderAddress,
// or nothing to a sentinel recipient if founderAddress is empty.
func BuildGenesis(timestamp int64, difficulty int, founderAddress string) (*types.Block, error) {
	recipient := unclaimedRecipient
	var reward int64
	if founderAddress != "" {
		recipient = founderAddress
		reward = FounderAllocation
	}

	coinbase := mining.BuildCoinbase(0, reward, 0, recipient)
	coinbase.Timestamp = timestamp
	txid, err := canonical.TxID(&coinbase)
	if err != nil {
		return nil, fmt.Errorf("hash genesis coinbase: %w", err)
	}
	coinbase.Txid = txid

	tmpl := &mining.Template{
		Version:      1,
		PreviousHash: types.ZeroHash,
		Height:       0,
		Difficulty:   difficulty,
		MinerAddress: recipient,
	}

	header, txs, err := mining.Assemble(tmpl, coinbase, timestamp)
	if err != nil {
		return nil, fmt.Errorf("assemble genesis block: %w", err)
	}

	solved, hash, err := mining.Solve(context.Background(), header, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("mine genesis block: %w", err)
	}

	return &types.Block{
		BlockHeader:  solved,
		Hash:         hash,
		Transactions: txs,
	}, nil
}
