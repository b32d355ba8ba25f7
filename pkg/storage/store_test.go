package storage

import (
	"path/filepath"
	"testing"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
)

func openTestStore(t *testing.T) *ChainStore {
	t.Helper()
	cs, err := Open(filepath.Join(t.TempDir(), "chaindata"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func sampleBlock(height uint64, hash, prevHash string) *types.Block {
	return &types.Block{
		BlockHeader: types.BlockHeader{
			Version:      1,
			Index:        height,
			Timestamp:    1000 + int64(height),
			PreviousHash: prevHash,
			MerkleRoot:   "merkle" + hash,
			Difficulty:   1,
			Nonce:        0,
		},
		Hash: hash,
		Transactions: []types.Transaction{
			{
				Version: 1,
				Inputs:  []types.TxInput{types.NewCoinbaseInput("coinbase")},
				Outputs: []types.TxOutput{{Amount: 50, ScriptPubKey: "miner"}},
				Txid:    "coinbase-" + hash,
			},
		},
	}
}

func TestSaveAndLoadBlock(t *testing.T) {
	cs := openTestStore(t)
	block := sampleBlock(0, "hashA", types.ZeroHash)

	if err := cs.SaveBlock(block, 0); err != nil {
		t.Fatalf("unexpected error saving block: %v", err)
	}

	got, err := cs.GetBlockByHeight(0)
	if err != nil {
		t.Fatalf("unexpected error loading block: %v", err)
	}
	if got.Hash != "hashA" {
		t.Fatalf("expected hash hashA, got %s", got.Hash)
	}

	byHash, err := cs.GetBlockByHash("hashA")
	if err != nil {
		t.Fatalf("unexpected error loading by hash: %v", err)
	}
	if byHash.Index != 0 {
		t.Fatalf("expected index 0, got %d", byHash.Index)
	}

	height, ok, err := cs.Height()
	if err != nil || !ok {
		t.Fatalf("expected tip height, err=%v ok=%v", err, ok)
	}
	if height != 0 {
		t.Fatalf("expected tip height 0, got %d", height)
	}
}

func TestSaveBlockRejectsDuplicateHeight(t *testing.T) {
	cs := openTestStore(t)
	block := sampleBlock(0, "hashA", types.ZeroHash)
	if err := cs.SaveBlock(block, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := sampleBlock(0, "hashB", types.ZeroHash)
	if err := cs.SaveBlock(dup, 0); err == nil {
		t.Fatal("expected error saving a second block at the same height")
	}
}

func TestSaveBlockCreatesUTXOsAndTxIndex(t *testing.T) {
	cs := openTestStore(t)
	block := sampleBlock(0, "hashA", types.ZeroHash)
	if err := cs.SaveBlock(block, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	set, err := cs.LoadUTXOSet()
	if err != nil {
		t.Fatalf("unexpected error loading utxo set: %v", err)
	}
	if len(set) != 1 {
		t.Fatalf("expected 1 utxo, got %d", len(set))
	}
	if set[0].Amount != 50 || set[0].ScriptPubKey != "miner" {
		t.Fatalf("unexpected utxo contents: %+v", set[0])
	}

	tx, height, err := cs.GetTransaction("coinbase-hashA")
	if err != nil {
		t.Fatalf("unexpected error looking up transaction: %v", err)
	}
	if height != 0 || tx.Txid != "coinbase-hashA" {
		t.Fatalf("unexpected transaction lookup result: height=%d tx=%+v", height, tx)
	}
}

func TestSaveBlockSpendsPriorUTXO(t *testing.T) {
	cs := openTestStore(t)
	genesis := sampleBlock(0, "hashA", types.ZeroHash)
	if err := cs.SaveBlock(genesis, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spend := &types.Block{
		BlockHeader: types.BlockHeader{Version: 1, Index: 1, Timestamp: 2000, PreviousHash: "hashA", MerkleRoot: "m2", Difficulty: 1},
		Hash:        "hashB",
		Transactions: []types.Transaction{
			{
				Version: 1,
				Inputs:  []types.TxInput{types.NewCoinbaseInput("coinbase2")},
				Outputs: []types.TxOutput{{Amount: 50, ScriptPubKey: "miner2"}},
				Txid:    "coinbase-hashB",
			},
			{
				Version: 1,
				Inputs:  []types.TxInput{{PrevTxid: "coinbase-hashA", PrevVout: 0}},
				Outputs: []types.TxOutput{{Amount: 50, ScriptPubKey: "recipient"}},
				Txid:    "spend-tx",
			},
		},
	}
	if err := cs.SaveBlock(spend, 1); err != nil {
		t.Fatalf("unexpected error saving second block: %v", err)
	}

	set, err := cs.LoadUTXOSet()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 utxos (coinbase2 + recipient), got %d: %+v", len(set), set)
	}
	for _, u := range set {
		if u.Txid == "coinbase-hashA" {
			t.Fatal("spent utxo should have been removed")
		}
	}
}

func TestMetaRoundTrip(t *testing.T) {
	cs := openTestStore(t)
	if _, ok, err := cs.GetMeta("founder_address"); err != nil || ok {
		t.Fatalf("expected no founder address set yet, ok=%v err=%v", ok, err)
	}

	if err := cs.SetMeta("founder_address", "addr-founder"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := cs.GetMeta("founder_address")
	if err != nil || !ok {
		t.Fatalf("expected founder address to be set, ok=%v err=%v", ok, err)
	}
	if got != "addr-founder" {
		t.Fatalf("expected addr-founder, got %s", got)
	}
}
