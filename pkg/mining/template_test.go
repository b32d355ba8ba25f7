package mining

import (
	"testing"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/canonical"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
)

func TestBuildCoinbaseCreditsRewardPlusFees(t *testing.T) {
	tx := BuildCoinbase(10, 50, 5, "miner-addr")
	if !tx.IsCoinbase() {
		t.Fatal("expected coinbase transaction")
	}
	if tx.Outputs[0].Amount != 55 {
		t.Fatalf("expected reward+fees = 55, got %d", tx.Outputs[0].Amount)
	}
	if tx.Outputs[0].ScriptPubKey != "miner-addr" {
		t.Fatalf("unexpected recipient: %s", tx.Outputs[0].ScriptPubKey)
	}
}

func TestAssembleProducesDeterministicMerkleRoot(t *testing.T) {
	coinbase := BuildCoinbase(1, 50, 0, "miner")
	txid, err := canonical.TxID(&coinbase)
	if err != nil {
		t.Fatalf("unexpected error computing txid: %v", err)
	}
	coinbase.Txid = txid

	tmpl := &Template{
		Version:      1,
		PreviousHash: types.ZeroHash,
		Height:       1,
		Difficulty:   1,
		MinerAddress: "miner",
	}

	headerA, txsA, err := Assemble(tmpl, coinbase, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	headerB, _, err := Assemble(tmpl, coinbase, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if headerA.MerkleRoot != headerB.MerkleRoot {
		t.Fatal("assembling the same inputs twice should yield the same merkle root")
	}
	if len(txsA) != 1 {
		t.Fatalf("expected 1 transaction (coinbase only), got %d", len(txsA))
	}
}
