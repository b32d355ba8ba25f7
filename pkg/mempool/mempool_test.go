package mempool

import (
	"testing"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
)

func sampleTx(txid string, prevTxid string, prevVout uint32) *types.Transaction {
	return &types.Transaction{
		Version: 1,
		Inputs: []types.TxInput{
			{PrevTxid: prevTxid, PrevVout: prevVout, ScriptSig: "sig"},
		},
		Outputs: []types.TxOutput{
			{Amount: 10, ScriptPubKey: "addr1"},
		},
		Txid: txid,
	}
}

// Two distinct transactions that spend the same outpoint cannot both sit in
// the pool at once.
func TestMempoolRejectsDoubleSpend(t *testing.T) {
	mp := New()

	txA := sampleTx("txA", "parent", 0)
	if err := mp.Add(txA, 100); err != nil {
		t.Fatalf("unexpected error adding txA: %v", err)
	}

	txB := sampleTx("txB", "parent", 0)
	if err := mp.Add(txB, 101); err == nil {
		t.Fatal("expected double-spend rejection, got nil error")
	}

	if mp.Size() != 1 {
		t.Fatalf("expected pool size 1, got %d", mp.Size())
	}
}

func TestMempoolRejectsDuplicateTxid(t *testing.T) {
	mp := New()
	tx := sampleTx("dup", "parent", 0)

	if err := mp.Add(tx, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mp.Add(tx, 100); err == nil {
		t.Fatal("expected duplicate txid rejection, got nil error")
	}
}

func TestMempoolRemoveMined(t *testing.T) {
	mp := New()
	txA := sampleTx("txA", "parentA", 0)
	txB := sampleTx("txB", "parentB", 0)

	if err := mp.Add(txA, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mp.Add(txB, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mp.RemoveMined([]string{"txA"})

	if mp.Exists("txA") {
		t.Fatal("txA should have been removed")
	}
	if !mp.Exists("txB") {
		t.Fatal("txB should still be pending")
	}

	// The outpoint freed by removing txA can now be claimed again.
	txC := sampleTx("txC", "parentA", 0)
	if err := mp.Add(txC, 101); err != nil {
		t.Fatalf("expected outpoint to be free after mining, got: %v", err)
	}
}

func TestMempoolPrune(t *testing.T) {
	mp := New()
	old := sampleTx("old", "parentA", 0)
	fresh := sampleTx("fresh", "parentB", 0)

	mp.Add(old, 10)
	mp.Add(fresh, 200)

	removed := mp.Prune(100)
	if removed != 1 {
		t.Fatalf("expected 1 pruned, got %d", removed)
	}
	if mp.Exists("old") {
		t.Fatal("old transaction should have been pruned")
	}
	if !mp.Exists("fresh") {
		t.Fatal("fresh transaction should not have been pruned")
	}
}
