package utxo

import (
	"testing"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
)

func TestIndexAddIsIdempotent(t *testing.T) {
	idx := NewIndex(nil)
	u := UTXO{Txid: "abc", Vout: 0, Amount: 50, ScriptPubKey: "addr1"}

	idx.Add(u)
	idx.Add(u)

	if idx.Size() != 1 {
		t.Fatalf("expected size 1 after duplicate add, got %d", idx.Size())
	}
	if bal := idx.Balance("addr1"); bal != 50 {
		t.Fatalf("expected balance 50, got %d", bal)
	}
}

func TestIndexRemoveReturnsPriorValue(t *testing.T) {
	idx := NewIndex(nil)
	u := UTXO{Txid: "abc", Vout: 0, Amount: 50, ScriptPubKey: "addr1"}
	idx.Add(u)

	got, ok := idx.Remove(OutPoint{Txid: "abc", Vout: 0})
	if !ok {
		t.Fatal("expected removal to report presence")
	}
	if got != u {
		t.Fatalf("expected prior value %+v, got %+v", u, got)
	}

	if _, ok := idx.Remove(OutPoint{Txid: "abc", Vout: 0}); ok {
		t.Fatal("second removal should report absence")
	}
}

func TestIndexValidateRejectsUnknownInput(t *testing.T) {
	idx := NewIndex(nil)
	tx := &types.Transaction{
		Inputs:  []types.TxInput{{PrevTxid: "missing", PrevVout: 0}},
		Outputs: []types.TxOutput{{Amount: 1, ScriptPubKey: "addr1"}},
		Txid:    "t1",
	}
	if err := idx.Validate(tx); err == nil {
		t.Fatal("expected validation error for unknown input")
	}
}

func TestIndexValidateRejectsValueCreation(t *testing.T) {
	idx := NewIndex(nil)
	idx.Add(UTXO{Txid: "parent", Vout: 0, Amount: 10, ScriptPubKey: "addr1"})

	tx := &types.Transaction{
		Inputs:  []types.TxInput{{PrevTxid: "parent", PrevVout: 0}},
		Outputs: []types.TxOutput{{Amount: 20, ScriptPubKey: "addr2"}},
		Txid:    "t1",
	}
	if err := idx.Validate(tx); err == nil {
		t.Fatal("expected validation error: outputs exceed inputs")
	}
}

func TestIndexApplyMovesValue(t *testing.T) {
	idx := NewIndex(nil)
	idx.Add(UTXO{Txid: "parent", Vout: 0, Amount: 10, ScriptPubKey: "addr1"})

	tx := &types.Transaction{
		Inputs:  []types.TxInput{{PrevTxid: "parent", PrevVout: 0}},
		Outputs: []types.TxOutput{{Amount: 10, ScriptPubKey: "addr2"}},
		Txid:    "t1",
	}
	if err := idx.Validate(tx); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if err := idx.Apply(tx); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}

	if _, ok := idx.Get(OutPoint{Txid: "parent", Vout: 0}); ok {
		t.Fatal("spent input should be gone")
	}
	if idx.Balance("addr1") != 0 {
		t.Fatal("addr1 should have zero balance after spend")
	}
	if idx.Balance("addr2") != 10 {
		t.Fatal("addr2 should have received the value")
	}
}

func TestIndexCloneIsIndependent(t *testing.T) {
	idx := NewIndex(nil)
	idx.Add(UTXO{Txid: "a", Vout: 0, Amount: 5, ScriptPubKey: "addr1"})

	shadow := idx.Clone()
	shadow.Remove(OutPoint{Txid: "a", Vout: 0})

	if _, ok := idx.Get(OutPoint{Txid: "a", Vout: 0}); !ok {
		t.Fatal("mutating the clone must not affect the original index")
	}
	if shadow.Size() != 0 {
		t.Fatal("clone should reflect its own mutation")
	}
}

func TestIndexCoinbaseSkipsInputValidation(t *testing.T) {
	idx := NewIndex(nil)
	tx := &types.Transaction{
		Inputs:  []types.TxInput{types.NewCoinbaseInput("height=1")},
		Outputs: []types.TxOutput{{Amount: 50, ScriptPubKey: "miner"}},
		Txid:    "coinbase1",
	}
	if err := idx.Validate(tx); err != nil {
		t.Fatalf("coinbase should validate without a prior utxo: %v", err)
	}
	if err := idx.Apply(tx); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	if idx.Balance("miner") != 50 {
		t.Fatal("coinbase output should be credited")
	}
}
