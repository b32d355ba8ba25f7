package canonical

import (
	"testing"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/keys"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
)

func sampleTx() *types.Transaction {
	return &types.Transaction{
		Version: 1,
		Inputs: []types.TxInput{
			{PrevTxid: "aa", PrevVout: 0, ScriptSig: "", Sequence: 0xFFFFFFFF},
		},
		Outputs: []types.TxOutput{
			{Amount: 100, ScriptPubKey: "addr1"},
		},
		LockTime:  0,
		Timestamp: 1000,
	}
}

func TestTxIDStableUnderScriptSigMutation(t *testing.T) {
	tx := sampleTx()
	before, err := TxID(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tx.Inputs[0].ScriptSig = "deadbeef:cafefeed"
	after, err := TxID(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if before != after {
		t.Fatalf("txid changed after mutating script_sig: %s -> %s", before, after)
	}
}

func TestTxIDChangesWithOutputs(t *testing.T) {
	tx := sampleTx()
	id1, err := TxID(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tx.Outputs[0].Amount = 200
	id2, err := TxID(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id1 == id2 {
		t.Fatal("txid should change when an output's amount changes")
	}
}

func TestSigningImageIdenticalRegardlessOfScriptSig(t *testing.T) {
	tx := sampleTx()
	img1, err := SigningImage(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tx.Inputs[0].ScriptSig = "some-signature:some-pubkey"
	img2, err := SigningImage(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(img1) != string(img2) {
		t.Fatal("signing image must not depend on script_sig contents")
	}
}

func TestSignAndVerifyAgreeOnSigningImage(t *testing.T) {
	priv, err := keys.GenerateKeyPair()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tx := sampleTx()
	txid, err := TxID(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tx.Txid = txid

	digest, err := SigningImage(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sigHex, err := keys.Sign(priv, digest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tx.Inputs[0].ScriptSig = sigHex + ":" + priv.PublicKey().Hex()

	verifyDigest, err := SigningImage(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !keys.Verify(priv.PublicKey().Hex(), verifyDigest, sigHex) {
		t.Fatal("expected signature over the signing image to verify after it is written into script_sig")
	}
}

func TestBlockHashIsDeterministic(t *testing.T) {
	header := types.BlockHeader{
		Version:      1,
		Index:        0,
		Timestamp:    1000,
		PreviousHash: types.ZeroHash,
		MerkleRoot:   types.ZeroHash,
		Difficulty:   1,
		Nonce:        0,
	}
	h1, err := BlockHash(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := BlockHash(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h2 {
		t.Fatal("block hash should be deterministic for identical headers")
	}

	header.Nonce = 1
	h3, err := BlockHash(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h3 == h1 {
		t.Fatal("block hash should change when the nonce changes")
	}
}
