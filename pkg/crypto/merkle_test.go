package crypto

import "testing"

func TestMerkleRootEmpty(t *testing.T) {
	root, err := MerkleRoot(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root != zeroRoot {
		t.Fatalf("expected zero root for empty list, got %s", root)
	}
}

func TestMerkleRootSingleLeafIsUnchanged(t *testing.T) {
	leaf := DoubleSHA256Hex([]byte("tx1"))
	root, err := MerkleRoot([]string{leaf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root != leaf {
		t.Fatalf("single-leaf root should equal the leaf, got %s want %s", root, leaf)
	}
}

func TestMerkleRootDuplicatesOddLevel(t *testing.T) {
	a := DoubleSHA256Hex([]byte("tx1"))
	b := DoubleSHA256Hex([]byte("tx2"))
	c := DoubleSHA256Hex([]byte("tx3"))

	threeLeaf, err := MerkleRoot([]string{a, b, c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fourLeaf, err := MerkleRoot([]string{a, b, c, c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if threeLeaf != fourLeaf {
		t.Fatal("odd-level duplication should make a 3-leaf tree equal its explicit 4-leaf duplicate")
	}
}

func TestMerkleProofRoundTrip(t *testing.T) {
	txids := []string{
		DoubleSHA256Hex([]byte("tx1")),
		DoubleSHA256Hex([]byte("tx2")),
		DoubleSHA256Hex([]byte("tx3")),
		DoubleSHA256Hex([]byte("tx4")),
		DoubleSHA256Hex([]byte("tx5")),
	}
	root, err := MerkleRoot(txids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, leaf := range txids {
		proof, err := MerkleProof(txids, i)
		if err != nil {
			t.Fatalf("proof for index %d: %v", i, err)
		}
		if !VerifyMerkleProof(leaf, proof, root) {
			t.Fatalf("proof for index %d failed to verify against root", i)
		}
	}
}

func TestMerkleProofFailsOnBitFlip(t *testing.T) {
	txids := []string{
		DoubleSHA256Hex([]byte("tx1")),
		DoubleSHA256Hex([]byte("tx2")),
		DoubleSHA256Hex([]byte("tx3")),
	}
	root, err := MerkleRoot(txids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	proof, err := MerkleProof(txids, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !VerifyMerkleProof(txids[1], proof, root) {
		t.Fatal("proof should verify before tampering")
	}

	tampered := make([]MerkleStep, len(proof))
	copy(tampered, proof)
	tampered[0].SiblingHex = flipLastHexChar(tampered[0].SiblingHex)

	if VerifyMerkleProof(txids[1], tampered, root) {
		t.Fatal("tampered proof should not verify")
	}
}

func flipLastHexChar(s string) string {
	b := []byte(s)
	last := b[len(b)-1]
	if last == '0' {
		b[len(b)-1] = '1'
	} else {
		b[len(b)-1] = '0'
	}
	return string(b)
}

func TestMerkleProofRejectsOutOfRangeIndex(t *testing.T) {
	txids := []string{DoubleSHA256Hex([]byte("tx1"))}
	if _, err := MerkleProof(txids, 5); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}
