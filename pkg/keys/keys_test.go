package keys

import "testing"

func TestGenerateKeyPairProducesValidAddress(t *testing.T) {
	priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	addr := priv.PublicKey().Address()
	if addr == "" {
		t.Fatal("expected a non-empty address")
	}
	hash, err := DecodeAddress(addr)
	if err != nil {
		t.Fatalf("address should decode: %v", err)
	}
	if string(hash) != string(priv.PublicKey().Hash160()) {
		t.Fatal("decoded address hash should match the public key's hash160")
	}
}

func TestDeriveFromPrivateHexRoundTrips(t *testing.T) {
	priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	derived, err := DeriveFromPrivateHex(priv.Hex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if derived.PublicKey().Address() != priv.PublicKey().Address() {
		t.Fatal("deriving from the same private key hex should reproduce the same address")
	}
}

func TestDeriveFromPrivateHexRejectsWrongLength(t *testing.T) {
	if _, err := DeriveFromPrivateHex("abcd"); err == nil {
		t.Fatal("expected error for a too-short private key")
	}
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	digest := make([]byte, 32)
	for i := range digest {
		digest[i] = byte(i)
	}

	sigHex, err := Sign(priv, digest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Verify(priv.PublicKey().Hex(), digest, sigHex) {
		t.Fatal("expected signature to verify against its own public key")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	digest := make([]byte, 32)
	sigHex, err := Sign(priv, digest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Verify(other.PublicKey().Hex(), digest, sigHex) {
		t.Fatal("signature should not verify against an unrelated public key")
	}
}

func TestVerifyRejectsTamperedDigest(t *testing.T) {
	priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	digest := make([]byte, 32)
	sigHex, err := Sign(priv, digest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tampered := make([]byte, 32)
	copy(tampered, digest)
	tampered[0] ^= 0xFF

	if Verify(priv.PublicKey().Hex(), tampered, sigHex) {
		t.Fatal("signature should not verify against a different digest")
	}
}

func TestDecodeAddressRejectsBadChecksum(t *testing.T) {
	priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	addr := priv.PublicKey().Address()
	corrupted := []byte(addr)
	corrupted[len(corrupted)-1]++
	if _, err := DecodeAddress(string(corrupted)); err == nil {
		t.Fatal("expected checksum mismatch to be rejected")
	}
}
