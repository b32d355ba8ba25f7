package keys

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Sign produces a 64-byte compact signature (32-byte R, 32-byte S
// concatenated) over digest, hex-encoded. The encoding must match Verify
// exactly: this ledger uses raw r||s, not the DER form ecdsa.Signature
// serializes to by default.
func Sign(pk *PrivateKey, digest []byte) (string, error) {
	if len(digest) != 32 {
		return "", fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	sig := ecdsa.Sign(pk.key, digest)
	return hex.EncodeToString(compact(sig)), nil
}

// Verify checks a hex-encoded compact signature over digest against a
// hex-encoded compressed public key.
func Verify(pubHex string, digest []byte, sigHex string) bool {
	if len(digest) != 32 {
		return false
	}
	pub, err := ParsePublicKeyHex(pubHex)
	if err != nil {
		return false
	}
	sig, err := parseCompact(sigHex)
	if err != nil {
		return false
	}
	return sig.Verify(digest, pub.key)
}

func compact(sig *ecdsa.Signature) []byte {
	out := make([]byte, 64)
	var rBytes, sBytes [32]byte
	r := sig.R()
	s := sig.S()
	r.PutBytes(&rBytes)
	s.PutBytes(&sBytes)
	copy(out[0:32], rBytes[:])
	copy(out[32:64], sBytes[:])
	return out
}

func parseCompact(sigHex string) (*ecdsa.Signature, error) {
	raw, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, fmt.Errorf("invalid signature hex: %w", err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("signature must be 64 bytes, got %d", len(raw))
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(raw[0:32]); overflow {
		return nil, fmt.Errorf("signature R overflows group order")
	}
	if overflow := s.SetByteSlice(raw[32:64]); overflow {
		return nil, fmt.Errorf("signature S overflows group order")
	}

	return ecdsa.NewSignature(&r, &s), nil
}
