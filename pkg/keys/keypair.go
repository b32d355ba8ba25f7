// Package keys provides secp256k1 key pairs, ECDSA signing, and address
// derivation for the ledger's pay-to-pubkey-hash transactions.
package keys

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/crypto"
)

// PrivateKey is a secp256k1 signing key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey is a secp256k1 verification key, always handled in its
// 33-byte compressed form.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// GenerateKeyPair creates a fresh random private key.
func GenerateKeyPair() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// DeriveFromPrivateHex reconstructs a key pair from a hex-encoded 32-byte
// private key, as supplied per-request by a caller (the ledger never stores
// private key material of its own).
func DeriveFromPrivateHex(privHex string) (*PrivateKey, error) {
	raw, err := hex.DecodeString(privHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(raw))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(raw)}, nil
}

// Bytes returns the 32-byte private scalar.
func (pk *PrivateKey) Bytes() []byte {
	return pk.key.Serialize()
}

// Hex returns the private key hex-encoded.
func (pk *PrivateKey) Hex() string {
	return hex.EncodeToString(pk.Bytes())
}

// PublicKey derives the corresponding public key.
func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey()}
}

// Bytes returns the 33-byte compressed public key encoding.
func (pub *PublicKey) Bytes() []byte {
	return pub.key.SerializeCompressed()
}

// Hex returns the compressed public key hex-encoded.
func (pub *PublicKey) Hex() string {
	return hex.EncodeToString(pub.Bytes())
}

// ParsePublicKeyHex decodes a hex-encoded compressed public key.
func ParsePublicKeyHex(pubHex string) (*PublicKey, error) {
	raw, err := hex.DecodeString(pubHex)
	if err != nil {
		return nil, fmt.Errorf("invalid public key hex: %w", err)
	}
	key, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	return &PublicKey{key: key}, nil
}

// Hash160 returns RIPEMD160(SHA256(pubkey)), the digest addresses commit to.
func (pub *PublicKey) Hash160() []byte {
	return crypto.Hash160(pub.Bytes())
}
