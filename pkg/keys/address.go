package keys

import (
	"fmt"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/encoding"
)

// AddressVersion is the single address type this ledger issues: pay to a
// RIPEMD160(SHA256(pubkey)) hash.
const AddressVersion byte = 0x00

// Address renders the public key as its base58check address: version byte
// 0x00 followed by Hash160(pubkey), checksummed with a 4-byte
// double-SHA-256 suffix.
func (pub *PublicKey) Address() string {
	return encoding.EncodeBase58Check(AddressVersion, pub.Hash160())
}

// AddressFromPubKeyHex derives the address for a hex-encoded compressed
// public key, the form RPC callers and signature verification work with.
func AddressFromPubKeyHex(pubHex string) (string, error) {
	pub, err := ParsePublicKeyHex(pubHex)
	if err != nil {
		return "", err
	}
	return pub.Address(), nil
}

// DecodeAddress validates a base58check address and returns its 20-byte
// pubkey hash.
func DecodeAddress(address string) ([]byte, error) {
	version, hash, err := encoding.DecodeBase58Check(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}
	if version != AddressVersion {
		return nil, fmt.Errorf("unsupported address version: 0x%02x", version)
	}
	if len(hash) != 20 {
		return nil, fmt.Errorf("invalid address hash length: %d", len(hash))
	}
	return hash, nil
}
