// Package crypto wraps the primitive hash operations the ledger is built
// from: double SHA-256 content addressing, RIPEMD-160 for addresses, the
// leading-hex-zero difficulty check, and the Merkle tree over txids.
// secp256k1 ECDSA for spend authorization lives in pkg/keys.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/ripemd160"
)

// DoubleSHA256 is Bitcoin's content-addressing hash: SHA-256 applied twice,
// which closes off length-extension attacks against the outer hash.
func DoubleSHA256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// DoubleSHA256Hex double-hashes data and returns it hex-encoded, the form
// every txid, merkle root, and block hash is stored and compared in.
func DoubleSHA256Hex(data []byte) string {
	sum := DoubleSHA256(data)
	return hex.EncodeToString(sum[:])
}

// Hash160 returns RIPEMD160(SHA256(data)), the 20-byte digest addresses are
// built from.
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sha[:])
	return r.Sum(nil)
}

// LeadingHexZeros counts the leading '0' characters of a hex string, the
// measure of proof-of-work difficulty this ledger uses.
func LeadingHexZeros(hexStr string) int {
	n := 0
	for _, c := range hexStr {
		if c != '0' {
			break
		}
		n++
	}
	return n
}

// MeetsDifficulty reports whether hexHash has at least `difficulty` leading
// hex-zero characters.
func MeetsDifficulty(hexHash string, difficulty int) bool {
	return LeadingHexZeros(hexHash) >= difficulty
}
