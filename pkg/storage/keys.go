package storage

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes. Every key is a one-byte prefix followed by a fixed or
// length-prefixed suffix; see the *Key helpers below for exact layouts.
const (
	PrefixBlock    = 'b' // height (8 bytes BE) -> JSON block
	PrefixBlockIdx = 'h' // block hash (hex string) -> height (8 bytes BE)
	PrefixTx       = 't' // txid (hex string) -> height (8 bytes BE)
	PrefixUTXO     = 'u' // txid (hex string) + vout (4 bytes BE) -> JSON utxo
	PrefixChain    = 'c' // chain state key -> value
	PrefixMeta     = 'm' // metadata key -> value
)

// Chain state keys, namespaced under PrefixChain.
const (
	KeyBestHeight = "best_height"
	KeyBestHash   = "best_hash"
)

// BlockKey addresses the stored block at height.
func BlockKey(height uint64) []byte {
	key := make([]byte, 1+8)
	key[0] = PrefixBlock
	binary.BigEndian.PutUint64(key[1:], height)
	return key
}

// BlockIndexKey maps a block hash to its height.
func BlockIndexKey(hash string) []byte {
	return append([]byte{PrefixBlockIdx}, []byte(hash)...)
}

// TxKey maps a txid to the height of the block that contains it.
func TxKey(txid string) []byte {
	return append([]byte{PrefixTx}, []byte(txid)...)
}

// UTXOKey addresses a single unspent output.
func UTXOKey(txid string, vout uint32) []byte {
	key := make([]byte, 1+len(txid)+4)
	key[0] = PrefixUTXO
	copy(key[1:], txid)
	binary.BigEndian.PutUint32(key[1+len(txid):], vout)
	return key
}

// UTXOPrefix is the scan prefix covering every stored UTXO.
func UTXOPrefix() []byte {
	return []byte{PrefixUTXO}
}

// ChainStateKey addresses a chain-state value such as the current tip.
func ChainStateKey(key string) []byte {
	return append([]byte{PrefixChain}, []byte(key)...)
}

// MetaKey addresses an arbitrary piece of ledger metadata, such as the
// founder address recorded at genesis.
func MetaKey(key string) []byte {
	return append([]byte{PrefixMeta}, []byte(key)...)
}

func encodeHeight(height uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, height)
	return b
}

func decodeHeight(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid height encoding: %d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
