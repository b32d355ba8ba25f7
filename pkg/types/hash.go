// Package types holds the value objects shared by the ledger: transactions,
// blocks, and the hash strings that address them.
package types

import "strings"

// ZeroHash is the 64 hex-character placeholder used as a coinbase input's
// PrevTxid and as the genesis block's PreviousHash.
var ZeroHash = strings.Repeat("0", 64)

// CoinbaseVout is the sentinel PrevVout for a coinbase input.
const CoinbaseVout uint32 = 0xFFFFFFFF
