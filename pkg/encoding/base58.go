// Package encoding implements the Base58 and Base58Check codecs the ledger
// uses for addresses: no ambiguous-looking characters, leading zero bytes
// preserved as leading '1's.
package encoding

import (
	"fmt"
	"math/big"
)

// base58Alphabet excludes 0, O, I and l so addresses copied by hand don't
// fumble on lookalike characters.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var (
	base58Base        = big.NewInt(58)
	bigZero           = big.NewInt(0)
	base58AlphabetMap [128]int8
)

func init() {
	for i := range base58AlphabetMap {
		base58AlphabetMap[i] = -1
	}
	for i, c := range base58Alphabet {
		base58AlphabetMap[c] = int8(i)
	}
}

// EncodeBase58 encodes data as a Base58 string, treating it as an unsigned
// big-endian integer and preserving leading zero bytes as leading '1's.
func EncodeBase58(data []byte) string {
	x := new(big.Int).SetBytes(data)

	var result []byte
	for x.Cmp(bigZero) > 0 {
		mod := new(big.Int)
		x.DivMod(x, base58Base, mod)
		result = append(result, base58Alphabet[mod.Int64()])
	}

	for _, b := range data {
		if b != 0 {
			break
		}
		result = append(result, base58Alphabet[0])
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// DecodeBase58 inverts EncodeBase58. An empty string decodes to nil.
func DecodeBase58(input string) ([]byte, error) {
	if len(input) == 0 {
		return nil, nil
	}

	x := big.NewInt(0)
	for _, c := range input {
		if c > 127 || base58AlphabetMap[c] == -1 {
			return nil, fmt.Errorf("%w: character %q is outside the base58 alphabet", ErrInvalidBase58, c)
		}
		x.Mul(x, base58Base)
		x.Add(x, big.NewInt(int64(base58AlphabetMap[c])))
	}

	decoded := x.Bytes()

	for _, c := range input {
		if c != rune(base58Alphabet[0]) {
			break
		}
		decoded = append([]byte{0}, decoded...)
	}

	return decoded, nil
}

// ErrInvalidBase58 wraps every character-level decode failure so callers can
// match on it with errors.Is without parsing the message.
var ErrInvalidBase58 = fmt.Errorf("invalid base58 string")