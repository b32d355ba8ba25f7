package encoding

import (
	"crypto/sha256"
	"fmt"
)

// EncodeBase58Check encodes data behind a version byte and a 4-byte
// checksum: [version][data][checksum]. Addresses are the only caller today
// (version 0x00), but the version byte lets the wire format grow without
// another encoding pass.
func EncodeBase58Check(version byte, data []byte) string {
	payload := make([]byte, 1+len(data))
	payload[0] = version
	copy(payload[1:], data)

	checksum := doubleSHA256(payload)[:4]
	fullPayload := append(payload, checksum...)

	return EncodeBase58(fullPayload)
}

// DecodeBase58Check decodes input and verifies its trailing checksum,
// returning the version byte and payload on success. Every error is
// wrapped with enough context to tell a caller-supplied garbage string
// apart from one that merely decoded to the wrong length.
func DecodeBase58Check(input string) (version byte, data []byte, err error) {
	decoded, err := DecodeBase58(input)
	if err != nil {
		return 0, nil, fmt.Errorf("base58check: %w", err)
	}

	if len(decoded) < 5 {
		return 0, nil, fmt.Errorf("base58check: decoded payload too short: %d bytes, need at least 5", len(decoded))
	}

	payload := decoded[:len(decoded)-4]
	checksum := decoded[len(decoded)-4:]

	expectedChecksum := doubleSHA256(payload)[:4]
	for i := 0; i < 4; i++ {
		if checksum[i] != expectedChecksum[i] {
			return 0, nil, fmt.Errorf("base58check: checksum mismatch")
		}
	}

	version = payload[0]
	data = payload[1:]

	return version, data, nil
}

func doubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}