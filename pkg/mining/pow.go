package mining

import (
	"context"
	"fmt"

	"github.com/pouria-shahmiri/learn-bitcoin/pkg/canonical"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/crypto"
	"github.com/pouria-shahmiri/learn-bitcoin/pkg/types"
)

// Stats reports nonce-search progress, delivered periodically through
// Solve's onProgress callback.
type Stats struct {
	Attempts   uint64
	Nonce      uint64
	Difficulty int
}

// Solve searches header's nonce space for a value whose block hash has at
// least header.Difficulty leading hex zeros. It reports progress every
// reportEvery attempts (0 disables reporting) and returns as soon as ctx is
// canceled, wrapping ctx.Err().
func Solve(ctx context.Context, header types.BlockHeader, reportEvery uint64, onProgress func(Stats)) (types.BlockHeader, string, error) {
	var attempts uint64

	for nonce := uint64(0); ; nonce++ {
		if nonce%4096 == 0 {
			select {
			case <-ctx.Done():
				return types.BlockHeader{}, "", fmt.Errorf("mining canceled after %d attempts: %w", attempts, ctx.Err())
			default:
			}
		}

		header.Nonce = nonce
		hash, err := canonical.BlockHash(header)
		if err != nil {
			return types.BlockHeader{}, "", fmt.Errorf("hash candidate header: %w", err)
		}
		attempts++

		if crypto.MeetsDifficulty(hash, header.Difficulty) {
			return header, hash, nil
		}

		if reportEvery != 0 && attempts%reportEvery == 0 && onProgress != nil {
			onProgress(Stats{Attempts: attempts, Nonce: nonce, Difficulty: header.Difficulty})
		}

		if nonce == ^uint64(0) {
			return types.BlockHeader{}, "", fmt.Errorf("nonce space exhausted after %d attempts", attempts)
		}
	}
}
