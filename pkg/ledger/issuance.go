package ledger

// Issuance constants. Amounts are integer satoshi-equivalent units; there is
// no further fractional scale.
const (
	BaseReward        int64  = 50
	HalvingInterval    uint64 = 210000
	MaxSupply         int64  = 100000000
	FounderAllocation int64  = 20000000
	Dust              int64  = 1
)

// Reward returns the coinbase subsidy for a block at height. It halves
// every HalvingInterval blocks and floors to zero once the reward has
// halved away to nothing.
func Reward(height uint64) int64 {
	halvings := height / HalvingInterval
	if halvings >= 64 {
		return 0
	}
	return BaseReward >> halvings
}

// CirculatingSupply returns total coins issued by the time the chain has
// reached height (the number of committed blocks): the founder allocation,
// if any, plus the reward paid at every height from 1 up to height-1. The
// reward paid at height 0 (genesis) is excluded: genesis pays only the
// founder allocation, never a scheduled reward.
func CirculatingSupply(height uint64, founderAllocated bool) int64 {
	var total int64
	if founderAllocated {
		total += FounderAllocation
	}
	for i := uint64(1); i < height; i++ {
		total += Reward(i)
	}
	return total
}
