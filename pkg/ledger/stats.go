package ledger

// MinerEntry is one coinbase recipient's cumulative mining record.
type MinerEntry struct {
	Address     string `json:"address"`
	BlocksMined int64  `json:"blocks_mined"`
	TotalReward int64  `json:"total_reward"`
}

// MinerStats scans every committed block's coinbase and aggregates block
// count and reward total per recipient address. It is a read-only replay
// over the warm block cache and the durable store, never the live UTXO
// index, so it reflects exactly what has been paid out, not what remains
// unspent.
func (l *Ledger) MinerStats() ([]MinerEntry, error) {
	l.mu.Lock()
	height := l.height
	l.mu.Unlock()

	totals := make(map[string]*MinerEntry)
	order := make([]string, 0)

	for i := uint64(0); i < height; i++ {
		block, err := l.GetBlockByIndex(i)
		if err != nil {
			return nil, err
		}
		coinbase := block.Coinbase()
		if coinbase == nil || len(coinbase.Outputs) == 0 {
			continue
		}
		addr := coinbase.Outputs[0].ScriptPubKey
		entry, ok := totals[addr]
		if !ok {
			entry = &MinerEntry{Address: addr}
			totals[addr] = entry
			order = append(order, addr)
		}
		entry.BlocksMined++
		entry.TotalReward += coinbase.OutputSum()
	}

	out := make([]MinerEntry, len(order))
	for i, addr := range order {
		out[i] = *totals[addr]
	}
	return out, nil
}
