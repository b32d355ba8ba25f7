package utxo

// UTXO is a single unspent output, keyed uniquely by (Txid, Vout). It is
// born when the block that contains it commits and removed by the commit of
// a block whose input names it.
type UTXO struct {
	Txid         string `json:"txid"`
	Vout         uint32 `json:"vout"`
	Amount       int64  `json:"amount"`
	ScriptPubKey string `json:"script_pubkey"`
}

// OutPoint returns the outpoint this UTXO is keyed by.
func (u UTXO) OutPoint() OutPoint {
	return OutPoint{Txid: u.Txid, Vout: u.Vout}
}
