// Package utxo tracks the set of unspent transaction outputs: the index a
// transaction is validated against and applied to.
package utxo

import "fmt"

// OutPoint uniquely identifies a transaction output.
type OutPoint struct {
	Txid string
	Vout uint32
}

// String renders the outpoint as "txid:vout"; maps key on the OutPoint
// value itself.
func (op OutPoint) String() string {
	return fmt.Sprintf("%s:%d", op.Txid, op.Vout)
}
