// Package balance maintains account balances in memory by replaying the
// transactions committed to the ledger.
package balance

import (
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Sheet represents the data representation to maintain identity balances.
type Sheet struct {
	mint  string
	sheet map[string]float64
	mu    sync.RWMutex
}

// NewSheet constructs a new balance sheet for use, expects a starting
// balance sheet usually from a genesis file. Transactions paid by the mint
// account create value and don't debit it.
func NewSheet(mint string, sheet map[string]float64) *Sheet {
	bs := Sheet{
		mint:  mint,
		sheet: make(map[string]float64),
	}

	if sheet != nil {
		bs.Reset(sheet)
	}

	return &bs
}

// Reset takes the specified sheet and resets the balances.
func (bs *Sheet) Reset(sheet map[string]float64) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	bs.sheet = make(map[string]float64)
	for identity, value := range sheet {
		bs.sheet[identity] = value
	}
}

// Copy makes a copy of the current balance sheet but returns the raw data.
func (bs *Sheet) Copy() map[string]float64 {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	sheet := make(map[string]float64)
	for identity, value := range bs.sheet {
		sheet[identity] = value
	}
	return sheet
}

// Balance returns the balance for the specified identity.
func (bs *Sheet) Balance(identity string) float64 {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	return bs.sheet[identity]
}

// ApplyTransaction moves the transaction amount from the payer to the payee.
// The ledger does not enforce funds, so a payer's balance may go negative.
func (bs *Sheet) ApplyTransaction(tx database.Tx) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if tx.Payer != bs.mint {
		bs.sheet[tx.Payer] -= tx.Amount
	}
	bs.sheet[tx.Payee] += tx.Amount
}

// ApplyBlocks applies the transactions of every block in order.
func (bs *Sheet) ApplyBlocks(blocks []database.Block) {
	for _, block := range blocks {
		bs.ApplyTransaction(block.Tx)
	}
}
