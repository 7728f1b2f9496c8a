package ledger

import (
	"errors"

	"github.com/ardanlabs/ledger/foundation/blockchain/balance"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
)

// ErrNotFound is returned when a block can't be found.
var ErrNotFound = errors.New("block not found")

// Blocks returns a copy of every block in the chain.
func (l *Ledger) Blocks() []database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	blocks := make([]database.Block, len(l.blocks))
	for i, block := range l.blocks {
		blocks[i] = block.Copy()
	}

	return blocks
}

// QueryBlocks returns the blocks, with their number, that involve the
// specified identity. An empty identity returns every block.
func (l *Ledger) QueryBlocks(identity string) []database.BlockData {
	var out []database.BlockData
	for i, block := range l.Blocks() {
		if identity == "" || block.Involves(identity) {
			out = append(out, database.NewBlockData(i, block))
		}
	}

	return out
}

// QueryBalances replays the chain on top of the genesis balances. An empty
// identity returns the balance of every identity.
func (l *Ledger) QueryBalances(identity string) map[string]float64 {
	sheet := balance.NewSheet(genesis.MintAccount, l.genesis.Balances)
	sheet.ApplyBlocks(l.Blocks())

	if identity == "" {
		return sheet.Copy()
	}

	return map[string]float64{identity: sheet.Balance(identity)}
}

// QueryBlockByHash returns the block with the specified hash and its number.
func (l *Ledger) QueryBlockByHash(hash string) (database.BlockData, error) {
	blocks := l.Blocks()

	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].Hash() == hash {
			return database.NewBlockData(i, blocks[i]), nil
		}
	}

	return database.BlockData{}, ErrNotFound
}
