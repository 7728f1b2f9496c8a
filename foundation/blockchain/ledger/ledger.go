// Package ledger is the core API for the blockchain. It owns the ordered
// sequence of blocks, authenticates transactions before they are committed
// and delegates the sealing of new blocks to a consensus strategy.
package ledger

import (
	"errors"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy"
)

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis   genesis.Genesis
	Strategy  strategy.Strategy
	EvHandler strategy.EventHandler
}

// Ledger manages the chain of blocks in memory.
type Ledger struct {
	genesis   genesis.Genesis
	strategy  strategy.Strategy
	evHandler strategy.EventHandler

	mu       sync.RWMutex
	blocks   []database.Block
	tipMoved chan struct{}
}

// New constructs a ledger holding only the genesis block.
func New(cfg Config) (*Ledger, error) {
	if cfg.Strategy == nil {
		return nil, errors.New("a consensus strategy is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	l := Ledger{
		genesis:   cfg.Genesis,
		strategy:  cfg.Strategy,
		evHandler: ev,
		blocks:    []database.Block{genesisBlock(cfg.Genesis)},
		tipMoved:  make(chan struct{}),
	}

	l.evHandler("ledger: New: consensus[%s] genesis[%s]", l.strategy.Name(), l.blocks[0].Hash())

	return &l, nil
}

// Strategy returns the consensus strategy sealing blocks for this ledger.
func (l *Ledger) Strategy() strategy.Strategy {
	return l.strategy
}

// Genesis returns a copy of the genesis information.
func (l *Ledger) Genesis() genesis.Genesis {
	g := l.genesis

	g.Balances = make(map[string]float64, len(l.genesis.Balances))
	for id, bal := range l.genesis.Balances {
		g.Balances[id] = bal
	}
	g.Validators = append([]genesis.Validator(nil), l.genesis.Validators...)

	return g
}

// LatestBlock returns the tail of the chain. The chain always holds at least
// the genesis block.
func (l *Ledger) LatestBlock() database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.blocks[len(l.blocks)-1].Copy()
}

// Length returns the number of committed blocks, including genesis.
func (l *Ledger) Length() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.blocks)
}

// Reset discards every block and returns the ledger to a fresh genesis
// block. Strategies holding state, like the validator registry, are reset
// as well. Any search in flight is cancelled.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if r, ok := l.strategy.(strategy.Resetter); ok {
		r.Reset()
	}

	l.blocks = []database.Block{genesisBlock(l.genesis)}
	l.moveTip()

	l.evHandler("ledger: Reset: genesis[%s]", l.blocks[0].Hash())
}

// =============================================================================

// tip returns the tail of the chain and the channel that is closed once the
// tail moves.
func (l *Ledger) tip() (database.Block, <-chan struct{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.blocks[len(l.blocks)-1].Copy(), l.tipMoved
}

// moveTip signals everyone waiting on the current tail. The caller must hold
// the write lock.
func (l *Ledger) moveTip() {
	close(l.tipMoved)
	l.tipMoved = make(chan struct{})
}

// genesisBlock constructs the genesis block from the genesis information.
func genesisBlock(g genesis.Genesis) database.Block {
	tx := database.NewTx(g.Seed.Amount, g.Seed.Payer, g.Seed.Payee)
	return database.Genesis(tx, g.Date.UTC().UnixMilli())
}
