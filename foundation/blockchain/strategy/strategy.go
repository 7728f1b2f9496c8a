// Package strategy defines the behavior a consensus mechanism provides to the
// ledger. The pow and pos packages provide the implementations.
package strategy

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// EventHandler defines a function that is called when events
// occur in the processing of sealing blocks.
type EventHandler func(v string, args ...any)

// Strategy interface represents the behavior required to be implemented by
// any package providing a consensus mechanism for the ledger.
type Strategy interface {

	// Name returns the name of the consensus mechanism.
	Name() string

	// Seal fills in the proof for the candidate block so it can be appended
	// to the chain. Seal must return when the context is cancelled.
	Seal(ctx context.Context, candidate database.Block, ev EventHandler) (database.Block, error)

	// Verify checks the block carries a proof this strategy accepts.
	Verify(block database.Block) error
}

// Selector is implemented by strategies that pick a validator to forge the
// next block.
type Selector interface {
	SelectValidator() (database.Validator, error)
}

// Resetter is implemented by strategies holding state that must be cleared
// when the ledger is reset.
type Resetter interface {
	Reset()
}
