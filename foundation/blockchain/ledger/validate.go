package ledger

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// IntegrityError is returned by Validate for the first block found to break
// the chain.
type IntegrityError struct {
	Number int
	Hash   string
	Err    error
}

// Error implements the error interface.
func (ie *IntegrityError) Error() string {
	return fmt.Sprintf("chain integrity violated at block %d [%s]: %s", ie.Number, ie.Hash, ie.Err)
}

// Unwrap returns the cause of the violation.
func (ie *IntegrityError) Unwrap() error {
	return ie.Err
}

// =============================================================================

// IsChainValid reports whether every block links to its predecessor and
// carries a proof the strategy accepts.
func (l *Ledger) IsChainValid() bool {
	return l.Validate() == nil
}

// Validate scans the chain from the second block forward and returns an
// *IntegrityError for the first violation found. The genesis block bypasses
// consensus, it is only compared against the genesis information.
func (l *Ledger) Validate() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err := l.checkGenesis(l.blocks[0]); err != nil {
		return err
	}

	for i := 1; i < len(l.blocks); i++ {
		prev, block := l.blocks[i-1], l.blocks[i]

		if hash := prev.Hash(); block.PrevBlockHash != hash {
			return &IntegrityError{
				Number: i,
				Hash:   block.Hash(),
				Err:    fmt.Errorf("previous hash %s does not match block %d hash %s", block.PrevBlockHash, i-1, hash),
			}
		}

		if err := l.strategy.Verify(block); err != nil {
			return &IntegrityError{
				Number: i,
				Hash:   block.Hash(),
				Err:    err,
			}
		}
	}

	return nil
}

// checkGenesis reports whether the first block still matches the genesis
// information.
func (l *Ledger) checkGenesis(block database.Block) error {
	if exp := genesisBlock(l.genesis).Hash(); block.Hash() != exp {
		return &IntegrityError{
			Number: 0,
			Hash:   block.Hash(),
			Err:    fmt.Errorf("genesis block does not match, exp %s", exp),
		}
	}
	return nil
}
