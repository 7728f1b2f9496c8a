package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy"
)

// Set of errors returned when a transaction is rejected. The chain is left
// unchanged in every case.
var (
	ErrPayerMismatch    = errors.New("payer does not match the public key")
	ErrInvalidSignature = signature.ErrInvalidSignature
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrNotSupported     = errors.New("operation not supported by the consensus strategy")
)

// errTipMoved is returned by commit when another block was appended after
// the candidate was built.
var errTipMoved = errors.New("chain tip moved")

// =============================================================================

// Submit authenticates the transaction and commits it in a new block sealed
// by the consensus strategy. The public key must be the payer of the
// transaction and the signature must be produced over the transaction by
// that key.
func (l *Ledger) Submit(ctx context.Context, tx database.Tx, publicKey string, sig []byte) (database.Block, error) {
	l.evHandler("ledger: Submit: started: tx[%s]", tx)
	defer l.evHandler("ledger: Submit: completed")

	if tx.Payer != publicKey {
		return database.Block{}, fmt.Errorf("%w: payer[%s]", ErrPayerMismatch, tx.Payer)
	}

	if err := tx.Verify(publicKey, sig); err != nil {
		return database.Block{}, err
	}

	// A negated comparison also rejects NaN.
	if !(tx.Amount > 0) {
		return database.Block{}, fmt.Errorf("%w: %v", ErrInvalidAmount, tx.Amount)
	}

	return l.sealAndCommit(ctx, tx, 0)
}

// MineReward commits a block paying the mining reward to the beneficiary.
// The nonce is the starting point of a proof of work search, 0 lets the
// strategy choose one.
func (l *Ledger) MineReward(ctx context.Context, beneficiary string, nonce uint64) (database.Block, error) {
	l.evHandler("ledger: MineReward: started: beneficiary[%s]", beneficiary)
	defer l.evHandler("ledger: MineReward: completed")

	tx := database.NewTx(l.genesis.MiningReward, genesis.MintAccount, beneficiary)

	return l.sealAndCommit(ctx, tx, nonce)
}

// Forge selects a validator by stake and commits a block paying it the
// reward. The strategy must be able to select validators.
func (l *Ledger) Forge(ctx context.Context) (database.Block, error) {
	selector, ok := l.strategy.(strategy.Selector)
	if !ok {
		return database.Block{}, fmt.Errorf("%w: forge with %s", ErrNotSupported, l.strategy.Name())
	}

	v, err := selector.SelectValidator()
	if err != nil {
		return database.Block{}, err
	}

	return l.AddBlock(ctx, v)
}

// AddBlock commits a block whose proof is the specified validator and whose
// transaction pays it the reward. No search is performed, the strategy only
// verifies the validator before the block is appended.
func (l *Ledger) AddBlock(ctx context.Context, v database.Validator) (database.Block, error) {
	l.evHandler("ledger: AddBlock: started: validator[%s]", v)
	defer l.evHandler("ledger: AddBlock: completed")

	tx := database.NewTx(l.genesis.MiningReward, genesis.MintAccount, v.ID)

	for {
		if err := ctx.Err(); err != nil {
			return database.Block{}, err
		}

		tip, _ := l.tip()

		block := database.NewBlock(tip.Hash(), tx, time.Now())
		block.Validator = &v

		err := l.commit(block)
		switch {
		case errors.Is(err, errTipMoved):
			l.evHandler("ledger: AddBlock: competing commit, retrying")
			continue
		case err != nil:
			return database.Block{}, err
		}

		return block, nil
	}
}

// =============================================================================

// sealAndCommit builds a candidate on the current tail, has the strategy
// seal it and commits the result. Sealing runs without holding the lock. If
// another block is committed in the meantime the search is cancelled and
// restarted on the new tail.
func (l *Ledger) sealAndCommit(ctx context.Context, tx database.Tx, nonce uint64) (database.Block, error) {
	for {
		tip, moved := l.tip()

		candidate := database.NewBlock(tip.Hash(), tx, time.Now())
		candidate.Nonce = nonce

		block, err := l.seal(ctx, candidate, moved)
		if err != nil {
			if ctx.Err() == nil && isClosed(moved) {
				l.evHandler("ledger: sealAndCommit: competing commit, restarting search")
				continue
			}
			return database.Block{}, err
		}

		err = l.commit(block)
		switch {
		case errors.Is(err, errTipMoved):
			l.evHandler("ledger: sealAndCommit: competing commit, discarding block[%s]", block.Hash())
			continue
		case err != nil:
			return database.Block{}, err
		}

		return block, nil
	}
}

// seal runs the strategy with a context that is cancelled when the tail
// moves.
func (l *Ledger) seal(ctx context.Context, candidate database.Block, moved <-chan struct{}) (database.Block, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-moved:
			cancel()
		case <-ctx.Done():
		}
	}()

	return l.strategy.Seal(ctx, candidate, l.evHandler)
}

// commit appends the sealed block if it still links to the tail of the
// chain and the strategy accepts its proof.
func (l *Ledger) commit(block database.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	latest := l.blocks[len(l.blocks)-1]
	if block.PrevBlockHash != latest.Hash() {
		return errTipMoved
	}

	if err := l.strategy.Verify(block); err != nil {
		return err
	}

	// The caller keeps its copy of the block, the chain owns this one.
	l.blocks = append(l.blocks, block.Copy())
	l.moveTip()

	l.evHandler("ledger: commit: BLOCK: number[%d] hash[%s]", len(l.blocks)-1, block.Hash())

	return nil
}

// isClosed reports whether the channel has been closed.
func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
