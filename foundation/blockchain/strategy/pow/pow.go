// Package pow implements the proof of work consensus mechanism. A block is
// sealed by searching for a nonce that gives the block hash a prefix of
// difficulty number of 0's.
package pow

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"iter"
	"math"
	"math/big"
	"strings"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy"
)

// Name is the name of this consensus mechanism.
const Name = "pow"

// reportEvery is the number of attempts between progress events.
const reportEvery = 1_000_000

// Set of errors returned by the mining operation.
var (
	ErrMiningAborted     = errors.New("mining aborted")
	ErrMiningExhausted   = errors.New("mining exhausted attempts")
	ErrHashNotSolved     = errors.New("block hash does not solve the puzzle")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)

// Config represents the configuration for proof of work.
type Config struct {
	Difficulty    uint   // Number of leading 0's needed to solve the hash.
	MinDifficulty uint   // Lowest difficulty a committed block may carry, defaults to 1.
	MaxAttempts   uint64 // Upper bound on attempts per search, 0 means unbounded.
}

// POW seals blocks by brute force searching for a nonce.
type POW struct {
	mu            sync.RWMutex
	difficulty    uint
	minDifficulty uint
	maxAttempts   uint64
}

// New constructs a proof of work strategy.
func New(cfg Config) (*POW, error) {
	minDifficulty := cfg.MinDifficulty
	if minDifficulty == 0 {
		minDifficulty = 1
	}

	if err := checkDifficulty(cfg.Difficulty, minDifficulty); err != nil {
		return nil, err
	}

	p := POW{
		difficulty:    cfg.Difficulty,
		minDifficulty: minDifficulty,
		maxAttempts:   cfg.MaxAttempts,
	}

	return &p, nil
}

// Name implements the strategy.Strategy interface.
func (p *POW) Name() string {
	return Name
}

// Difficulty returns the current mining difficulty.
func (p *POW) Difficulty() uint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.difficulty
}

// SetDifficulty changes the difficulty used for blocks mined from now on.
// Blocks already committed keep the difficulty they were solved at.
func (p *POW) SetDifficulty(difficulty uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := checkDifficulty(difficulty, p.minDifficulty); err != nil {
		return err
	}

	p.difficulty = difficulty
	return nil
}

// Seal implements the strategy.Strategy interface. A candidate with a zero
// nonce starts the search from a random nonce, anything else is used as the
// starting point.
func (p *POW) Seal(ctx context.Context, candidate database.Block, ev strategy.EventHandler) (database.Block, error) {
	p.mu.RLock()
	candidate.Difficulty = p.difficulty
	maxAttempts := p.maxAttempts
	p.mu.RUnlock()

	candidate.Validator = nil

	if candidate.Nonce == 0 {
		nonce, err := randomNonce()
		if err != nil {
			return database.Block{}, err
		}
		candidate.Nonce = nonce
	}

	return Mine(ctx, candidate, maxAttempts, ev)
}

// Verify implements the strategy.Strategy interface. Verification costs a
// single hash.
func (p *POW) Verify(block database.Block) error {
	if block.Validator != nil {
		return fmt.Errorf("proof of work block carries validator %s", block.Validator.ID)
	}

	if block.Difficulty < p.minDifficulty {
		return fmt.Errorf("%w: block difficulty %d is below %d", ErrInvalidDifficulty, block.Difficulty, p.minDifficulty)
	}

	hash := block.Hash()
	if !IsHashSolved(block.Difficulty, hash) {
		return fmt.Errorf("%w: hash %s, difficulty %d", ErrHashNotSolved, hash, block.Difficulty)
	}

	return nil
}

// =============================================================================

// Nonces returns an iterator over the candidate nonces starting at the
// specified nonce. The sequence wraps around at the top of the range.
func Nonces(start uint64) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for nonce := start; ; nonce++ {
			if !yield(nonce) {
				return
			}
		}
	}
}

// Mine does the work of finding a nonce that solves the puzzle for the block
// at the block's difficulty, starting at the block's current nonce. A
// maxAttempts of 0 means the search only stops once solved or cancelled.
// On error the returned block holds the next untried nonce so the search can
// be resumed by calling Mine again.
func Mine(ctx context.Context, block database.Block, maxAttempts uint64, ev strategy.EventHandler) (database.Block, error) {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("pow: Mine: MINING: started: difficulty[%d] nonce[%d]", block.Difficulty, block.Nonce)
	defer ev("pow: Mine: MINING: completed")

	var attempts uint64
	for nonce := range Nonces(block.Nonce) {
		block.Nonce = nonce

		// Did we get cancelled or run out of attempts.
		if ctx.Err() != nil {
			ev("pow: Mine: MINING: CANCELLED: attempts[%d]", attempts)
			return block, fmt.Errorf("%w: %w", ErrMiningAborted, ctx.Err())
		}

		if maxAttempts > 0 && attempts >= maxAttempts {
			ev("pow: Mine: MINING: EXHAUSTED: attempts[%d]", attempts)
			return block, fmt.Errorf("%w: %d attempts", ErrMiningExhausted, attempts)
		}

		attempts++
		if attempts%reportEvery == 0 {
			ev("pow: Mine: MINING: attempts[%d]", attempts)
		}

		// Hash the block and check if we have solved the puzzle.
		hash := block.Hash()
		if !IsHashSolved(block.Difficulty, hash) {
			continue
		}

		ev("pow: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", block.PrevBlockHash, hash, attempts)
		return block, nil
	}

	return block, ErrMiningExhausted
}

// IsHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func IsHashSolved(difficulty uint, hash string) bool {
	if len(hash) != signature.HashLength || difficulty > signature.HashLength {
		return false
	}

	return hash[:difficulty] == strings.Repeat("0", int(difficulty))
}

// =============================================================================

// checkDifficulty validates a difficulty against the minimum allowed.
func checkDifficulty(difficulty uint, minDifficulty uint) error {
	if difficulty < minDifficulty || difficulty > signature.HashLength {
		return fmt.Errorf("%w: %d, must be between %d and %d", ErrInvalidDifficulty, difficulty, minDifficulty, signature.HashLength)
	}
	return nil
}

// randomNonce chooses a random starting point for the nonce.
func randomNonce() (uint64, error) {
	nBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, err
	}

	// Zero asks for a random start, so never hand it back.
	return nBig.Uint64() + 1, nil
}
