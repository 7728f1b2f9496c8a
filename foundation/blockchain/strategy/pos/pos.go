// Package pos implements the proof of stake consensus mechanism. A block is
// sealed by drawing a validator from the registry with a probability equal to
// its share of the total stake.
package pos

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy"
)

// Name is the name of this consensus mechanism.
const Name = "pos"

// Set of errors returned by proof of stake.
var (
	ErrNoValidators     = errors.New("no validators registered")
	ErrUnknownValidator = errors.New("validator is not registered")
)

// Config represents the configuration for proof of stake.
type Config struct {
	Validators []database.Validator // Validators registered at construction and after a reset.
	Source     rand.Source          // Source of randomness for selection, random if nil.
}

// POS seals blocks by stake weighted validator selection.
type POS struct {
	mu         sync.Mutex
	initial    []database.Validator
	validators []database.Validator
	rnd        *rand.Rand
}

// New constructs a proof of stake strategy.
func New(cfg Config) (*POS, error) {
	for _, v := range cfg.Validators {
		if _, err := database.NewValidator(v.ID, v.Stake); err != nil {
			return nil, err
		}
	}

	src := cfg.Source
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	p := POS{
		initial:    append([]database.Validator(nil), cfg.Validators...),
		validators: append([]database.Validator(nil), cfg.Validators...),
		rnd:        rand.New(src),
	}

	return &p, nil
}

// Name implements the strategy.Strategy interface.
func (p *POS) Name() string {
	return Name
}

// AddValidator registers a new validator. Identities are not deduplicated,
// a validator registered twice gets two entries in the lottery.
func (p *POS) AddValidator(v database.Validator) error {
	if _, err := database.NewValidator(v.ID, v.Stake); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.validators = append(p.validators, v)
	return nil
}

// Validators returns a copy of the registry in registration order.
func (p *POS) Validators() []database.Validator {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]database.Validator(nil), p.validators...)
}

// TotalStake returns the sum of all registered stakes.
func (p *POS) TotalStake() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return totalStake(p.validators)
}

// SelectValidator draws a validator with a probability of its stake over the
// total stake. A value r is drawn from [0, total) and each validator's stake
// is subtracted in registration order until r reaches 0 or below.
//
// If rounding keeps r above 0 after every validator has been visited, the
// first registered validator is returned. This fallback biases selection
// toward the first validator in that rare case.
func (p *POS) SelectValidator() (database.Validator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.validators) == 0 {
		return database.Validator{}, ErrNoValidators
	}

	r := p.rnd.Float64() * totalStake(p.validators)

	for _, v := range p.validators {
		r -= v.Stake
		if r <= 0 {
			return v, nil
		}
	}

	return p.validators[0], nil
}

// Seal implements the strategy.Strategy interface. No puzzle is searched,
// the block records the selected validator.
func (p *POS) Seal(ctx context.Context, candidate database.Block, ev strategy.EventHandler) (database.Block, error) {
	if err := ctx.Err(); err != nil {
		return database.Block{}, err
	}

	v, err := p.SelectValidator()
	if err != nil {
		return database.Block{}, err
	}

	if ev != nil {
		ev("pos: Seal: SELECTED: validator[%s]", v)
	}

	candidate.Nonce = 0
	candidate.Difficulty = 0
	candidate.Validator = &v

	return candidate, nil
}

// Verify implements the strategy.Strategy interface. The block must name a
// validator that is registered with the same stake.
func (p *POS) Verify(block database.Block) error {
	if block.Validator == nil {
		return errors.New("proof of stake block carries no validator")
	}

	if block.Nonce != 0 || block.Difficulty != 0 {
		return fmt.Errorf("proof of stake block carries work, nonce %d, difficulty %d", block.Nonce, block.Difficulty)
	}

	if !p.IsRegistered(*block.Validator) {
		return fmt.Errorf("%w: %s", ErrUnknownValidator, block.Validator)
	}

	return nil
}

// IsRegistered reports whether the validator is in the registry with the
// same identity and stake.
func (p *POS) IsRegistered(v database.Validator) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, rv := range p.validators {
		if rv == v {
			return true
		}
	}

	return false
}

// Reset implements the strategy.Resetter interface. The registry goes back
// to the validators provided at construction.
func (p *POS) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.validators = append([]database.Validator(nil), p.initial...)
}

// =============================================================================

// totalStake sums the stakes of the validators.
func totalStake(validators []database.Validator) float64 {
	var total float64
	for _, v := range validators {
		total += v.Stake
	}
	return total
}
