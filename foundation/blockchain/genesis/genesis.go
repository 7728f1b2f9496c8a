// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Set of consensus mechanisms a ledger can be started with.
const (
	ConsensusPOW = "pow"
	ConsensusPOS = "pos"
)

// MintAccount is the payer used for transactions that create value, such as
// the seed transaction and mining rewards.
const MintAccount = "genesis"

// Seed is the transaction committed by the genesis block.
type Seed struct {
	Amount float64 `json:"amount" yaml:"amount"`
	Payer  string  `json:"payer" yaml:"payer"`
	Payee  string  `json:"payee" yaml:"payee"`
}

// Validator is a validator registered when the ledger starts.
type Validator struct {
	ID    string  `json:"id" yaml:"id"`
	Stake float64 `json:"stake" yaml:"stake"`
}

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time          `json:"date" yaml:"date"`                   // Time stamped on the genesis block.
	Consensus    string             `json:"consensus" yaml:"consensus"`         // Either pow or pos.
	Difficulty   uint               `json:"difficulty" yaml:"difficulty"`       // How difficult it needs to be to solve the work problem.
	MiningReward float64            `json:"mining_reward" yaml:"mining_reward"` // Reward for mining or forging a block.
	Seed         Seed               `json:"seed" yaml:"seed"`                   // Transaction committed by the genesis block.
	Balances     map[string]float64 `json:"balances" yaml:"balances"`           // Opening balances.
	Validators   []Validator        `json:"validators" yaml:"validators"`       // Validators registered at start.
}

// Default returns the built-in genesis information.
func Default() Genesis {
	return Genesis{
		Date:         time.Date(2009, time.January, 3, 18, 15, 5, 0, time.UTC),
		Consensus:    ConsensusPOW,
		Difficulty:   4,
		MiningReward: 50,
		Seed: Seed{
			Amount: 100,
			Payer:  MintAccount,
			Payee:  "satoshi",
		},
		Balances: map[string]float64{},
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Files with a .yaml or .yml
// extension are decoded as YAML, everything else as JSON. Fields missing from
// the file keep their default values.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &genesis)
	default:
		err = json.Unmarshal(content, &genesis)
	}
	if err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis %q: %w", path, err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis information is usable.
func (g Genesis) Validate() error {
	switch g.Consensus {
	case ConsensusPOW, ConsensusPOS:
	default:
		return fmt.Errorf("unknown consensus %q", g.Consensus)
	}

	if g.Consensus == ConsensusPOW && g.Difficulty == 0 {
		return fmt.Errorf("proof of work requires a difficulty of at least 1")
	}

	for _, v := range g.Validators {
		if v.Stake < 0 {
			return fmt.Errorf("validator %q has a negative stake", v.ID)
		}
	}

	return nil
}
