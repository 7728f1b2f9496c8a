package pos_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy/pos"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// maxSource always returns the largest value so Float64 is as close to 1 as
// it gets.
type maxSource struct{}

func (maxSource) Uint64() uint64 { return math.MaxUint64 }

func validators() []database.Validator {
	return []database.Validator{
		{ID: "Alice", Stake: 100},
		{ID: "Bob", Stake: 200},
		{ID: "Charlie", Stake: 300},
	}
}

// =============================================================================

func Test_SelectValidatorFairness(t *testing.T) {
	const draws = 10_000

	// Critical value of the chi-square distribution with 2 degrees of
	// freedom at a 0.001 significance level.
	const critical = 13.816

	p, err := pos.New(pos.Config{
		Validators: validators(),
		Source:     rand.NewPCG(1, 2),
	})
	if err != nil {
		t.Fatalf("Should be able to construct the strategy: %s", err)
	}

	t.Log("Given the need to select validators in proportion to their stake.")
	{
		counts := make(map[string]int)
		for range draws {
			v, err := p.SelectValidator()
			if err != nil {
				t.Fatalf("\t%s\tShould be able to select a validator: %v", failed, err)
			}
			counts[v.ID]++
		}
		t.Logf("\t%s\tShould be able to select a validator %d times.", success, draws)

		total := p.TotalStake()
		var chi float64
		for _, v := range validators() {
			expected := draws * v.Stake / total
			diff := float64(counts[v.ID]) - expected
			chi += diff * diff / expected

			t.Logf("\t\t%s: got %d, exp %.0f", v.ID, counts[v.ID], expected)
		}

		if chi > critical {
			t.Fatalf("\t%s\tShould pass a chi-square goodness of fit test, got %.3f > %.3f", failed, chi, critical)
		}
		t.Logf("\t%s\tShould pass a chi-square goodness of fit test: %.3f", success, chi)
	}
}

func Test_SelectValidatorFallback(t *testing.T) {
	stakes := []database.Validator{
		{ID: "Alice", Stake: 0.586},
		{ID: "Bob", Stake: 0.8},
		{ID: "Charlie", Stake: 0.3},
	}

	p, err := pos.New(pos.Config{Validators: stakes, Source: maxSource{}})
	if err != nil {
		t.Fatalf("Should be able to construct the strategy: %s", err)
	}

	t.Log("Given a draw that rounding keeps above every stake.")
	{
		v, err := p.SelectValidator()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to select a validator: %v", failed, err)
		}

		if v.ID != "Alice" {
			t.Fatalf("\t%s\tShould fall back to the first validator, got %s", failed, v.ID)
		}
		t.Logf("\t%s\tShould fall back to the first validator.", success)
	}
}

func Test_Registry(t *testing.T) {
	p, err := pos.New(pos.Config{})
	if err != nil {
		t.Fatalf("Should be able to construct the strategy: %s", err)
	}

	t.Log("Given the need to manage the validator registry.")
	{
		if _, err := p.SelectValidator(); !errors.Is(err, pos.ErrNoValidators) {
			t.Fatalf("\t%s\tShould fail to select from an empty registry: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail to select from an empty registry.", success)

		if err := p.AddValidator(database.Validator{ID: "Mallory", Stake: -5}); !errors.Is(err, database.ErrNegativeStake) {
			t.Fatalf("\t%s\tShould reject a negative stake: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a negative stake.", success)

		for _, v := range validators() {
			if err := p.AddValidator(v); err != nil {
				t.Fatalf("\t%s\tShould be able to add validator %s: %v", failed, v.ID, err)
			}
		}

		if err := p.AddValidator(database.Validator{ID: "Alice", Stake: 100}); err != nil {
			t.Fatalf("\t%s\tShould allow a duplicate identity: %v", failed, err)
		}
		t.Logf("\t%s\tShould allow a duplicate identity.", success)

		got := p.Validators()
		if len(got) != 4 || got[0].ID != "Alice" || got[1].ID != "Bob" || got[2].ID != "Charlie" {
			t.Fatalf("\t%s\tShould keep registration order, got %v", failed, got)
		}
		t.Logf("\t%s\tShould keep registration order.", success)

		if p.TotalStake() != 700 {
			t.Fatalf("\t%s\tShould sum all stakes, got %v", failed, p.TotalStake())
		}
		t.Logf("\t%s\tShould sum all stakes.", success)

		v, err := p.SelectValidator()
		if err != nil || !p.IsRegistered(v) {
			t.Fatalf("\t%s\tShould select a registered validator: %v", failed, err)
		}
		t.Logf("\t%s\tShould select a registered validator.", success)

		p.Reset()
		if len(p.Validators()) != 0 {
			t.Fatalf("\t%s\tShould clear the registry on reset.", failed)
		}
		t.Logf("\t%s\tShould clear the registry on reset.", success)
	}
}

func Test_SealAndVerify(t *testing.T) {
	p, err := pos.New(pos.Config{Validators: validators()})
	if err != nil {
		t.Fatalf("Should be able to construct the strategy: %s", err)
	}

	tx := database.NewTx(1, "Alice", "Bob")
	candidate := database.NewBlock(signature.ZeroHash, tx, time.Now())

	t.Log("Given the need to seal blocks with a validator.")
	{
		block, err := p.Seal(context.Background(), candidate, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to seal the block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to seal the block.", success)

		if block.Validator == nil || !p.IsRegistered(*block.Validator) {
			t.Fatalf("\t%s\tShould record a registered validator.", failed)
		}
		t.Logf("\t%s\tShould record a registered validator.", success)

		if err := p.Verify(block); err != nil {
			t.Fatalf("\t%s\tShould verify the sealed block: %v", failed, err)
		}
		t.Logf("\t%s\tShould verify the sealed block.", success)

		stranger := block
		stranger.Validator = &database.Validator{ID: "Mallory", Stake: 1_000}
		if err := p.Verify(stranger); !errors.Is(err, pos.ErrUnknownValidator) {
			t.Fatalf("\t%s\tShould reject an unknown validator: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an unknown validator.", success)

		inflated := block
		inflated.Validator = &database.Validator{ID: block.Validator.ID, Stake: 10_000}
		if err := p.Verify(inflated); !errors.Is(err, pos.ErrUnknownValidator) {
			t.Fatalf("\t%s\tShould reject an inflated stake: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an inflated stake.", success)

		if err := p.Verify(candidate); err == nil {
			t.Fatalf("\t%s\tShould reject a block without a validator.", failed)
		}
		t.Logf("\t%s\tShould reject a block without a validator.", success)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := p.Seal(ctx, candidate, nil); !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould honor a cancelled context: %v", failed, err)
		}
		t.Logf("\t%s\tShould honor a cancelled context.", success)
	}
}
