package ledger_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy/pos"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy/pow"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type account struct {
	pk       *ecdsa.PrivateKey
	identity string
}

func newAccount(t *testing.T) account {
	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	return account{pk: pk, identity: signature.PublicKeyString(pk.PublicKey)}
}

func (a account) send(t *testing.T, amount float64, payee string) (database.Tx, []byte) {
	tx := database.NewTx(amount, a.identity, payee)

	sig, err := tx.Sign(a.pk)
	if err != nil {
		t.Fatalf("Should be able to sign the transaction: %s", err)
	}

	return tx, sig
}

func newPOWLedger(t *testing.T, difficulty uint) *ledger.Ledger {
	p, err := pow.New(pow.Config{Difficulty: difficulty})
	if err != nil {
		t.Fatalf("Should be able to construct proof of work: %s", err)
	}

	l, err := ledger.New(ledger.Config{
		Genesis:   genesis.Default(),
		Strategy:  p,
		EvHandler: func(v string, args ...any) { t.Logf("\t\t"+v, args...) },
	})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}

	return l
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	l := newPOWLedger(t, 1)

	t.Log("Given the need to start from a genesis block.")
	{
		if l.Length() != 1 {
			t.Fatalf("\t%s\tShould have a single block, got %d", failed, l.Length())
		}
		t.Logf("\t%s\tShould have a single block.", success)

		latest := l.LatestBlock()
		if latest.PrevBlockHash != signature.ZeroHash {
			t.Fatalf("\t%s\tShould have the sentinel previous hash, got %s", failed, latest.PrevBlockHash)
		}
		t.Logf("\t%s\tShould have the sentinel previous hash.", success)

		exp := database.NewTx(100, genesis.MintAccount, "satoshi")
		if latest.Tx != exp {
			t.Fatalf("\t%s\tShould carry the seed transaction, got %s", failed, latest.Tx)
		}
		t.Logf("\t%s\tShould carry the seed transaction.", success)

		if !l.IsChainValid() {
			t.Fatalf("\t%s\tShould report a valid chain.", failed)
		}
		t.Logf("\t%s\tShould report a valid chain.", success)
	}

	t.Log("Given the need to reset the ledger.")
	{
		genesisHash := l.LatestBlock().Hash()

		if _, err := l.MineReward(context.Background(), "satoshi", 0); err != nil {
			t.Fatalf("\t%s\tShould be able to mine a reward: %v", failed, err)
		}

		l.Reset()

		if l.Length() != 1 || l.LatestBlock().Hash() != genesisHash {
			t.Fatalf("\t%s\tShould return to the same genesis block.", failed)
		}
		t.Logf("\t%s\tShould return to the same genesis block.", success)
	}
}

func Test_Submit(t *testing.T) {
	l := newPOWLedger(t, 2)
	alice := newAccount(t)
	bob := newAccount(t)

	t.Log("Given the need for Alice to send 50 to Bob.")
	{
		prev := l.LatestBlock()
		tx, sig := alice.send(t, 50, bob.identity)

		block, err := l.Submit(context.Background(), tx, alice.identity, sig)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to submit the transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to submit the transaction.", success)

		if l.Length() != 2 {
			t.Fatalf("\t%s\tShould have two blocks, got %d", failed, l.Length())
		}
		t.Logf("\t%s\tShould have two blocks.", success)

		latest := l.LatestBlock()
		if latest.Hash() != block.Hash() {
			t.Fatalf("\t%s\tShould return the block that was appended.", failed)
		}

		if latest.PrevBlockHash != prev.Hash() {
			t.Fatalf("\t%s\tShould link to the previous tail, got %s", failed, latest.PrevBlockHash)
		}
		t.Logf("\t%s\tShould link to the previous tail.", success)

		exp := database.Tx{Amount: 50, Payer: alice.identity, Payee: bob.identity}
		if latest.Tx != exp {
			t.Fatalf("\t%s\tShould commit the transaction unchanged, got %s", failed, latest.Tx)
		}
		t.Logf("\t%s\tShould commit the transaction unchanged.", success)

		if !strings.HasPrefix(latest.Hash(), "00") {
			t.Fatalf("\t%s\tShould get a hash starting with 00, got %s", failed, latest.Hash())
		}
		t.Logf("\t%s\tShould get a hash starting with 00.", success)

		if !l.IsChainValid() {
			t.Fatalf("\t%s\tShould report a valid chain.", failed)
		}
		t.Logf("\t%s\tShould report a valid chain.", success)

		balances := l.QueryBalances("")
		if balances[alice.identity] != -50 || balances[bob.identity] != 50 || balances["satoshi"] != 100 {
			t.Fatalf("\t%s\tShould replay the balances, got %v", failed, balances)
		}
		t.Logf("\t%s\tShould replay the balances.", success)

		if got := l.QueryBlocks(bob.identity); len(got) != 1 || got[0].Number != 1 {
			t.Fatalf("\t%s\tShould find the block involving Bob, got %v", failed, got)
		}
		t.Logf("\t%s\tShould find the block involving Bob.", success)

		bd, err := l.QueryBlockByHash(block.Hash())
		if err != nil || bd.Number != 1 {
			t.Fatalf("\t%s\tShould find the block by hash: %v", failed, err)
		}

		if _, err := l.QueryBlockByHash("abc"); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("\t%s\tShould not find an unknown hash: %v", failed, err)
		}
		t.Logf("\t%s\tShould find the block by hash.", success)
	}
}

func Test_SubmitRejected(t *testing.T) {
	l := newPOWLedger(t, 1)
	alice := newAccount(t)
	bob := newAccount(t)

	type table struct {
		name string
		exp  error
		make func() (database.Tx, string, []byte)
	}

	tt := []table{
		{
			name: "payer",
			exp:  ledger.ErrPayerMismatch,
			make: func() (database.Tx, string, []byte) {
				tx, sig := alice.send(t, 50, bob.identity)
				return tx, bob.identity, sig
			},
		},
		{
			name: "tampered",
			exp:  ledger.ErrInvalidSignature,
			make: func() (database.Tx, string, []byte) {
				tx, sig := alice.send(t, 50, bob.identity)
				tx.Amount = 5000
				return tx, alice.identity, sig
			},
		},
		{
			name: "impostor",
			exp:  ledger.ErrInvalidSignature,
			make: func() (database.Tx, string, []byte) {
				tx := database.NewTx(50, alice.identity, bob.identity)
				sig, err := tx.Sign(bob.pk)
				if err != nil {
					t.Fatalf("Should be able to sign the transaction: %s", err)
				}
				return tx, alice.identity, sig
			},
		},
		{
			name: "nan",
			exp:  ledger.ErrInvalidSignature,
			make: func() (database.Tx, string, []byte) {
				tx, sig := alice.send(t, 50, bob.identity)
				tx.Amount = math.NaN()
				return tx, alice.identity, sig
			},
		},
		{
			name: "inf",
			exp:  ledger.ErrInvalidSignature,
			make: func() (database.Tx, string, []byte) {
				tx, sig := alice.send(t, 50, bob.identity)
				tx.Amount = math.Inf(1)
				return tx, alice.identity, sig
			},
		},
		{
			name: "amount",
			exp:  ledger.ErrInvalidAmount,
			make: func() (database.Tx, string, []byte) {
				tx, sig := alice.send(t, 0, bob.identity)
				return tx, alice.identity, sig
			},
		},
	}

	t.Log("Given the need to reject transactions that can't be authenticated.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				tx, publicKey, sig := tst.make()

				_, err := l.Submit(context.Background(), tx, publicKey, sig)
				if !errors.Is(err, tst.exp) {
					t.Fatalf("\t%s\tTest %d:\tShould get %v, got %v", failed, testID, tst.exp, err)
				}
				t.Logf("\t%s\tTest %d:\tShould get %v.", success, testID, tst.exp)

				if l.Length() != 1 {
					t.Fatalf("\t%s\tTest %d:\tShould leave the chain unchanged, got %d blocks", failed, testID, l.Length())
				}
				t.Logf("\t%s\tTest %d:\tShould leave the chain unchanged.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_ProofOfStake(t *testing.T) {
	p, err := pos.New(pos.Config{
		Validators: []database.Validator{
			{ID: "Alice", Stake: 100},
			{ID: "Bob", Stake: 200},
		},
	})
	if err != nil {
		t.Fatalf("Should be able to construct proof of stake: %s", err)
	}

	l, err := ledger.New(ledger.Config{Genesis: genesis.Default(), Strategy: p})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}

	t.Log("Given the need to forge blocks by stake.")
	{
		block, err := l.Forge(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to forge a block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to forge a block.", success)

		if block.Validator == nil || block.Tx.Payee != block.Validator.ID || block.Tx.Payer != genesis.MintAccount {
			t.Fatalf("\t%s\tShould reward the selected validator, got %s", failed, block.Tx)
		}
		t.Logf("\t%s\tShould reward the selected validator.", success)

		if _, err := l.AddBlock(context.Background(), database.Validator{ID: "Bob", Stake: 200}); err != nil {
			t.Fatalf("\t%s\tShould be able to add a block for a validator: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to add a block for a validator.", success)

		if _, err := l.AddBlock(context.Background(), database.Validator{ID: "Mallory", Stake: 1}); !errors.Is(err, pos.ErrUnknownValidator) {
			t.Fatalf("\t%s\tShould reject an unregistered validator: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an unregistered validator.", success)

		alice := newAccount(t)
		tx, sig := alice.send(t, 10, "Bob")
		if _, err := l.Submit(context.Background(), tx, alice.identity, sig); err != nil {
			t.Fatalf("\t%s\tShould be able to submit a transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to submit a transaction.", success)

		if l.Length() != 4 || !l.IsChainValid() {
			t.Fatalf("\t%s\tShould have a valid chain of 4 blocks, got %d", failed, l.Length())
		}
		t.Logf("\t%s\tShould have a valid chain of 4 blocks.", success)

		if err := p.AddValidator(database.Validator{ID: "Charlie", Stake: 50}); err != nil {
			t.Fatalf("\t%s\tShould be able to add a validator: %v", failed, err)
		}

		l.Reset()
		if l.Length() != 1 || len(p.Validators()) != 2 {
			t.Fatalf("\t%s\tShould reset the chain and the registry.", failed)
		}
		t.Logf("\t%s\tShould reset the chain and the registry.", success)
	}

	t.Log("Given the need to refuse operations the strategy can't perform.")
	{
		pl := newPOWLedger(t, 1)
		if _, err := pl.Forge(context.Background()); !errors.Is(err, ledger.ErrNotSupported) {
			t.Fatalf("\t%s\tShould not forge with proof of work: %v", failed, err)
		}
		t.Logf("\t%s\tShould not forge with proof of work.", success)

		if _, err := pl.AddBlock(context.Background(), database.Validator{ID: "Alice", Stake: 100}); err == nil {
			t.Fatalf("\t%s\tShould not accept a validator block with proof of work.", failed)
		}
		t.Logf("\t%s\tShould not accept a validator block with proof of work.", success)
	}
}

func Test_BlockOwnership(t *testing.T) {
	p, err := pos.New(pos.Config{
		Validators: []database.Validator{{ID: "Alice", Stake: 100}},
	})
	if err != nil {
		t.Fatalf("Should be able to construct proof of stake: %s", err)
	}

	l, err := ledger.New(ledger.Config{Genesis: genesis.Default(), Strategy: p})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}

	forged, err := l.Forge(context.Background())
	if err != nil {
		t.Fatalf("Should be able to forge a block: %s", err)
	}

	t.Log("Given the need to keep committed blocks out of the reach of callers.")
	{
		forged.Validator.Stake = 999
		if !l.IsChainValid() {
			t.Fatalf("\t%s\tShould stay valid after changing the forged block: %v", failed, l.Validate())
		}
		t.Logf("\t%s\tShould stay valid after changing the forged block.", success)

		blocks := l.Blocks()
		blocks[1].Validator.Stake = 999
		blocks[1].Validator.ID = "Mallory"
		if !l.IsChainValid() {
			t.Fatalf("\t%s\tShould stay valid after changing the blocks handed out: %v", failed, l.Validate())
		}
		t.Logf("\t%s\tShould stay valid after changing the blocks handed out.", success)

		latest := l.LatestBlock()
		latest.Validator.Stake = 999
		if !l.IsChainValid() {
			t.Fatalf("\t%s\tShould stay valid after changing the latest block: %v", failed, l.Validate())
		}
		t.Logf("\t%s\tShould stay valid after changing the latest block.", success)

		bd := l.QueryBlocks("Alice")
		bd[len(bd)-1].Block.Validator.Stake = 999
		if !l.IsChainValid() {
			t.Fatalf("\t%s\tShould stay valid after changing a queried block: %v", failed, l.Validate())
		}
		t.Logf("\t%s\tShould stay valid after changing a queried block.", success)

		if v := l.LatestBlock().Validator; v == nil || v.Stake != 100 {
			t.Fatalf("\t%s\tShould keep the committed validator, got %v", failed, v)
		}
		t.Logf("\t%s\tShould keep the committed validator.", success)
	}
}

func Test_ConcurrentSubmit(t *testing.T) {
	l := newPOWLedger(t, 2)
	alice := newAccount(t)
	bob := newAccount(t)

	const senders = 4

	t.Log("Given the need to serialize concurrent submissions.")
	{
		var wg sync.WaitGroup
		errs := make(chan error, senders)

		for i := range senders {
			tx, sig := alice.send(t, float64(i+1), bob.identity)

			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := l.Submit(context.Background(), tx, alice.identity, sig); err != nil {
					errs <- err
				}
			}()
		}

		wg.Wait()
		close(errs)

		for err := range errs {
			t.Fatalf("\t%s\tShould be able to submit every transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to submit every transaction.", success)

		if l.Length() != senders+1 {
			t.Fatalf("\t%s\tShould have %d blocks, got %d", failed, senders+1, l.Length())
		}
		t.Logf("\t%s\tShould have %d blocks.", success, senders+1)

		if err := l.Validate(); err != nil {
			t.Fatalf("\t%s\tShould report a valid chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould report a valid chain.", success)
	}
}

// =============================================================================

// stall blocks the first seal for the stalled payee until it is cancelled
// and seals everything else immediately.
type stall struct {
	payee   string
	calls   atomic.Int32
	started chan struct{}
}

func (s *stall) Name() string { return "stall" }

func (s *stall) Seal(ctx context.Context, candidate database.Block, ev strategy.EventHandler) (database.Block, error) {
	if candidate.Tx.Payee == s.payee && s.calls.Add(1) == 1 {
		close(s.started)
		<-ctx.Done()
		return database.Block{}, ctx.Err()
	}
	return candidate, nil
}

func (s *stall) Verify(block database.Block) error { return nil }

func Test_CompetingCommit(t *testing.T) {
	s := stall{payee: "slow", started: make(chan struct{})}

	l, err := ledger.New(ledger.Config{Genesis: genesis.Default(), Strategy: &s})
	if err != nil {
		t.Fatalf("Should be able to construct the ledger: %s", err)
	}

	t.Log("Given the need to restart a search when a competing block is committed.")
	{
		done := make(chan error, 1)
		go func() {
			_, err := l.MineReward(context.Background(), "slow", 0)
			done <- err
		}()

		<-s.started

		if _, err := l.MineReward(context.Background(), "fast", 0); err != nil {
			t.Fatalf("\t%s\tShould be able to commit the competing block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to commit the competing block.", success)

		if err := <-done; err != nil {
			t.Fatalf("\t%s\tShould finish the restarted search: %v", failed, err)
		}
		t.Logf("\t%s\tShould finish the restarted search.", success)

		if s.calls.Load() != 2 {
			t.Fatalf("\t%s\tShould seal the slow block twice, got %d", failed, s.calls.Load())
		}
		t.Logf("\t%s\tShould seal the slow block twice.", success)

		blocks := l.Blocks()
		if len(blocks) != 3 || blocks[1].Tx.Payee != "fast" || blocks[2].Tx.Payee != "slow" {
			t.Fatalf("\t%s\tShould commit the slow block on the new tail.", failed)
		}
		t.Logf("\t%s\tShould commit the slow block on the new tail.", success)

		if blocks[2].PrevBlockHash != blocks[1].Hash() {
			t.Fatalf("\t%s\tShould link the slow block to the competing block.", failed)
		}
		t.Logf("\t%s\tShould link the slow block to the competing block.", success)
	}

	t.Log("Given the need to honor the caller's cancellation.")
	{
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p, err := pow.New(pow.Config{Difficulty: 64})
		if err != nil {
			t.Fatalf("Should be able to construct proof of work: %s", err)
		}

		hard, err := ledger.New(ledger.Config{Genesis: genesis.Default(), Strategy: p})
		if err != nil {
			t.Fatalf("Should be able to construct the ledger: %s", err)
		}

		if _, err := hard.MineReward(ctx, "satoshi", 0); !errors.Is(err, pow.ErrMiningAborted) {
			t.Fatalf("\t%s\tShould abort the search: %v", failed, err)
		}
		t.Logf("\t%s\tShould abort the search.", success)

		if hard.Length() != 1 {
			t.Fatalf("\t%s\tShould leave the chain unchanged.", failed)
		}
		t.Logf("\t%s\tShould leave the chain unchanged.", success)
	}
}
