package balance_test

import (
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/balance"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestTransactions(t *testing.T) {
	type table struct {
		name  string
		sheet map[string]float64
		final map[string]float64
		txs   []database.Tx
	}

	tt := []table{
		{
			name:  "basic",
			sheet: map[string]float64{"alice": 100},
			final: map[string]float64{"alice": 50, "bob": 70, "satoshi": 100},
			txs: []database.Tx{
				database.NewTx(100, "genesis", "satoshi"),
				database.NewTx(50, "alice", "bob"),
				database.NewTx(20, "genesis", "bob"),
			},
		},
		{
			name:  "overdraw",
			sheet: nil,
			final: map[string]float64{"alice": -10, "bob": 10},
			txs: []database.Tx{
				database.NewTx(10, "alice", "bob"),
			},
		},
	}

	t.Log("Given the need to replay transactions into balances.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				blocks := make([]database.Block, len(tst.txs))
				for i, tx := range tst.txs {
					blocks[i] = database.NewBlock(signature.ZeroHash, tx, time.Now())
				}

				bs := balance.NewSheet("genesis", tst.sheet)
				bs.ApplyBlocks(blocks)

				sheet := bs.Copy()
				if len(sheet) != len(tst.final) {
					t.Fatalf("\t%s\tTest %d:\tShould have %d identities, got %v", failed, testID, len(tst.final), sheet)
				}

				for identity, exp := range tst.final {
					if got := bs.Balance(identity); got != exp {
						t.Errorf("\t%s\tTest %d:\tShould have correct balance for %s.", failed, testID, identity)
						t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, exp)
						continue
					}
					t.Logf("\t%s\tTest %d:\tShould have correct balance for %s.", success, testID, identity)
				}

				if _, exists := sheet["genesis"]; exists {
					t.Fatalf("\t%s\tTest %d:\tShould not debit the mint account.", failed, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
