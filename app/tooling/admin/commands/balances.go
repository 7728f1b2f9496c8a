package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
)

// Balances writes the current set of balances.
func Balances(w io.Writer, args []string, l *ledger.Ledger) {
	var onlyAct string
	if len(args) == 3 {
		onlyAct = args[2]
	}

	fmt.Fprintf(w, "LatestBlockHash: %s\n\n", l.LatestBlock().Hash())

	bals := l.QueryBalances(onlyAct)

	ids := make([]string, 0, len(bals))
	for id := range bals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		fmt.Fprintf(w, "Account: %s  Balance: %v\n", id, bals[id])
	}
}

// Blocks writes the blocks involving the account, or every block.
func Blocks(w io.Writer, args []string, l *ledger.Ledger) {
	var onlyAct string
	if len(args) == 3 {
		onlyAct = args[2]
	}

	for _, bd := range l.QueryBlocks(onlyAct) {
		fmt.Fprintf(w, "Number: %d  Hash: %s  Prev: %s  From: %s  To: %s  Amount: %v\n",
			bd.Number, bd.Hash, bd.Block.PrevBlockHash, bd.Block.Tx.Payer, bd.Block.Tx.Payee, bd.Block.Tx.Amount)
	}
}
