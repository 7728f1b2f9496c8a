// This program performs administrative tasks for the ledger service.
package main

import (
	"fmt"
	"os"

	"github.com/ardanlabs/ledger/app/tooling/admin/commands"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy/pos"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy/pow"
	"github.com/ardanlabs/ledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: admin genesis|bals|blocks|keys [args]")
	}

	log.Infow("startup", "status", "running command", "version", build, "command", os.Args[1])

	gen := genesis.Default()
	if path := os.Getenv("ADMIN_GENESIS_FILE"); path != "" {
		var err error
		if gen, err = genesis.Load(path); err != nil {
			return fmt.Errorf("loading genesis: %w", err)
		}
	}

	return processCommands(os.Args, gen)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string, gen genesis.Genesis) error {
	switch args[1] {
	case "genesis":
		if err := commands.Genesis(os.Stdout, gen); err != nil {
			return fmt.Errorf("writing genesis: %w", err)
		}

	case "keys":
		if err := commands.Keys(args); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

	case "bals", "blocks":
		l, err := newLedger(gen)
		if err != nil {
			return err
		}

		if args[1] == "bals" {
			commands.Balances(os.Stdout, args, l)
			return nil
		}
		commands.Blocks(os.Stdout, args, l)

	default:
		return fmt.Errorf("unknown command %q", args[1])
	}

	return nil
}

func newLedger(gen genesis.Genesis) (*ledger.Ledger, error) {
	var s strategy.Strategy
	var err error

	switch gen.Consensus {
	case genesis.ConsensusPOS:
		s, err = pos.New(pos.Config{Validators: commands.Validators(gen)})
	default:
		s, err = pow.New(pow.Config{Difficulty: gen.Difficulty})
	}
	if err != nil {
		return nil, fmt.Errorf("constructing %s: %w", gen.Consensus, err)
	}

	return ledger.New(ledger.Config{Genesis: gen, Strategy: s})
}
