// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/wallet"
	"gopkg.in/yaml.v3"
)

// Genesis writes the genesis information as YAML.
func Genesis(w io.Writer, gen genesis.Genesis) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()

	return enc.Encode(gen)
}

// Keys generates a set of wallets into a folder so the name service can pick
// them up. Usage: keys <folder> <name> [<name> ...]
func Keys(args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: keys <folder> <name> [<name> ...]")
	}

	folder := args[2]
	if err := os.MkdirAll(folder, 0700); err != nil {
		return err
	}

	for _, name := range args[3:] {
		path := filepath.Join(folder, name+wallet.KeyExtension)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("wallet %s already exists", strconv.Quote(path))
		}

		w, err := wallet.New()
		if err != nil {
			return err
		}

		if err := w.Save(path); err != nil {
			return err
		}

		fmt.Printf("%s: %s\n", name, w.PublicKey())
	}

	return nil
}

// Validators converts the genesis validators into ledger validators.
func Validators(gen genesis.Genesis) []database.Validator {
	vs := make([]database.Validator, len(gen.Validators))
	for i, v := range gen.Validators {
		vs[i] = database.Validator{ID: v.ID, Stake: v.Stake}
	}
	return vs
}
