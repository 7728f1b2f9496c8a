package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/ardanlabs/ledger/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	path := getPrivateKeyPath()

	if _, err := os.Stat(path); err == nil {
		log.Fatalf("wallet %q already exists", path)
	}

	if err := os.MkdirAll(accountPath, 0700); err != nil {
		log.Fatal(err)
	}

	w, err := wallet.New()
	if err != nil {
		log.Fatal(err)
	}

	if err := w.Save(path); err != nil {
		log.Fatal(err)
	}

	fmt.Println(w.PublicKey())
}
