package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/ardanlabs/ledger/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	w, err := wallet.Load(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("For Identity:", w.PublicKey())

	bal, err := newClient(url).Balance(context.Background(), w.PublicKey())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(bal)
}
