package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var (
	to      string
	amount  float64
	timeout time.Duration
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send money to another identity",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Identity of the payee.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Time to wait for the block to be committed.")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) {
	w, err := wallet.Load(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	block, err := w.Send(ctx, newClient(url), amount, to)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Committed block:", block.Hash())
}
