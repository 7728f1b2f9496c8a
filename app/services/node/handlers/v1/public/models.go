package public

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/nameservice"
)

// SubmitTx is what a wallet posts to have a transaction committed.
type SubmitTx struct {
	Tx        database.Tx `json:"tx"`
	PublicKey string      `json:"public_key" validate:"required"`
	Signature string      `json:"signature" validate:"required"`
}

type tx struct {
	Amount    float64 `json:"amount"`
	Payer     string  `json:"payer"`
	PayerName string  `json:"payer_name"`
	Payee     string  `json:"payee"`
	PayeeName string  `json:"payee_name"`
}

type block struct {
	Number        int                 `json:"number"`
	Hash          string              `json:"hash"`
	PrevBlockHash string              `json:"prev_block_hash"`
	TimeStamp     int64               `json:"timestamp"`
	Nonce         uint64              `json:"nonce"`
	Difficulty    uint                `json:"difficulty"`
	Validator     *database.Validator `json:"validator,omitempty"`
	Tx            tx                  `json:"tx"`
}

type balance struct {
	Identity string  `json:"identity"`
	Name     string  `json:"name"`
	Balance  float64 `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Length      int       `json:"length"`
	Balances    []balance `json:"balances"`
}

type chainStatus struct {
	Valid  bool   `json:"valid"`
	Length int    `json:"length"`
	Number int    `json:"number,omitempty"`
	Error  string `json:"error,omitempty"`
}

func toBlock(ns *nameservice.NameService, bd database.BlockData) block {
	return block{
		Number:        bd.Number,
		Hash:          bd.Hash,
		PrevBlockHash: bd.Block.PrevBlockHash,
		TimeStamp:     bd.Block.TimeStamp,
		Nonce:         bd.Block.Nonce,
		Difficulty:    bd.Block.Difficulty,
		Validator:     bd.Block.Validator,
		Tx: tx{
			Amount:    bd.Block.Tx.Amount,
			Payer:     bd.Block.Tx.Payer,
			PayerName: ns.Lookup(bd.Block.Tx.Payer),
			Payee:     bd.Block.Tx.Payee,
			PayeeName: ns.Lookup(bd.Block.Tx.Payee),
		},
	}
}
