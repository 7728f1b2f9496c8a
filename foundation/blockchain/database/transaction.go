package database

import (
	"crypto/ecdsa"
	"encoding/json"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Tx is the transactional information between two parties. The payer and
// payee are identities, the hex encoded public keys of the accounts.
type Tx struct {
	Amount float64 `json:"amount"` // Value moved from the payer to the payee.
	Payer  string  `json:"payer"`  // Account paying the money.
	Payee  string  `json:"payee"`  // Account receiving the money.
}

// NewTx constructs a new transaction.
func NewTx(amount float64, payer string, payee string) Tx {
	return Tx{
		Amount: amount,
		Payer:  payer,
		Payee:  payee,
	}
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) ([]byte, error) {
	return signature.Sign(tx, privateKey)
}

// Verify checks the signature was produced over this transaction by the
// owner of the specified public key.
func (tx Tx) Verify(publicKey string, sig []byte) error {
	return signature.Verify(tx, publicKey, sig)
}

// String implements the fmt.Stringer interface and returns the canonical
// serialization of the transaction.
func (tx Tx) String() string {
	data, err := json.Marshal(tx)
	if err != nil {
		return ""
	}
	return string(data)
}
