// Package wallet provides the signing authority for an account. The private
// key never leaves the wallet, only the public key and signatures do.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyExtension is the file extension used for private key files.
const KeyExtension = ".ecdsa"

// Submitter represents the behavior of a ledger accepting signed
// transactions.
type Submitter interface {
	Submit(ctx context.Context, tx database.Tx, publicKey string, sig []byte) (database.Block, error)
}

// Wallet owns a private key and signs the transactions it originates.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	publicKey  string
}

// New generates a wallet with a new private key.
func New() (*Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	return newWallet(privateKey), nil
}

// Load reads the private key from the specified file.
func Load(path string) (*Wallet, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("loading key %q: %w", path, err)
	}

	return newWallet(privateKey), nil
}

// Save writes the private key to the specified file, readable only by the
// owner.
func (w *Wallet) Save(path string) error {
	if err := crypto.SaveECDSA(path, w.privateKey); err != nil {
		return fmt.Errorf("saving key %q: %w", path, err)
	}
	return nil
}

// PublicKey returns the identity of the wallet.
func (w *Wallet) PublicKey() string {
	return w.publicKey
}

// Sign signs the transaction with the wallet's private key.
func (w *Wallet) Sign(tx database.Tx) ([]byte, error) {
	return tx.Sign(w.privateKey)
}

// Send pays the amount to the payee by signing a transaction and handing it
// to the ledger.
func (w *Wallet) Send(ctx context.Context, ledger Submitter, amount float64, payee string) (database.Block, error) {
	tx := database.NewTx(amount, w.publicKey, payee)

	sig, err := w.Sign(tx)
	if err != nil {
		return database.Block{}, fmt.Errorf("signing tx: %w", err)
	}

	return ledger.Submit(ctx, tx, w.publicKey, sig)
}

// String implements the fmt.Stringer interface. Only the public key is
// printed.
func (w *Wallet) String() string {
	return w.publicKey
}

func newWallet(privateKey *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		privateKey: privateKey,
		publicKey:  signature.PublicKeyString(privateKey.PublicKey),
	}
}
