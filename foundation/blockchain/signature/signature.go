// Package signature provides helper functions for handling the ledger's
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash is the sentinel previous hash carried by the genesis block.
const ZeroHash string = "0"

// InvalidHash is returned by Hash for a value that can't be serialized. It
// is never a valid previous hash and never solves a proof of work puzzle.
const InvalidHash string = "invalid"

// HashLength is the number of hex characters in a hash produced by Hash.
const HashLength = 2 * sha256.Size

// ErrInvalidSignature is returned when a signature does not verify against
// the data and public key provided.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Hash returns a unique string for the value. The value is serialized to
// JSON and the SHA-256 digest is returned as 64 lowercase hex characters.
// InvalidHash is returned when the value can't be serialized.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return InvalidHash
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Sign uses the specified private key to sign the data.
func Sign(value any, privateKey *ecdsa.PrivateKey) ([]byte, error) {

	// Prepare the data for signing.
	data, err := stamp(value)
	if err != nil {
		return nil, err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, err
	}

	// Extract the public key from the data and the signature and make sure
	// it checks out before handing the signature back.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, ErrInvalidSignature
	}

	return sig, nil
}

// Verify checks the signature was produced over the value by the private key
// that belongs to the specified public key.
func Verify(value any, publicKey string, sig []byte) error {
	if len(sig) != crypto.SignatureLength && len(sig) != crypto.RecoveryIDOffset {
		return fmt.Errorf("%w: signature length %d", ErrInvalidSignature, len(sig))
	}

	pk, err := ToPublicKey(publicKey)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	// A value that can't be stamped can't have been signed.
	data, err := stamp(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(pk), data, rs) {
		return ErrInvalidSignature
	}

	return nil
}

// PublicKeyString returns the identity string for the public key. This is
// the hex encoding of the uncompressed key and is how accounts are named on
// the ledger.
func PublicKeyString(publicKey ecdsa.PublicKey) string {
	return hexutil.Encode(crypto.FromECDSAPub(&publicKey))
}

// ToPublicKey converts an identity string back into a public key.
func ToPublicKey(publicKey string) (*ecdsa.PublicKey, error) {
	data, err := hexutil.Decode(publicKey)
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}

	pk, err := crypto.UnmarshalPubkey(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal public key: %w", err)
	}

	return pk, nil
}

// SignatureString returns the signature as a string.
func SignatureString(sig []byte) string {
	return hexutil.Encode(sig)
}

// ToSignatureBytes converts a hex representation of the signature back
// into its bytes.
func ToSignatureBytes(sigStr string) ([]byte, error) {
	return hexutil.Decode(sigStr)
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the ledger stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {

	// Marshal the data.
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	txHash := crypto.Keccak256(v)

	// The stamp keeps signatures produced for this ledger from being
	// replayed as signatures for any other message format.
	stamp := []byte("\x19Ledger Signed Message:\n32")

	// Hash the stamp and txHash together in a final 32 byte array
	// that represents the data.
	data := crypto.Keccak256(stamp, txHash)

	return data, nil
}
