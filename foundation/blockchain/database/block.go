// Package database defines the values that are committed to the ledger:
// transactions, validators and the blocks that link them together.
package database

import (
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Block represents one committed unit of the ledger. The proof fields depend
// on the consensus strategy that sealed the block: a proof of work block
// carries a nonce and the difficulty it was solved at, a proof of stake block
// carries the validator that was selected.
type Block struct {
	PrevBlockHash string     `json:"prev_block_hash"`     // Hash of the previous block in the chain.
	Tx            Tx         `json:"tx"`                  // Transaction committed by this block.
	TimeStamp     int64      `json:"timestamp"`           // Unix milliseconds when the block was created.
	Nonce         uint64     `json:"nonce"`               // Value identified to solve the hash solution.
	Difficulty    uint       `json:"difficulty"`          // Number of leading 0's in the hash solution.
	Validator     *Validator `json:"validator,omitempty"` // Validator selected to forge this block.
}

// NewBlock constructs a block that links to the specified previous hash.
func NewBlock(prevBlockHash string, tx Tx, now time.Time) Block {
	return Block{
		PrevBlockHash: prevBlockHash,
		Tx:            tx,
		TimeStamp:     now.UTC().UnixMilli(),
	}
}

// Genesis constructs the first block of a chain. It carries the sentinel
// previous hash and no proof.
func Genesis(tx Tx, timeStamp int64) Block {
	return Block{
		PrevBlockHash: signature.ZeroHash,
		Tx:            tx,
		TimeStamp:     timeStamp,
	}
}

// Hash returns the unique hash for the Block. It is computed on every call
// from the other fields so any change to the block changes its hash.
func (b Block) Hash() string {
	return signature.Hash(b)
}

// Copy returns a block that shares no memory with b.
func (b Block) Copy() Block {
	if b.Validator != nil {
		v := *b.Validator
		b.Validator = &v
	}
	return b
}

// IsGenesis reports whether the block is a genesis block.
func (b Block) IsGenesis() bool {
	return b.PrevBlockHash == signature.ZeroHash
}

// Involves reports whether the identity is the payer or payee of the block's
// transaction or the validator that forged it.
func (b Block) Involves(identity string) bool {
	if b.Tx.Payer == identity || b.Tx.Payee == identity {
		return true
	}

	return b.Validator != nil && b.Validator.ID == identity
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("prev[%s] tx[%s] nonce[%d]", b.PrevBlockHash, b.Tx, b.Nonce)
}

// =============================================================================

// BlockData represents what is handed to clients of the ledger. It carries
// the hash alongside the block so a client doesn't need to compute it.
type BlockData struct {
	Number int    `json:"number"`
	Hash   string `json:"hash"`
	Block  Block  `json:"block"`
}

// NewBlockData constructs the value to serialize for clients.
func NewBlockData(number int, block Block) BlockData {
	return BlockData{
		Number: number,
		Hash:   block.Hash(),
		Block:  block,
	}
}

// ToBlock converts a BlockData into a Block and confirms the hash that was
// provided matches the block's contents.
func ToBlock(blockData BlockData) (Block, error) {
	if hash := blockData.Block.Hash(); hash != blockData.Hash {
		return Block{}, fmt.Errorf("block hash mismatch, got %s, exp %s", hash, blockData.Hash)
	}

	return blockData.Block, nil
}
