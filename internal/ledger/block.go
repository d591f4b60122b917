package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/example/solvency-ledger/internal/mst"
)

// Block is one sealed entry of the chain: the set of transactions applied
// since the previous block, the resulting Merkle Sum Tree snapshot, and the
// chain-linking hash. Once built, a Block is immutable.
//
// Hashing is SHA-256 over the canonical tuple: block number, previous
// hash, timestamp, every transaction's from/to/amount, and the tree's root
// hash and root sum.
type Block struct {
	Number       uint64
	PrevHash     string
	Timestamp    time.Time
	Transactions []Transaction
	Tree         *mst.Tree
	LeafIndex    map[string]int
	Hash         string
}

// NewGenesisBlock returns block 1: no transactions, an empty tree, and
// PrevHash == "" (the sentinel the chain walk in GetInclusionProof uses to
// recognize it has reached the start of the chain).
func NewGenesisBlock(tree *mst.Tree, clock Clock) *Block {
	b := &Block{
		Number:    1,
		PrevHash:  "",
		Timestamp: clock.Now(),
		Tree:      tree,
		LeafIndex: map[string]int{},
	}
	b.Hash = b.computeHash()
	return b
}

// NewBlock seals txs on top of prev, snapshotting tree and leafIndex (the
// caller owns handing over a tree already updated to reflect txs —
// block.go does not mutate ledger state, only records it).
func NewBlock(prev *Block, txs []Transaction, tree *mst.Tree, leafIndex map[string]int, clock Clock) *Block {
	b := &Block{
		Number:       prev.Number + 1,
		PrevHash:     prev.Hash,
		Timestamp:    clock.Now(),
		Transactions: txs,
		Tree:         tree,
		LeafIndex:    leafIndex,
	}
	b.Hash = b.computeHash()
	return b
}

// computeHash serializes the block's canonical fields into a fixed-layout
// buffer and returns the hex-encoded SHA-256 digest.
func (b *Block) computeHash() string {
	var buf bytes.Buffer

	binary.Write(&buf, binary.BigEndian, b.Number)
	buf.WriteString(b.PrevHash)
	binary.Write(&buf, binary.BigEndian, b.Timestamp.UnixNano())

	for _, tx := range b.Transactions {
		buf.WriteString(tx.From)
		buf.WriteString(tx.To)
		binary.Write(&buf, binary.BigEndian, tx.Amount)
	}

	if b.Tree != nil {
		buf.WriteString(b.Tree.RootHash())
		binary.Write(&buf, binary.BigEndian, b.Tree.RootSum())
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// ValidateChain walks blocks in order and confirms every PrevHash link and
// recomputed hash match.
func ValidateChain(blocks []*Block) bool {
	for i, b := range blocks {
		if b.computeHash() != b.Hash {
			return false
		}
		if i == 0 {
			continue
		}
		if b.PrevHash != blocks[i-1].Hash {
			return false
		}
	}
	return true
}
