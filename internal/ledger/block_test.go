package ledger

import (
	"testing"
	"time"

	"github.com/example/solvency-ledger/internal/mst"
)

func testClock() *FixedClock {
	return NewFixedClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestBlockHashIsDeterministic(t *testing.T) {
	clock := testClock()
	tree, _ := mst.New(2)
	tree.Push(mst.Leaf{ID: "alice", Value: 100})

	genesis := NewGenesisBlock(tree.Clone(), clock)
	txs := []Transaction{{From: "", To: "alice", Amount: 100, Timestamp: clock.Now()}}

	b1 := NewBlock(genesis, txs, tree.Clone(), map[string]int{"alice": 0}, clock)
	b2 := NewBlock(genesis, txs, tree.Clone(), map[string]int{"alice": 0}, clock)

	if b1.Hash != b2.Hash {
		t.Errorf("identical blocks hash differently: %s vs %s", b1.Hash, b2.Hash)
	}
}

func TestBlockHashCoversEveryField(t *testing.T) {
	clock := testClock()
	tree, _ := mst.New(2)
	tree.Push(mst.Leaf{ID: "alice", Value: 100})
	genesis := NewGenesisBlock(tree.Clone(), clock)
	txs := []Transaction{{From: "", To: "alice", Amount: 100}}
	base := NewBlock(genesis, txs, tree.Clone(), nil, clock)

	// Different transactions.
	otherTxs := []Transaction{{From: "", To: "alice", Amount: 101}}
	if got := NewBlock(genesis, otherTxs, tree.Clone(), nil, clock); got.Hash == base.Hash {
		t.Error("hash unchanged when transaction amount differs")
	}

	// Different timestamp.
	laterClock := testClock()
	laterClock.Advance(time.Second)
	if got := NewBlock(genesis, txs, tree.Clone(), nil, laterClock); got.Hash == base.Hash {
		t.Error("hash unchanged when timestamp differs")
	}

	// Different tree contents.
	otherTree := tree.Clone()
	otherTree.SetLeaf(0, mst.Leaf{ID: "alice", Value: 1})
	if got := NewBlock(genesis, txs, otherTree, nil, clock); got.Hash == base.Hash {
		t.Error("hash unchanged when tree root differs")
	}
}

func TestValidateChain(t *testing.T) {
	clock := testClock()
	tree, _ := mst.New(2)

	genesis := NewGenesisBlock(tree.Clone(), clock)
	tree.Push(mst.Leaf{ID: "alice", Value: 100})
	b2 := NewBlock(genesis, nil, tree.Clone(), nil, clock)
	tree.SetLeaf(0, mst.Leaf{ID: "alice", Value: 70})
	b3 := NewBlock(b2, nil, tree.Clone(), nil, clock)

	chain := []*Block{genesis, b2, b3}
	if !ValidateChain(chain) {
		t.Fatal("valid chain rejected")
	}

	b2.PrevHash = "corrupted"
	if ValidateChain(chain) {
		t.Error("chain with corrupted link accepted")
	}
}
