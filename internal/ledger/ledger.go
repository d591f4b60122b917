package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/example/solvency-ledger/internal/circuit"
	"github.com/example/solvency-ledger/internal/mst"
	"github.com/example/solvency-ledger/internal/prover"
	"github.com/example/solvency-ledger/internal/witness"
)

// Ledger is the mutable custodial-ledger core: the single source of truth
// for balances, the authenticated Merkle Sum Tree, the block chain, and the
// liabilities proof folded over it. Every exported method locks the
// ledger's mutex for its own duration — the server runtime holds no second
// lock around calls into Ledger; Ledger is the lock.
type Ledger struct {
	mu sync.Mutex

	clock   Clock
	mempool Mempool
	engine  prover.Engine

	circuits *circuit.Registry

	chain              map[string]*Block
	head               *Block
	currentHash        string
	currentBlockNumber uint64

	state     map[string]int64
	leafIndex map[string]int
	tree      *mst.Tree

	pendingChanges      []witness.Change
	liabilitiesProof    *prover.LiabilitiesProof
	liabilitiesVerified bool

	logger zerolog.Logger
}

// New constructs a Ledger with an empty genesis block: a zero-valued tree
// of capacity 2^maxLevels, no accounts, and block number 1.
func New(maxLevels int, engine prover.Engine, circuits *circuit.Registry, clock Clock, logger zerolog.Logger) (*Ledger, error) {
	tree, err := mst.New(maxLevels)
	if err != nil {
		return nil, err
	}
	genesis := NewGenesisBlock(tree.Clone(), clock)

	return &Ledger{
		clock:               clock,
		mempool:             NewFIFOMempool(),
		engine:              engine,
		circuits:            circuits,
		chain:               map[string]*Block{genesis.Hash: genesis},
		head:                genesis,
		currentHash:         genesis.Hash,
		currentBlockNumber:  genesis.Number,
		state:               make(map[string]int64),
		leafIndex:           make(map[string]int),
		tree:                tree,
		liabilitiesVerified: true,
		logger:              logger,
	}, nil
}

// AddTransaction enqueues a transfer (from == "" mints) into the mempool.
// No validation happens here; unpayable transactions are skipped at seal
// time.
func (l *Ledger) AddTransaction(from, to string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mempool.Add(Transaction{
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: l.clock.Now(),
	})
}

// GetBalance returns address's current balance, or 0 if it has never been
// credited.
func (l *Ledger) GetBalance(address string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state[address]
}

// CurrentBlockNumber returns the head block's number.
func (l *Ledger) CurrentBlockNumber() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentBlockNumber
}

// ChainLength returns the number of sealed blocks, including genesis.
func (l *Ledger) ChainLength() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.chain)
}

// MempoolSize returns the number of transactions awaiting the next seal.
func (l *Ledger) MempoolSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mempool.Size()
}

// AddBlock drains the mempool, applies every transaction in order, folds a
// fresh liabilities proof over whatever tree changes resulted, and seals a
// new Block.
func (l *Ledger) AddBlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs := l.mempool.DrainAll()
	for _, tx := range txs {
		if err := l.applyTransaction(tx); err != nil {
			return err
		}
	}

	if len(l.pendingChanges) > 0 {
		if err := l.foldLiabilities(ctx); err != nil {
			return &ProofError{Stage: "fold", Err: err}
		}
		l.pendingChanges = nil
		l.liabilitiesVerified = true
	}

	l.currentBlockNumber++
	block := NewBlock(l.head, txs, l.tree.Clone(), l.snapshotLeafIndex(), l.clock)
	l.chain[block.Hash] = block
	l.head = block
	l.currentHash = block.Hash

	return nil
}

// applyTransaction applies one drained transaction: skip on insufficient
// balance or insufficient tree capacity, otherwise debit the sender (if
// any) and credit the recipient.
//
// Capacity is checked for both sides before either side is mutated, so a
// transaction that would need two new leaf slots but only has room for one
// is skipped atomically rather than debiting the sender and then failing
// to credit the recipient.
func (l *Ledger) applyTransaction(tx Transaction) error {
	balFrom := l.state[tx.From]
	balTo := l.state[tx.To]

	if tx.From != "" && balFrom-tx.Amount < 0 {
		l.logger.Warn().Err(ErrInsufficientBalance).Str("from", tx.From).Str("to", tx.To).Int64("amount", tx.Amount).Msg("Insufficient balance")
		return nil
	}

	newSlots := 0
	if tx.From != "" {
		if _, ok := l.leafIndex[tx.From]; !ok {
			newSlots++
		}
	}
	if _, ok := l.leafIndex[tx.To]; !ok {
		newSlots++
	}
	if newSlots > l.tree.Available() {
		l.logger.Warn().Err(mst.ErrTreeFull).Str("from", tx.From).Str("to", tx.To).Msg("Merkle sum tree at capacity, skipping transaction")
		return nil
	}

	if tx.From != "" {
		if err := l.updateState(tx.From, balFrom-tx.Amount); err != nil {
			return err
		}
	}
	if err := l.updateState(tx.To, balTo+tx.Amount); err != nil {
		return err
	}
	return nil
}

// snapshotLeafIndex copies the address→slot map so a sealed block's view of
// leaf assignments stays fixed while the live map keeps growing.
func (l *Ledger) snapshotLeafIndex() map[string]int {
	snapshot := make(map[string]int, len(l.leafIndex))
	for addr, idx := range l.leafIndex {
		snapshot[addr] = idx
	}
	return snapshot
}

// updateState mutates the tree in place (set for a known address, push for
// a fresh one), snapshotting immutable before/after clones into a
// witness.Change so the liabilities fold has the change record it needs
// once the block seals.
func (l *Ledger) updateState(address string, newBalance int64) error {
	oldTree := l.tree.Clone()

	index, exists := l.leafIndex[address]
	leaf := mst.Leaf{ID: address, Value: newBalance}

	if exists {
		if err := l.tree.SetLeaf(index, leaf); err != nil {
			return err
		}
	} else {
		newIndex, err := l.tree.Push(leaf)
		if err != nil {
			return err
		}
		index = newIndex
		l.leafIndex[address] = index
	}

	newTree := l.tree.Clone()
	l.pendingChanges = append(l.pendingChanges, witness.Change{Index: index, Old: oldTree, New: newTree})
	l.liabilitiesVerified = false
	l.state[address] = newBalance
	return nil
}

// foldLiabilities builds the per-change witnesses and folds them into a
// fresh LiabilitiesProof, replacing the previous one.
func (l *Ledger) foldLiabilities(ctx context.Context) error {
	inputs, err := witness.NewLiabilitiesInputs(l.pendingChanges)
	if err != nil {
		return err
	}

	pp, err := l.circuits.PublicParams(circuit.Liabilities)
	if err != nil {
		return err
	}

	first := l.pendingChanges[0]
	last := l.pendingChanges[len(l.pendingChanges)-1]

	proof, err := prover.NewLiabilitiesProof(
		ctx,
		l.engine,
		pp,
		first.Old.RootHash(),
		first.Old.RootSum(),
		last.New.RootHash(),
		last.New.RootSum(),
		inputs,
	)
	if err != nil {
		return err
	}

	l.liabilitiesProof = proof
	return nil
}

// GetLiabilitiesProof returns the current folded liabilities proof (nil if
// none has been folded yet) plus the liabilities circuit's public
// parameters.
func (l *Ledger) GetLiabilitiesProof() (*prover.LiabilitiesProof, interface{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pp, err := l.circuits.PublicParams(circuit.Liabilities)
	if err != nil {
		return nil, nil, &ProofError{Stage: "setup", Err: err}
	}
	return l.liabilitiesProof, pp, nil
}

// GetInclusionProof derives and folds the inclusion history for address:
// one iteration per distinct historical root the address's slot passed
// through. Returns (nil, nil, nil, nil) if address has never been assigned
// a leaf.
func (l *Ledger) GetInclusionProof(ctx context.Context, address string) (*prover.InclusionProof, []*Block, interface{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	index, ok := l.leafIndex[address]
	if !ok {
		return nil, nil, nil, nil
	}

	var inputs []witness.InclusionInput
	var blocks []*Block
	lastRootHash := ""

	for block := l.head; ; {
		input, err := witness.NewInclusionInput(block.Tree, index, address)
		if err != nil {
			if errors.Is(err, witness.ErrLeafMismatch) {
				break
			}
			return nil, nil, nil, err
		}

		if input.RootHash != lastRootHash {
			inputs = append(inputs, input)
			blocks = append(blocks, block)
			lastRootHash = input.RootHash
		}

		if block.PrevHash == "" {
			break
		}
		prev, ok := l.chain[block.PrevHash]
		if !ok {
			break
		}
		block = prev
	}

	// Walked newest-to-oldest; fold oldest-to-newest so the history reads
	// chronologically, matching the liabilities proof's temporal ordering.
	reverseInclusion(inputs)
	reverseBlocks(blocks)

	if len(inputs) == 0 {
		return nil, nil, nil, nil
	}

	pp, err := l.circuits.PublicParams(circuit.Inclusion)
	if err != nil {
		return nil, nil, nil, &ProofError{Stage: "setup", Err: err}
	}

	proof, err := prover.NewInclusionProof(ctx, l.engine, pp, inputs)
	if err != nil {
		return nil, nil, nil, &ProofError{Stage: "fold", Err: err}
	}

	return proof, blocks, pp, nil
}

func reverseInclusion(s []witness.InclusionInput) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseBlocks(s []*Block) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
