package ledger

import (
	"container/heap"
	"sync"
)

// Mempool buffers transactions awaiting inclusion in the next block. Every
// implementation drains atomically: once DrainAll returns, the pool is
// empty and the caller owns the returned order.
type Mempool interface {
	Add(tx Transaction)
	DrainAll() []Transaction
	Size() int
}

// FIFOMempool is an ordered, first-in-first-out transaction buffer — the
// mempool the ledger wires by default, since blocks must apply
// transactions in strict arrival order. The ledger drains the whole pool
// at every block seal, so there is no hash-keyed removal or capacity
// bound.
type FIFOMempool struct {
	mu  sync.Mutex
	txs []Transaction
}

// NewFIFOMempool returns an empty FIFO mempool.
func NewFIFOMempool() *FIFOMempool {
	return &FIFOMempool{}
}

// Add appends tx to the tail of the queue.
func (m *FIFOMempool) Add(tx Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, tx)
}

// DrainAll atomically removes and returns every queued transaction, oldest
// first.
func (m *FIFOMempool) DrainAll() []Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	drained := m.txs
	m.txs = nil
	return drained
}

// Size returns the number of transactions currently queued.
func (m *FIFOMempool) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

// PriorityMempool orders transactions by fee (highest first, ties broken by
// earliest timestamp) instead of arrival order. It is not wired into the
// server runtime — block application must follow arrival order — but is
// kept as the alternative strategy behind the same Mempool interface.
type PriorityMempool struct {
	mu   sync.Mutex
	heap txHeap
}

// NewPriorityMempool returns an empty fee-priority mempool.
func NewPriorityMempool() *PriorityMempool {
	h := &PriorityMempool{}
	heap.Init(&h.heap)
	return h
}

func (m *PriorityMempool) Add(tx Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	heap.Push(&m.heap, tx)
}

// DrainAll pops every transaction in fee-priority order.
func (m *PriorityMempool) DrainAll() []Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transaction, 0, m.heap.Len())
	for m.heap.Len() > 0 {
		out = append(out, heap.Pop(&m.heap).(Transaction))
	}
	return out
}

func (m *PriorityMempool) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heap.Len()
}

// txHeap implements container/heap.Interface over Transaction, ordering by
// Fee descending then Timestamp ascending.
type txHeap []Transaction

func (h txHeap) Len() int { return len(h) }

func (h txHeap) Less(i, j int) bool {
	if h[i].Fee != h[j].Fee {
		return h[i].Fee > h[j].Fee
	}
	return h[i].Timestamp.Before(h[j].Timestamp)
}

func (h txHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *txHeap) Push(x interface{}) {
	*h = append(*h, x.(Transaction))
}

func (h *txHeap) Pop() interface{} {
	old := *h
	n := len(old)
	tx := old[n-1]
	*h = old[:n-1]
	return tx
}
