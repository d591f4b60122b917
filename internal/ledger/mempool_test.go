package ledger

import (
	"sync"
	"testing"
	"time"
)

func TestFIFOMempoolPreservesOrder(t *testing.T) {
	m := NewFIFOMempool()
	m.Add(Transaction{To: "a", Amount: 1})
	m.Add(Transaction{To: "b", Amount: 2})
	m.Add(Transaction{To: "c", Amount: 3})

	drained := m.DrainAll()
	if len(drained) != 3 {
		t.Fatalf("drained %d txs, want 3", len(drained))
	}
	for i, want := range []string{"a", "b", "c"} {
		if drained[i].To != want {
			t.Errorf("drained[%d].To = %q, want %q", i, drained[i].To, want)
		}
	}
	if m.Size() != 0 {
		t.Errorf("size after drain = %d, want 0", m.Size())
	}
}

func TestFIFOMempoolConcurrentAdds(t *testing.T) {
	m := NewFIFOMempool()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Add(Transaction{To: "x", Amount: 1})
		}()
	}
	wg.Wait()
	if m.Size() != 50 {
		t.Errorf("size = %d, want 50", m.Size())
	}
}

func TestPriorityMempoolOrdersByFee(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewPriorityMempool()
	m.Add(Transaction{To: "low", Fee: 1, Timestamp: now})
	m.Add(Transaction{To: "high", Fee: 10, Timestamp: now})
	m.Add(Transaction{To: "mid", Fee: 5, Timestamp: now})

	drained := m.DrainAll()
	for i, want := range []string{"high", "mid", "low"} {
		if drained[i].To != want {
			t.Errorf("drained[%d].To = %q, want %q", i, drained[i].To, want)
		}
	}
}

func TestPriorityMempoolBreaksFeeTiesByTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewPriorityMempool()
	m.Add(Transaction{To: "second", Fee: 5, Timestamp: now.Add(time.Second)})
	m.Add(Transaction{To: "first", Fee: 5, Timestamp: now})

	drained := m.DrainAll()
	if drained[0].To != "first" || drained[1].To != "second" {
		t.Errorf("tie not broken by timestamp: got %q then %q", drained[0].To, drained[1].To)
	}
}
