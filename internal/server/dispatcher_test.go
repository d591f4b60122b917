package server

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/solvency-ledger/internal/circuit"
	"github.com/example/solvency-ledger/internal/ledger"
	"github.com/example/solvency-ledger/internal/prover"
)

// echoEngine is the minimal prover.Engine for dispatcher tests: folding
// returns an opaque token, verification replays a fixed valid output.
type echoEngine struct{}

func (echoEngine) Fold(_ context.Context, _ interface{}, _ []string, _ []string, private []map[string]interface{}) (prover.RecursiveSNARK, error) {
	if len(private) == 0 {
		return nil, errors.New("no inputs")
	}
	return "snark", nil
}

func (echoEngine) Verify(_ context.Context, _ interface{}, _ prover.RecursiveSNARK, _ int, _ []string, _ []string) ([]string, error) {
	return []string{"1", "1", "0", "0"}, nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *ledger.Ledger) {
	t.Helper()
	registry, err := circuit.LoadRegistry("circuits/compile", func(_, _ string) (interface{}, error) {
		return "pp", nil
	})
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	clock := ledger.NewFixedClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	l, err := ledger.New(2, echoEngine{}, registry, clock, zerolog.Nop())
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	return NewDispatcher(l), l
}

func TestDispatchTransfer(t *testing.T) {
	d, l := newTestDispatcher(t)

	resp := d.Dispatch(context.Background(), "transfer_alice_bob_50")
	if resp != "transaction added to mempool!" {
		t.Errorf("response = %q", resp)
	}
	if l.MempoolSize() != 1 {
		t.Errorf("mempool size = %d, want 1", l.MempoolSize())
	}

	// No validation beyond parse: a zero amount is still enqueued.
	resp = d.Dispatch(context.Background(), "transfer_alice_bob_0")
	if resp != "transaction added to mempool!" {
		t.Errorf("zero-amount response = %q", resp)
	}
	if l.MempoolSize() != 2 {
		t.Errorf("mempool size = %d, want 2", l.MempoolSize())
	}
}

func TestDispatchBalance(t *testing.T) {
	d, l := newTestDispatcher(t)

	l.AddTransaction("", "alice", 100)
	if err := l.AddBlock(context.Background()); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}

	if resp := d.Dispatch(context.Background(), "balance_alice"); resp != "balance: 100" {
		t.Errorf("response = %q, want \"balance: 100\"", resp)
	}
	if resp := d.Dispatch(context.Background(), "balance_nobody"); resp != "balance: 0" {
		t.Errorf("response = %q, want \"balance: 0\"", resp)
	}
}

func TestDispatchBalanceHistory(t *testing.T) {
	d, l := newTestDispatcher(t)

	l.AddTransaction("", "alice", 100)
	if err := l.AddBlock(context.Background()); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}

	resp := d.Dispatch(context.Background(), "balance_history_alice")
	if !strings.HasPrefix(resp, "{") {
		t.Errorf("expected JSON wrapper, got %q", resp)
	}
	if !strings.Contains(resp, "wrap_blocks") {
		t.Errorf("wrapper missing wrap_blocks: %q", resp)
	}

	if resp := d.Dispatch(context.Background(), "balance_history_nobody"); resp != "No current balance for user" {
		t.Errorf("response = %q", resp)
	}
}

func TestDispatchVerify(t *testing.T) {
	d, l := newTestDispatcher(t)

	// No proof folded yet.
	if resp := d.Dispatch(context.Background(), "verify_x"); resp != "No liabilities proof available yet" {
		t.Errorf("response = %q", resp)
	}

	l.AddTransaction("", "alice", 100)
	if err := l.AddBlock(context.Background()); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}

	resp := d.Dispatch(context.Background(), "verify_x")
	if !strings.HasPrefix(resp, "{") {
		t.Errorf("expected JSON wrapper, got %q", resp)
	}
}

func TestDispatchMalformedRequests(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	tests := []struct {
		line string
		want string
	}{
		{"nonsense", "Wrong command"},
		{"", "Wrong command"},
		{"transfer_alice_bob", "Internal error: transfer requires from_to_amount"},
		{"transfer_alice_bob_notanumber", "Internal error: invalid amount"},
		{"verify", "Internal error: verify requires a token"},
		{"balance", "Internal error: balance requires an address"},
	}
	for _, tt := range tests {
		if got := d.Dispatch(ctx, tt.line); got != tt.want {
			t.Errorf("Dispatch(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestSanitization(t *testing.T) {
	d, l := newTestDispatcher(t)

	// Punctuation is stripped from addresses, non-digits from amounts.
	resp := d.Dispatch(context.Background(), "transfer_al!ice_b@ob_1x0")
	if resp != "transaction added to mempool!" {
		t.Fatalf("response = %q", resp)
	}
	if err := l.AddBlock(context.Background()); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	// "al!ice" sanitizes to "alice" — but alice holds nothing, so the 10
	// transfer is skipped for insufficient balance.
	if got := l.GetBalance("bob"); got != 0 {
		t.Errorf("balance(bob) = %d, want 0", got)
	}

	d.Dispatch(context.Background(), "transfer__car#ol_25")
	if err := l.AddBlock(context.Background()); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if got := l.GetBalance("carol"); got != 25 {
		t.Errorf("balance(carol) = %d, want 25", got)
	}
}
