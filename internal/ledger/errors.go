package ledger

import "errors"

// Sentinel errors surfaced by the ledger state machine. Compare with
// errors.Is, never string-match.
var (
	// ErrInsufficientBalance signals a transfer whose sender cannot cover
	// the amount. The transaction is skipped, not the whole block.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
)

// ProofError wraps a failure from the circuit/witness/prover boundary with
// the stage at which it occurred, so callers can distinguish setup failures
// from verification failures without parsing strings.
type ProofError struct {
	Stage string // "setup" or "fold"
	Err   error
}

func (e *ProofError) Error() string {
	return "ledger: proof " + e.Stage + " failed: " + e.Err.Error()
}

func (e *ProofError) Unwrap() error {
	return e.Err
}
