package prover

import "errors"

var (
	// ErrVerificationFailed is returned by Verify when the folded circuit's
	// final public output does not match the claimed final root hash/sum.
	ErrVerificationFailed = errors.New("prover: verification failed")

	// ErrEmptyInputs is returned when a proof is requested over zero
	// iterations — folding needs at least one private input.
	ErrEmptyInputs = errors.New("prover: no inputs to fold")
)
