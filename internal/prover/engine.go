// Package prover wraps the recursive SNARK step the circuits run. The
// fold/verify mechanics themselves (Nova-style IVC over two curves) are an
// opaque external engine reached only through the Engine interface — this
// package owns public-input construction and final-output assertions, not
// the recursive SNARK math.
package prover

import "context"

// RecursiveSNARK is an opaque handle to a folded proof produced by an
// Engine. Callers never inspect it directly; it only ever flows back into
// the same Engine's Verify.
type RecursiveSNARK interface{}

// Engine performs the recursive fold and verification step over a
// sequence of per-iteration private inputs. Production wiring implements
// this against the real recursive-SNARK library the circuits were compiled
// for; tests implement it with a deterministic fake.
type Engine interface {
	// Fold runs one recursive step per entry of privateInputs (each a
	// map[string]interface{} keyed the same way the circuit's witness
	// generator expects, e.g. "oldUserHash", "neighborsBinary") starting
	// from startPublicInput/z0Secondary, and returns the resulting
	// RecursiveSNARK.
	Fold(ctx context.Context, pp interface{}, startPublicInput []string, z0Secondary []string, privateInputs []map[string]interface{}) (RecursiveSNARK, error)

	// Verify checks snark against pp for the given iteration count and
	// starting public input, and returns the folded circuit's final public
	// output vector.
	Verify(ctx context.Context, pp interface{}, snark RecursiveSNARK, iterationCount int, startPublicInput []string, z0Secondary []string) ([]string, error)
}
