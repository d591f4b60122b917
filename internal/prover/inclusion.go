package prover

import (
	"context"

	"github.com/example/solvency-ledger/internal/witness"
)

// InclusionProof is a folded recursive proof that a named user's balance
// is a leaf of the Merkle Sum Tree at a claimed root, one fold iteration
// per distinct historical root the user's slot passed through.
type InclusionProof struct {
	Snark            RecursiveSNARK           `json:"recursive_proof"`
	IterationCount   int                      `json:"iteration_count"`
	StartPublicInput []string                 `json:"start_public_input"`
	Z0Secondary      []string                 `json:"secondary_input"`
	InclusionInputs  []witness.InclusionInput `json:"inclusion_inputs"`
}

// startPublicInputInclusion is the inclusion circuit's fixed four-wide
// starting vector.
var startPublicInputInclusion = []string{"0", "0", "0", "0"}

// NewInclusionProof folds one recursive step per entry of inputs. No
// output assertions are made here; the client re-runs the recursive
// verifier through Verify.
func NewInclusionProof(
	ctx context.Context,
	engine Engine,
	pp interface{},
	inputs []witness.InclusionInput,
) (*InclusionProof, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyInputs
	}

	z0Secondary := []string{"0"}

	privateInputs := make([]map[string]interface{}, len(inputs))
	for i, in := range inputs {
		privateInputs[i] = map[string]interface{}{
			"neighborsSum":    in.NeighborsSum,
			"neighborsHash":   in.NeighborsHash,
			"neighborsBinary": in.NeighborsBinary,
			"sum":             in.RootSum,
			"rootHash":        in.RootHash,
			"userBalance":     in.UserBalance,
			"userHash":        in.UserHash,
		}
	}

	snark, err := engine.Fold(ctx, pp, startPublicInputInclusion, z0Secondary, privateInputs)
	if err != nil {
		return nil, err
	}

	return &InclusionProof{
		Snark:            snark,
		IterationCount:   len(inputs),
		StartPublicInput: startPublicInputInclusion,
		Z0Secondary:      z0Secondary,
		InclusionInputs:  inputs,
	}, nil
}

// Verify re-runs the recursive verifier over the stored iteration count and
// starting public input. Unlike LiabilitiesProof.Verify, no output
// assertions are made: the folded output vector is discarded, and the
// claimed balances in InclusionInputs (one entry per distinct root) are not
// compared against it.
func (p *InclusionProof) Verify(ctx context.Context, engine Engine, pp interface{}) error {
	_, err := engine.Verify(ctx, pp, p.Snark, p.IterationCount, p.StartPublicInput, p.Z0Secondary)
	return err
}
