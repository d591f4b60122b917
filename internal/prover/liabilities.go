package prover

import (
	"context"
	"strconv"

	"github.com/example/solvency-ledger/internal/witness"
)

// LiabilitiesProof is a folded recursive proof that a sequence of Merkle
// Sum Tree changes transforms one authenticated root into another without
// changing the total liabilities sum improperly.
type LiabilitiesProof struct {
	Snark            RecursiveSNARK `json:"recursive_proof"`
	IterationCount   int            `json:"iteration_count"`
	StartPublicInput []string       `json:"start_public_input"`
	Z0Secondary      []string       `json:"secondary_input"`
	FinalRootHash    string         `json:"final_root_hash"`
	FinalRootSum     int64          `json:"final_root_sum"`
}

// NewLiabilitiesProof folds one recursive step per entry of inputs,
// starting from the tree's state before any of the changes were applied.
// The starting public input is [1, 1, dec(initialRootHash), initialRootSum].
func NewLiabilitiesProof(
	ctx context.Context,
	engine Engine,
	pp interface{},
	initialRootHash string,
	initialRootSum int64,
	finalRootHash string,
	finalRootSum int64,
	inputs []witness.LiabilitiesInput,
) (*LiabilitiesProof, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyInputs
	}

	initialHashDec, err := witness.HexToDec(initialRootHash)
	if err != nil {
		return nil, err
	}

	startPublicInput := []string{"1", "1", initialHashDec, strconv.FormatInt(initialRootSum, 10)}
	z0Secondary := []string{"0"}

	privateInputs := make([]map[string]interface{}, len(inputs))
	for i, in := range inputs {
		privateInputs[i] = map[string]interface{}{
			"oldUserHash":     in.OldUserHash,
			"oldValues":       in.OldValues,
			"newUserHash":     in.NewUserHash,
			"newValues":       in.NewValues,
			"tempHash":        in.TempHash,
			"tempSum":         in.TempSum,
			"neighborsSum":    in.NeighborsSum,
			"neighborsHash":   in.NeighborsHash,
			"neighborsBinary": in.NeighborsBinary,
		}
	}

	snark, err := engine.Fold(ctx, pp, startPublicInput, z0Secondary, privateInputs)
	if err != nil {
		return nil, err
	}

	return &LiabilitiesProof{
		Snark:            snark,
		IterationCount:   len(inputs),
		StartPublicInput: startPublicInput,
		Z0Secondary:      z0Secondary,
		FinalRootHash:    finalRootHash,
		FinalRootSum:     finalRootSum,
	}, nil
}

// Verify folds out the recursive proof and checks the circuit's final
// public output: the valid_sum_hash and all_small_range flags must still be
// 1, and outputs 2 and 3 must agree with the claimed final root hash/sum.
func (p *LiabilitiesProof) Verify(ctx context.Context, engine Engine, pp interface{}) error {
	output, err := engine.Verify(ctx, pp, p.Snark, p.IterationCount, p.StartPublicInput, p.Z0Secondary)
	if err != nil {
		return err
	}
	if len(output) < 4 {
		return ErrVerificationFailed
	}
	if output[0] != "1" || output[1] != "1" {
		return ErrVerificationFailed
	}

	expectedHash, err := witness.HexToDec(p.FinalRootHash)
	if err != nil {
		return err
	}
	expectedSum := strconv.FormatInt(p.FinalRootSum, 10)

	if output[2] != expectedHash || output[3] != expectedSum {
		return ErrVerificationFailed
	}
	return nil
}
