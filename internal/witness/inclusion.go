package witness

import (
	"errors"

	"github.com/example/solvency-ledger/internal/mst"
)

// ErrLeafMismatch is returned when the leaf at index does not belong to
// userID — the inclusion-history walk uses this check to know it has
// walked past every block where the account held that slot.
var ErrLeafMismatch = errors.New("witness: leaf at index does not belong to user")

// InclusionInput is one fold iteration's private input for the inclusion
// circuit, one per distinct historical root a user's proof walks through.
type InclusionInput struct {
	UserHash        string
	UserBalance     string
	RootHash        string
	RootSum         string
	NeighborsSum    []string
	NeighborsHash   []string
	NeighborsBinary []string
}

// NewInclusionInput builds the witness for one block: the proof path of
// userID's leaf at index, against tree (that block's Merkle Sum Tree
// snapshot).
func NewInclusionInput(tree *mst.Tree, index int, userID string) (InclusionInput, error) {
	leaf, err := tree.GetLeaf(index)
	if err != nil {
		return InclusionInput{}, err
	}
	if leaf.ID != userID {
		return InclusionInput{}, ErrLeafMismatch
	}
	path, err := tree.GetProof(index)
	if err != nil {
		return InclusionInput{}, err
	}

	neighborsSum := make([]string, 0, len(path))
	neighborsHash := make([]string, 0, len(path))
	neighborsBinary := make([]string, 0, len(path))
	for _, entry := range path {
		dec, err := HexToDec(entry.Hash)
		if err != nil {
			return InclusionInput{}, err
		}
		neighborsHash = append(neighborsHash, dec)
		neighborsSum = append(neighborsSum, decStr(entry.Value))
		neighborsBinary = append(neighborsBinary, binaryDigit(entry.Position))
	}

	rootHashDec, err := HexToDec(tree.RootHash())
	if err != nil {
		return InclusionInput{}, err
	}

	return InclusionInput{
		UserHash:        hashOfLeaf(leaf),
		UserBalance:     decStr(leaf.Value),
		RootHash:        rootHashDec,
		RootSum:         decStr(tree.RootSum()),
		NeighborsSum:    neighborsSum,
		NeighborsHash:   neighborsHash,
		NeighborsBinary: neighborsBinary,
	}, nil
}
