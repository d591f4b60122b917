package witness

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/example/solvency-ledger/internal/mst"
)

// ErrPathMismatch is returned when the old and new tree disagree on the
// authentication path neighbors at the changed index — the trees must
// differ only at the leaf itself and its ancestor chain.
var ErrPathMismatch = errors.New("witness: old and new tree paths diverge off the changed index")

// LiabilitiesInput is one fold iteration's private input for the
// liabilities_changes_folding circuit. Field names mirror the witness
// generator's input map keys (oldUserHash, oldValues, newUserHash,
// newValues, tempHash, tempSum, neighborsSum, neighborsHash,
// neighborsBinary), kept as Go slices instead of a string-keyed map.
//
// Exactly one LiabilitiesInput is built per Change, not one input spanning
// every change — this is what lets the liabilities proof treat
// len(changes) as the fold's iteration count.
type LiabilitiesInput struct {
	OldUserHash     []string
	OldValues       []string
	NewUserHash     []string
	NewValues       []string
	TempHash        []string
	TempSum         []string
	NeighborsSum    []string
	NeighborsHash   []string
	NeighborsBinary []string
}

// NewLiabilitiesInputs builds one LiabilitiesInput per change, in order.
func NewLiabilitiesInputs(changes []Change) ([]LiabilitiesInput, error) {
	inputs := make([]LiabilitiesInput, 0, len(changes))
	for _, change := range changes {
		input, err := newLiabilitiesInput(change)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

func newLiabilitiesInput(change Change) (LiabilitiesInput, error) {
	oldLeaf, err := change.Old.GetLeaf(change.Index)
	if err != nil {
		return LiabilitiesInput{}, err
	}
	newLeaf, err := change.New.GetLeaf(change.Index)
	if err != nil {
		return LiabilitiesInput{}, err
	}

	// Neighbors off the mutated leaf's path are identical in the old and new
	// tree (only the leaf itself and its ancestor chain changed), so the old
	// tree's proof supplies every neighbor the circuit needs.
	oldPath, err := change.Old.GetProof(change.Index)
	if err != nil {
		return LiabilitiesInput{}, err
	}
	newPath, err := change.New.GetProof(change.Index)
	if err != nil {
		return LiabilitiesInput{}, err
	}
	if !pathsEqual(oldPath, newPath) {
		return LiabilitiesInput{}, ErrPathMismatch
	}

	input := LiabilitiesInput{
		OldUserHash: []string{hashOfLeaf(oldLeaf)},
		OldValues:   []string{decStr(oldLeaf.Value)},
		NewUserHash: []string{hashOfLeaf(newLeaf)},
		NewValues:   []string{decStr(newLeaf.Value)},
	}

	// tempHash/tempSum carry the root before and after this one change, not
	// a leaf-to-root path. Each input covers exactly one change, so the
	// vectors are always length 2.
	oldRootHashDec, err := HexToDec(change.Old.RootHash())
	if err != nil {
		return LiabilitiesInput{}, err
	}
	newRootHashDec, err := HexToDec(change.New.RootHash())
	if err != nil {
		return LiabilitiesInput{}, err
	}
	input.TempHash = []string{oldRootHashDec, newRootHashDec}
	input.TempSum = []string{decStr(change.Old.RootSum()), decStr(change.New.RootSum())}

	neighborsSum := make([]string, 0, len(oldPath))
	neighborsHash := make([]string, 0, len(oldPath))
	neighborsBinary := make([]string, 0, len(oldPath))
	for _, entry := range oldPath {
		dec, err := HexToDec(entry.Hash)
		if err != nil {
			return LiabilitiesInput{}, err
		}
		neighborsHash = append(neighborsHash, dec)
		neighborsSum = append(neighborsSum, decStr(entry.Value))
		neighborsBinary = append(neighborsBinary, binaryDigit(entry.Position))
	}
	input.NeighborsSum = neighborsSum
	input.NeighborsHash = neighborsHash
	input.NeighborsBinary = neighborsBinary
	return input, nil
}

// hashOfLeaf returns the decimal field-element encoding of a leaf's hash,
// matching the sha256-over-ID hash internal/mst computes for leaf nodes.
func hashOfLeaf(l mst.Leaf) string {
	sum := sha256.Sum256([]byte(l.ID))
	return MustHexToDec(hex.EncodeToString(sum[:]))
}

func decStr(v int64) string {
	if v < 0 {
		return "0"
	}
	return strconv.FormatInt(v, 10)
}

func binaryDigit(pos mst.Position) string {
	if pos == mst.Left {
		return "1"
	}
	return "0"
}

func pathsEqual(a, b mst.Path) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
