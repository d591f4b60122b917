// Package wire defines the JSON envelopes transported between the server
// and clients.
package wire

import (
	"encoding/json"
	"time"

	"github.com/example/solvency-ledger/internal/ledger"
	"github.com/example/solvency-ledger/internal/prover"
)

// BlockSummary is one entry of a ProofOfInclusionWrapper's wrap_blocks: the
// human-readable view of a distinct historical root the inclusion proof
// folds over.
type BlockSummary struct {
	RootHash    string    `json:"root_hash"`
	RootSum     int64     `json:"root_sum"`
	BlockNumber uint64    `json:"block_number"`
	Timestamp   time.Time `json:"timestamp"`
}

// ProofOfInclusionWrapper is the envelope returned by balance_history_*
// requests: the folded proof, the per-root summaries the client renders as
// a history, and the public parameters needed to verify offline.
type ProofOfInclusionWrapper struct {
	Proof      *prover.InclusionProof `json:"proof"`
	WrapBlocks []BlockSummary         `json:"wrap_blocks"`
	PP         interface{}            `json:"pp"`
}

// NewProofOfInclusionWrapper zips proof and blocks into the wire shape —
// blocks must be the same length, in the same order, as
// proof.InclusionInputs (the pairing GetInclusionProof guarantees).
func NewProofOfInclusionWrapper(proof *prover.InclusionProof, blocks []*ledger.Block, pp interface{}) *ProofOfInclusionWrapper {
	summaries := make([]BlockSummary, len(blocks))
	for i, b := range blocks {
		summaries[i] = BlockSummary{
			RootHash:    proof.InclusionInputs[i].RootHash,
			RootSum:     b.Tree.RootSum(),
			BlockNumber: b.Number,
			Timestamp:   b.Timestamp,
		}
	}
	return &ProofOfInclusionWrapper{
		Proof:      proof,
		WrapBlocks: summaries,
		PP:         pp,
	}
}

// Serialize renders w as its JSON wire form.
func (w *ProofOfInclusionWrapper) Serialize() ([]byte, error) {
	return json.Marshal(w)
}

// DeserializeInclusionWrapper parses a ProofOfInclusionWrapper from its
// JSON wire form.
func DeserializeInclusionWrapper(data []byte) (*ProofOfInclusionWrapper, error) {
	var w ProofOfInclusionWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// ProofOfLiabilitiesWrapper is the envelope returned by verify_* requests.
type ProofOfLiabilitiesWrapper struct {
	Proof *prover.LiabilitiesProof `json:"proof"`
	PP    interface{}              `json:"pp"`
}

// NewProofOfLiabilitiesWrapper wraps proof and pp for transport.
func NewProofOfLiabilitiesWrapper(proof *prover.LiabilitiesProof, pp interface{}) *ProofOfLiabilitiesWrapper {
	return &ProofOfLiabilitiesWrapper{Proof: proof, PP: pp}
}

// Serialize renders w as its JSON wire form.
func (w *ProofOfLiabilitiesWrapper) Serialize() ([]byte, error) {
	return json.Marshal(w)
}

// DeserializeLiabilitiesWrapper parses a ProofOfLiabilitiesWrapper from its
// JSON wire form.
func DeserializeLiabilitiesWrapper(data []byte) (*ProofOfLiabilitiesWrapper, error) {
	var w ProofOfLiabilitiesWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &w, nil
}
