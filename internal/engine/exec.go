// Package engine provides the production internal/prover.Engine
// implementation: a thin process-exec shim around an external recursive
// prover binary. The fold/verify math itself (Nova-style IVC over
// Pallas/Vesta) lives in that binary; this package only owns the
// request/response plumbing to reach it.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/example/solvency-ledger/internal/prover"
)

// ExecEngine shells out to BinaryPath for every fold/verify call, passing a
// JSON request on stdin and reading a JSON response from stdout. The
// folding engine stays opaque: only the request/response shape matters
// here, never the math inside.
type ExecEngine struct {
	BinaryPath string
}

// New returns an ExecEngine invoking binaryPath for every request.
func New(binaryPath string) *ExecEngine {
	return &ExecEngine{BinaryPath: binaryPath}
}

type foldRequest struct {
	Op               string                   `json:"op"`
	PP               interface{}              `json:"pp"`
	StartPublicInput []string                 `json:"start_public_input"`
	Z0Secondary      []string                 `json:"z0_secondary"`
	PrivateInputs    []map[string]interface{} `json:"private_inputs"`
}

type foldResponse struct {
	Snark json.RawMessage `json:"snark"`
	Error string          `json:"error,omitempty"`
}

type verifyRequest struct {
	Op               string          `json:"op"`
	PP               interface{}     `json:"pp"`
	Snark            json.RawMessage `json:"snark"`
	IterationCount   int             `json:"iteration_count"`
	StartPublicInput []string        `json:"start_public_input"`
	Z0Secondary      []string        `json:"z0_secondary"`
}

type verifyResponse struct {
	Output []string `json:"output"`
	Error  string   `json:"error,omitempty"`
}

// Fold implements prover.Engine by running "<BinaryPath> fold" with the
// request JSON on stdin.
func (e *ExecEngine) Fold(ctx context.Context, pp interface{}, startPublicInput []string, z0Secondary []string, privateInputs []map[string]interface{}) (prover.RecursiveSNARK, error) {
	req := foldRequest{
		Op:               "fold",
		PP:               pp,
		StartPublicInput: startPublicInput,
		Z0Secondary:      z0Secondary,
		PrivateInputs:    privateInputs,
	}
	var resp foldResponse
	if err := e.run(ctx, "fold", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("engine: fold: %s", resp.Error)
	}
	return resp.Snark, nil
}

// Verify implements prover.Engine by running "<BinaryPath> verify" with the
// request JSON on stdin.
func (e *ExecEngine) Verify(ctx context.Context, pp interface{}, snark prover.RecursiveSNARK, iterationCount int, startPublicInput []string, z0Secondary []string) ([]string, error) {
	raw, ok := snark.(json.RawMessage)
	if !ok {
		data, err := json.Marshal(snark)
		if err != nil {
			return nil, fmt.Errorf("engine: marshal snark: %w", err)
		}
		raw = data
	}

	req := verifyRequest{
		Op:               "verify",
		PP:               pp,
		Snark:            raw,
		IterationCount:   iterationCount,
		StartPublicInput: startPublicInput,
		Z0Secondary:      z0Secondary,
	}
	var resp verifyResponse
	if err := e.run(ctx, "verify", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("engine: verify: %s", resp.Error)
	}
	return resp.Output, nil
}

// SetupLoader returns a circuit.Loader that shells out to binaryPath's
// "setup" subcommand to derive public parameters from a circuit's compiled
// R1CS and witness generator artifacts. Kept separate from ExecEngine
// since circuit.Setup calls a Loader with no context, matching
// circuit.Loader's signature.
func SetupLoader(binaryPath string) func(r1csPath, wasmPath string) (interface{}, error) {
	return func(r1csPath, wasmPath string) (interface{}, error) {
		payload, err := json.Marshal(struct {
			Op       string `json:"op"`
			R1CSPath string `json:"r1cs_path"`
			WasmPath string `json:"wasm_path"`
		}{Op: "setup", R1CSPath: r1csPath, WasmPath: wasmPath})
		if err != nil {
			return nil, fmt.Errorf("engine: marshal setup request: %w", err)
		}

		cmd := exec.Command(binaryPath, "setup")
		cmd.Stdin = bytes.NewReader(payload)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("engine: %s setup: %w (stderr: %s)", binaryPath, err, stderr.String())
		}

		var resp struct {
			PP    json.RawMessage `json:"pp"`
			Error string          `json:"error,omitempty"`
		}
		if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
			return nil, fmt.Errorf("engine: decode setup response: %w", err)
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("engine: setup: %s", resp.Error)
		}
		return resp.PP, nil
	}
}

func (e *ExecEngine) run(ctx context.Context, subcommand string, request interface{}, response interface{}) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("engine: marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.BinaryPath, subcommand)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("engine: %s %s: %w (stderr: %s)", e.BinaryPath, subcommand, err, stderr.String())
	}
	if err := json.Unmarshal(stdout.Bytes(), response); err != nil {
		return fmt.Errorf("engine: decode response: %w", err)
	}
	return nil
}
