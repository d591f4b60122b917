// Package circuit loads the compiled R1CS/WASM artifacts for the two named
// circuits (liabilities_changes_folding, inclusion) and derives their
// public parameters exactly once. The recursive SNARK engine itself is
// consumed through the internal/prover.Engine seam; this package only owns
// the artifacts and the once-per-process cost of deriving parameters from
// them.
package circuit

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Name identifies one of the two circuits this system runs.
type Name string

const (
	Liabilities Name = "liabilities_changes_folding"
	Inclusion   Name = "inclusion"
)

// Setup holds the loaded R1CS constraint system and witness generator for
// one circuit, plus its derived public parameters. Public parameter
// derivation is expensive — Setup caches it behind sync.Once so it runs
// once per circuit per process, not once per request.
type Setup struct {
	Name                 Name
	R1CSPath             string
	WitnessGeneratorPath string

	once   sync.Once
	pp     interface{}
	ppErr  error
	loader func(r1csPath, wasmPath string) (interface{}, error)
}

// Loader derives public parameters from a circuit's R1CS and witness
// generator artifacts. Production wiring supplies the external prover's
// setup step; tests supply a stub.
type Loader func(r1csPath, wasmPath string) (interface{}, error)

// NewSetup returns a Setup for circuit name rooted at dir (expects
// dir/<name>.r1cs and dir/<name>_js/<name>.wasm).
func NewSetup(dir string, name Name, loader Loader) *Setup {
	return &Setup{
		Name:                 name,
		R1CSPath:             filepath.Join(dir, string(name)+".r1cs"),
		WitnessGeneratorPath: filepath.Join(dir, string(name)+"_js", string(name)+".wasm"),
		loader:               loader,
	}
}

// PublicParams returns the circuit's public parameters, deriving them on
// the first call and caching the result (or the error) for every
// subsequent call.
func (s *Setup) PublicParams() (interface{}, error) {
	s.once.Do(func() {
		s.pp, s.ppErr = s.loader(s.R1CSPath, s.WitnessGeneratorPath)
	})
	return s.pp, s.ppErr
}

// Registry owns both circuits' Setups and loads them concurrently at
// startup.
type Registry struct {
	Liabilities *Setup
	Inclusion   *Setup

	ppCache *PPCache[Name, interface{}]
}

// Get returns the Setup for name, or nil if name is not one of the two
// circuits this registry loaded.
func (r *Registry) Get(name Name) *Setup {
	switch name {
	case Liabilities:
		return r.Liabilities
	case Inclusion:
		return r.Inclusion
	default:
		return nil
	}
}

// PublicParams returns name's public parameters, served from the registry's
// PPCache after the first call — request-path lookups never re-derive
// them.
func (r *Registry) PublicParams(name Name) (interface{}, error) {
	setup := r.Get(name)
	if setup == nil {
		return nil, fmt.Errorf("circuit: unknown circuit %q", name)
	}
	return r.ppCache.GetOrLoad(name, setup.PublicParams)
}

// LoadRegistry constructs both circuits' Setups rooted at dir and derives
// their public parameters in parallel, returning once both are ready (or
// the first error).
func LoadRegistry(dir string, loader Loader) (*Registry, error) {
	reg := &Registry{
		Liabilities: NewSetup(dir, Liabilities, loader),
		Inclusion:   NewSetup(dir, Inclusion, loader),
		ppCache:     NewPPCache[Name, interface{}](),
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = reg.Liabilities.PublicParams()
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = reg.Inclusion.PublicParams()
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("circuit: loading registry: %w", err)
		}
	}
	return reg, nil
}
