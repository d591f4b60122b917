// Package witness builds the per-iteration prover inputs consumed by the
// recursive circuits.
package witness

import (
	"fmt"
	"math/big"
	"strings"
)

// HexToDec converts a "0x"-prefixed hex string into its base-10 decimal
// string representation, the field-element encoding the circuits expect.
func HexToDec(hexStr string) (string, error) {
	trimmed := strings.TrimPrefix(hexStr, "0x")
	value, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return "", fmt.Errorf("witness: %q is not valid hex", hexStr)
	}
	return value.String(), nil
}

// MustHexToDec panics on malformed input; only used for values already
// known to be well-formed hashes produced by internal/mst.
func MustHexToDec(hexStr string) string {
	dec, err := HexToDec(hexStr)
	if err != nil {
		panic(err)
	}
	return dec
}
