// Package server implements the ledger node's TCP request loop — an
// underscore-delimited, newline-terminated text protocol — and the
// block-sealer goroutine that drains the mempool on a fixed tick.
package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/example/solvency-ledger/internal/ledger"
	"github.com/example/solvency-ledger/internal/wire"
)

// Dispatcher parses one line of the wire protocol and returns the response
// to write back, never an error a caller needs to branch on — every
// malformed or rejected request still produces a line of response text;
// bad input never closes the connection.
type Dispatcher struct {
	ledger *ledger.Ledger
}

// NewDispatcher returns a Dispatcher bound to l.
func NewDispatcher(l *ledger.Ledger) *Dispatcher {
	return &Dispatcher{ledger: l}
}

// Dispatch parses and executes a single request line. Command grammar:
//
//	transfer_<from>_<to>_<amount>   -> "transaction added to mempool!"
//	balance_<address>               -> "balance: <n>"
//	balance_history_<address>       -> serialized ProofOfInclusionWrapper
//	verify_<anything>               -> serialized ProofOfLiabilitiesWrapper
//	anything else                   -> "Wrong command"
func (d *Dispatcher) Dispatch(ctx context.Context, line string) string {
	parts := strings.Split(strings.TrimSpace(line), "_")
	if len(parts) == 0 {
		return "Wrong command"
	}

	switch parts[0] {
	case "transfer":
		return d.handleTransfer(parts)
	case "balance":
		if len(parts) >= 3 && parts[1] == "history" {
			return d.handleBalanceHistory(ctx, parts[2:])
		}
		return d.handleBalance(parts)
	case "verify":
		if len(parts) < 2 {
			return "Internal error: verify requires a token"
		}
		return d.handleVerify(ctx)
	default:
		return "Wrong command"
	}
}

func (d *Dispatcher) handleTransfer(parts []string) string {
	if len(parts) != 4 {
		return "Internal error: transfer requires from_to_amount"
	}
	from := sanitizeAddress(parts[1])
	to := sanitizeAddress(parts[2])
	amount, err := strconv.ParseInt(sanitizeAmount(parts[3]), 10, 64)
	if err != nil {
		return "Internal error: invalid amount"
	}
	d.ledger.AddTransaction(from, to, amount)
	return "transaction added to mempool!"
}

func (d *Dispatcher) handleBalance(parts []string) string {
	if len(parts) != 2 {
		return "Internal error: balance requires an address"
	}
	address := sanitizeAddress(parts[1])
	balance := d.ledger.GetBalance(address)
	return "balance: " + strconv.FormatInt(balance, 10)
}

func (d *Dispatcher) handleBalanceHistory(ctx context.Context, rest []string) string {
	if len(rest) != 1 {
		return "Internal error: balance_history requires an address"
	}
	address := sanitizeAddress(rest[0])

	proof, blocks, pp, err := d.ledger.GetInclusionProof(ctx, address)
	if err != nil {
		return "Internal error: " + err.Error()
	}
	if proof == nil {
		return "No current balance for user"
	}

	wrapper := wire.NewProofOfInclusionWrapper(proof, blocks, pp)
	data, err := wrapper.Serialize()
	if err != nil {
		return "Internal error: " + err.Error()
	}
	return string(data)
}

func (d *Dispatcher) handleVerify(ctx context.Context) string {
	proof, pp, err := d.ledger.GetLiabilitiesProof()
	if err != nil {
		return "Internal error: " + err.Error()
	}
	if proof == nil {
		return "No liabilities proof available yet"
	}

	wrapper := wire.NewProofOfLiabilitiesWrapper(proof, pp)
	data, err := wrapper.Serialize()
	if err != nil {
		return "Internal error: " + err.Error()
	}
	return string(data)
}

// sanitizeAddress strips anything but letters and digits. Addresses are
// opaque user-chosen identifiers, so this is a format filter, not a
// security boundary.
func sanitizeAddress(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isAlphaNumeric(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitizeAmount strips anything but digits.
func sanitizeAmount(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAlphaNumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
