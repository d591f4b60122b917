// Package client implements the CLI-facing TCP client.
package client

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/example/solvency-ledger/internal/prover"
	"github.com/example/solvency-ledger/internal/wire"
)

// Client sends one request per connection to a ledger node and reads back
// its single-line response — connect, write, read, close per call rather
// than holding one long-lived connection.
type Client struct {
	addr    string
	timeout time.Duration
}

// New returns a Client that dials addr (e.g. "127.0.0.1:8888") for each
// request.
func New(addr string) *Client {
	return &Client{addr: addr, timeout: 10 * time.Second}
}

func (c *Client) roundTrip(request string) (string, error) {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return "", fmt.Errorf("client: connect %s: %w", c.addr, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	writer := bufio.NewWriter(conn)
	if _, err := fmt.Fprintf(writer, "%s\n", request); err != nil {
		return "", fmt.Errorf("client: write: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("client: flush: %w", err)
	}

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("client: read: %w", err)
	}
	return strings.TrimRight(line, "\n"), nil
}

// GetBalance sends "balance_<address>" and returns the raw response line.
func (c *Client) GetBalance(address string) (string, error) {
	return c.roundTrip("balance_" + address)
}

// AddTransaction sends "transfer_<from>_<to>_<amount>" and returns the raw
// response line.
func (c *Client) AddTransaction(from, to string, amount int64) (string, error) {
	return c.roundTrip(fmt.Sprintf("transfer_%s_%s_%d", from, to, amount))
}

// BalanceHistory sends "balance_history_<address>", deserializes the
// returned ProofOfInclusionWrapper, verifies it client-side, and returns
// the verified per-root history.
func (c *Client) BalanceHistory(ctx context.Context, engine prover.Engine, address string) ([]wire.BlockSummary, error) {
	raw, err := c.roundTrip("balance_history_" + address)
	if err != nil {
		return nil, err
	}

	wrapper, err := wire.DeserializeInclusionWrapper([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("client: server said: %s", raw)
	}

	if err := wrapper.Proof.Verify(ctx, engine, wrapper.PP); err != nil {
		return nil, fmt.Errorf("client: inclusion proof failed verification: %w", err)
	}
	return wrapper.WrapBlocks, nil
}

// VerifyLiabilities sends "verify_filler" (the command grammar ignores
// everything after the verify token), deserializes the returned
// ProofOfLiabilitiesWrapper, and verifies it client-side.
func (c *Client) VerifyLiabilities(ctx context.Context, engine prover.Engine) (*prover.LiabilitiesProof, error) {
	raw, err := c.roundTrip("verify_filler")
	if err != nil {
		return nil, err
	}

	wrapper, err := wire.DeserializeLiabilitiesWrapper([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("client: server said: %s", raw)
	}

	if err := wrapper.Proof.Verify(ctx, engine, wrapper.PP); err != nil {
		return nil, fmt.Errorf("client: liabilities proof failed verification: %w", err)
	}
	return wrapper.Proof, nil
}
