package client

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
)

// lineServer accepts connections and answers each request line with
// respond(line), echoing the node's one-line protocol.
func lineServer(t *testing.T, respond func(string) string) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				scanner := bufio.NewScanner(c)
				for scanner.Scan() {
					c.Write([]byte(respond(scanner.Text()) + "\n"))
				}
			}(conn)
		}
	}()
	return listener.Addr().String()
}

func TestGetBalance(t *testing.T) {
	addr := lineServer(t, func(line string) string {
		if line != "balance_alice" {
			t.Errorf("server received %q", line)
		}
		return "balance: 100"
	})

	c := New(addr)
	resp, err := c.GetBalance("alice")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if resp != "balance: 100" {
		t.Errorf("resp = %q", resp)
	}
}

func TestAddTransactionRequestShape(t *testing.T) {
	var received string
	addr := lineServer(t, func(line string) string {
		received = line
		return "transaction added to mempool!"
	})

	c := New(addr)
	if _, err := c.AddTransaction("alice", "bob", 30); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if received != "transfer_alice_bob_30" {
		t.Errorf("request = %q, want transfer_alice_bob_30", received)
	}

	// Mint form: empty sender still produces the four-token shape.
	if _, err := c.AddTransaction("", "carol", 10); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if received != "transfer__carol_10" {
		t.Errorf("request = %q, want transfer__carol_10", received)
	}
}

func TestRoundTripConnectError(t *testing.T) {
	c := New("127.0.0.1:1") // nothing listens here
	if _, err := c.GetBalance("alice"); err == nil {
		t.Error("expected a connection error")
	}
}

func TestVerifyLiabilitiesTextualReply(t *testing.T) {
	addr := lineServer(t, func(string) string {
		return "No liabilities proof available yet"
	})

	c := New(addr)
	_, err := c.VerifyLiabilities(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "No liabilities proof available yet") {
		t.Errorf("err = %v, want the server's textual reply surfaced", err)
	}
}

func TestBalanceHistoryTextualReply(t *testing.T) {
	addr := lineServer(t, func(string) string {
		return "No current balance for user"
	})

	c := New(addr)
	_, err := c.BalanceHistory(context.Background(), nil, "ghost")
	if err == nil || !strings.Contains(err.Error(), "No current balance for user") {
		t.Errorf("err = %v, want the server's textual reply surfaced", err)
	}
}
