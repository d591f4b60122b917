package server

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/solvency-ledger/internal/circuit"
	"github.com/example/solvency-ledger/internal/config"
	"github.com/example/solvency-ledger/internal/ledger"
)

func startTestServer(t *testing.T) (net.Addr, context.CancelFunc) {
	t.Helper()

	cfg := config.Default()
	cfg.Server.ListenAddr = "127.0.0.1:0"
	cfg.Server.MetricsAddr = "127.0.0.1:0"
	cfg.Ledger.BlockInterval = 50 * time.Millisecond

	registry, err := circuit.LoadRegistry("circuits/compile", func(_, _ string) (interface{}, error) {
		return "pp", nil
	})
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	l, err := ledger.New(2, echoEngine{}, registry, ledger.SystemClock{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := New(cfg, l, zerolog.Nop())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	addrCtx, addrCancel := context.WithTimeout(ctx, 5*time.Second)
	defer addrCancel()
	addr, err := srv.Addr(addrCtx)
	if err != nil {
		t.Fatalf("Addr: %v", err)
	}
	return addr, cancel
}

func request(t *testing.T, addr net.Addr, line string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return strings.TrimRight(resp, "\n")
}

func TestServerEndToEnd(t *testing.T) {
	addr, _ := startTestServer(t)

	if got := request(t, addr, "transfer__alice_100"); got != "transaction added to mempool!" {
		t.Fatalf("transfer response = %q", got)
	}

	// The sealer ticks every 50ms; wait for the credit to land.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if got := request(t, addr, "balance_alice"); got == "balance: 100" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("balance never reflected the sealed block")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if got := request(t, addr, "balance_history_alice"); !strings.HasPrefix(got, "{") {
		t.Errorf("balance_history response = %q, want JSON wrapper", got)
	}
	if got := request(t, addr, "verify_x"); !strings.HasPrefix(got, "{") {
		t.Errorf("verify response = %q, want JSON wrapper", got)
	}
	if got := request(t, addr, "bogus"); got != "Wrong command" {
		t.Errorf("bogus response = %q", got)
	}
}

func TestServerMultipleRequestsPerConnection(t *testing.T) {
	addr, _ := startTestServer(t)

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	reader := bufio.NewReader(conn)

	for i := 0; i < 3; i++ {
		if _, err := conn.Write([]byte("balance_alice\n")); err != nil {
			t.Fatalf("Write: %v", err)
		}
		resp, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !strings.HasPrefix(resp, "balance:") {
			t.Errorf("response %d = %q", i, resp)
		}
	}
}
