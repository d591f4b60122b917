package server

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/example/solvency-ledger/internal/config"
	"github.com/example/solvency-ledger/internal/ledger"
)

// Server owns the ledger, the TCP accept loop, the background block
// sealer, and the metrics HTTP endpoint.
type Server struct {
	cfg *config.Config

	ledger     *ledger.Ledger
	dispatcher *Dispatcher
	metrics    *Metrics
	logger     zerolog.Logger

	listener net.Listener
	httpSrv  *http.Server

	wg    sync.WaitGroup
	done  chan struct{}
	ready chan struct{}
}

// New builds a Server bound to l. Callers start it with Run.
func New(cfg *config.Config, l *ledger.Ledger, logger zerolog.Logger) *Server {
	reg := prometheus.NewRegistry()
	return &Server{
		cfg:        cfg,
		ledger:     l,
		dispatcher: NewDispatcher(l),
		metrics:    NewMetrics(reg),
		logger:     logger,
		done:       make(chan struct{}),
		ready:      make(chan struct{}),
		httpSrv: &http.Server{
			Addr:    cfg.Server.MetricsAddr,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		},
	}
}

// Run starts the metrics endpoint, the block-sealer goroutine, and the TCP
// accept loop, and blocks until ctx is canceled. It then closes the
// listener, waits for in-flight connections to finish (up to
// cfg.ShutdownGrace), and returns.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Server.ListenAddr)
	if err != nil {
		return err
	}
	s.listener = listener
	close(s.ready)
	s.logger.Info().Str("addr", listener.Addr().String()).Msg("ledger node listening")

	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	s.wg.Add(1)
	go s.runBlockSealer(ctx)

	s.wg.Add(1)
	go s.acceptLoop(ctx)

	<-ctx.Done()
	s.logger.Info().Msg("shutting down")

	close(s.done)
	s.listener.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownGrace)
	defer cancel()
	s.httpSrv.Shutdown(shutdownCtx)

	waitCh := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
	case <-shutdownCtx.Done():
		s.logger.Warn().Msg("shutdown grace period elapsed with connections still open")
	}
	return nil
}

// Addr blocks until the listener is bound (or ctx expires) and returns its
// address — lets tests bind ":0" and discover the assigned port.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.ready:
		return s.listener.Addr(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runBlockSealer drains the mempool into a new block every BlockInterval;
// a tick that finds the mempool empty seals no block.
func (s *Server) runBlockSealer(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.Ledger.BlockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			if s.ledger.MempoolSize() == 0 {
				continue
			}
			start := time.Now()
			if err := s.ledger.AddBlock(ctx); err != nil {
				s.logger.Error().Err(err).Msg("block seal failed")
				continue
			}
			s.metrics.ProofFoldSeconds.Observe(time.Since(start).Seconds())
			s.metrics.MempoolSize.Set(0)
			s.logger.Info().Uint64("block", s.ledger.CurrentBlockNumber()).Msg("block sealed")
		}
	}
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.logger.Warn().Err(err).Msg("accept error")
				continue
			}
		}
		s.metrics.Connections.Inc()
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

// handleConn reads request lines off conn, a connection-scoped rate
// limiter admitting them at the configured requests-per-second/burst, and
// writes each dispatcher response back with a trailing newline.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	connID := uuid.New().String()
	log := s.logger.With().Str("conn_id", connID).Str("remote", conn.RemoteAddr().String()).Logger()
	log.Debug().Msg("connection accepted")
	defer log.Debug().Msg("connection closed")

	limiter := rate.NewLimiter(rate.Limit(s.cfg.RateLimit.RequestsPerSecond), s.cfg.RateLimit.Burst)

	scanner := bufio.NewScanner(conn)
	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		select {
		case <-s.done:
			writer.WriteString("Server is shutting down\n")
			writer.Flush()
			return
		default:
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		line := scanner.Text()
		s.metrics.CommandTotal.WithLabelValues(commandName(line)).Inc()

		response := s.dispatcher.Dispatch(ctx, line)
		s.metrics.MempoolSize.Set(float64(s.ledger.MempoolSize()))

		if _, err := writer.WriteString(response + "\n"); err != nil {
			log.Warn().Err(err).Msg("write error")
			return
		}
		if err := writer.Flush(); err != nil {
			log.Warn().Err(err).Msg("flush error")
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("read error")
	}
}
