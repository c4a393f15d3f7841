package line

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/battleship/game/engine"
	"github.com/wricardo/mcp-training/battleship/game/protocol"
)

// DefaultAddr is the listen address used when Server.Addr is empty.
const DefaultAddr = ":8888"

// maxLineLength bounds a single command line.
const maxLineLength = 4096

// Server accepts line-protocol clients.
type Server struct {
	Addr string

	// NewSession builds the session for a connection. Defaults to an
	// auto-placed fleet with a time-seeded RNG.
	NewSession func() *protocol.Session

	mu    sync.Mutex
	conns map[string]net.Conn
	wg    sync.WaitGroup
}

// NewServer creates a server listening on addr.
func NewServer(addr string) *Server {
	return &Server{Addr: addr}
}

// SeededSessions returns a session factory whose boards draw from rngs
// seeded with seed, seed+1, ... so runs are reproducible. A zero seed means
// time-based.
func SeededSessions(seed uint64) func() *protocol.Session {
	var mu sync.Mutex
	next := seed
	return func() *protocol.Session {
		mu.Lock()
		s := next
		if next != 0 {
			next++
		}
		mu.Unlock()
		return protocol.NewSession(protocol.WithBoardFactory(func() *engine.Board {
			return engine.NewBoard(engine.WithRand(engine.NewRand(s)))
		}))
	}
}

// ListenAndServe listens on s.Addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes the
// listener and every open connection and waits for their handlers to return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log.Info().Str("addr", ln.Addr().String()).Msg("line server listening")

	stop := context.AfterFunc(ctx, func() {
		ln.Close()
		s.closeAll()
	})
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return err
			}
			log.Warn().Err(err).Msg("accept failed")
			continue
		}

		id := uuid.NewString()
		s.track(id, conn)
		if ctx.Err() != nil {
			conn.Close()
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(id)
			s.handle(id, conn)
		}()
	}
}

// ServeConn runs a single connection to completion, for callers that manage
// their own listener or use in-memory pipes.
func (s *Server) ServeConn(conn net.Conn) {
	s.handle(uuid.NewString(), conn)
}

func (s *Server) handle(id string, conn net.Conn) {
	defer conn.Close()

	logger := log.With().Str("conn", id).Str("remote", conn.RemoteAddr().String()).Logger()
	logger.Info().Msg("client connected")

	session := s.newSession()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64), maxLineLength)
	w := bufio.NewWriter(conn)

	for scanner.Scan() {
		cmd := protocol.ParseCommand(scanner.Text())
		res := session.Handle(cmd)

		ev := logger.Debug().Str("command", cmd.Kind.String()).Str("result", res.Kind.String())
		if cmd.Kind == protocol.CommandCell {
			ev = ev.Int("x", cmd.X).Int("y", cmd.Y)
		}
		ev.Msg("command handled")

		if _, err := w.WriteString(res.Message() + "\n"); err != nil {
			logger.Warn().Err(err).Msg("write failed")
			return
		}
		if err := w.Flush(); err != nil {
			logger.Warn().Err(err).Msg("write failed")
			return
		}

		if res.Terminal() {
			if res.Kind == protocol.ResultGameComplete {
				logger.Info().Int("score", res.Score).Msg("game completed")
			}
			logger.Info().Msg("closing connection")
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Warn().Err(err).Msg("read failed")
	}
	logger.Info().Msg("client disconnected")
}

func (s *Server) newSession() *protocol.Session {
	if s.NewSession != nil {
		return s.NewSession()
	}
	return protocol.NewSession()
}

func (s *Server) track(id string, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		s.conns = make(map[string]net.Conn)
	}
	s.conns[id] = conn
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
}

// ActiveConnections returns the number of connected clients.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
