// Package server implements BSQL's line-protocol TCP server (spec.md
// §4.8, §6, §9): accept loop, AUTH handshake, per-connection Session,
// statement dispatch to internal/engine, and wire-formatted responses.
// Grounded on steveyegge-beads/internal/rpc/server.go's accept loop — a
// connection-count semaphore, a context-cancelable listener, and a
// per-connection goroutine reading line-framed requests off a
// bufio.Reader with read/write deadlines — adapted here from JSON
// Request/Response framing to BSQL's plain SQL/meta-command text lines
// and its pre-statement auth handshake.
package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"bsql/internal/auth"
	"bsql/internal/bsqlerr"
	"bsql/internal/catalog"
	"bsql/internal/engine"
)

// Server is BSQL's TCP front end. One Server serves one listen address
// for the lifetime of a Serve call.
type Server struct {
	addr    string
	eng     *engine.Engine
	users   *auth.Store
	log     *zap.Logger
	maxConn int

	requestTimeout time.Duration

	connSem     chan struct{}
	activeConns int32
}

// New returns a Server ready to Serve on addr.
func New(addr string, eng *engine.Engine, users *auth.Store, log *zap.Logger, maxConns int) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if maxConns <= 0 {
		maxConns = 256
	}
	return &Server{
		addr:           addr,
		eng:            eng,
		users:          users,
		log:            log,
		maxConn:        maxConns,
		requestTimeout: 5 * time.Minute,
		connSem:        make(chan struct{}, maxConns),
	}
}

// Serve listens on s.addr and accepts connections until ctx is canceled,
// at which point the listener is closed and Serve returns nil.
func (s *Server) Serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.addr, err)
	}
	s.log.Info("listening", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("server: accept: %w", err)
			}
		}

		select {
		case s.connSem <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-s.connSem }()
				atomic.AddInt32(&s.activeConns, 1)
				defer atomic.AddInt32(&s.activeConns, -1)
				s.handleConnection(c)
			}(conn)
		default:
			s.log.Warn("connection limit reached, rejecting", zap.Int("max_conns", s.maxConn))
			conn.Close()
		}
	}
}

// handleConnection runs the auth handshake then loops reading one
// statement per line until the connection closes or a protocol error
// occurs (spec.md §4.8, §7: protocol errors close the connection,
// statement-level errors do not).
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	sess := engine.NewSession(catalog.DefaultDatabase)

	if _, err := writer.WriteString("AUTH_REQUIRED\n"); err != nil {
		return
	}
	if err := writer.Flush(); err != nil {
		return
	}
	if err := s.handshake(conn, reader, writer, sess); err != nil {
		s.log.Debug("handshake failed", zap.Error(err))
		return
	}

	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.requestTimeout)); err != nil {
			return
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		if err := conn.SetWriteDeadline(time.Now().Add(s.requestTimeout)); err != nil {
			return
		}
		res := s.eng.Execute(sess, line)
		if err := writeResult(writer, res); err != nil {
			return
		}
		if err := writer.Flush(); err != nil {
			return
		}
	}
}

// handshake requires the first line to be `AUTH <username> <password>`
// (spec.md §4.7, §4.8).
func (s *Server) handshake(conn net.Conn, reader *bufio.Reader, writer *bufio.Writer, sess *engine.Session) error {
	if err := conn.SetReadDeadline(time.Now().Add(s.requestTimeout)); err != nil {
		return err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	line = strings.TrimRight(line, "\r\n")

	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.EqualFold(fields[0], "AUTH") {
		// Any command other than AUTH while unauthenticated is rejected
		// with the generic error framing, not a handshake failure
		// (spec.md §4.7, §8 scenario 6).
		unauthErr := bsqlerr.NewUnauthenticated()
		writeLine(writer, fmt.Sprintf("ERROR: %s\n\n", unauthErr))
		writer.Flush()
		return unauthErr
	}
	if len(fields) != 3 {
		protoErr := bsqlerr.NewBadHandshake("expected AUTH <username> <password>")
		writeLine(writer, fmt.Sprintf("AUTH_FAILED %s\n", protoErr))
		writer.Flush()
		return protoErr
	}

	username, password := fields[1], fields[2]
	if !s.users.Verify(username, password) {
		authErr := bsqlerr.NewAuthFailed("invalid username or password")
		writeLine(writer, fmt.Sprintf("AUTH_FAILED %s\n", authErr))
		writer.Flush()
		return authErr
	}

	sess.User = username
	sess.Authenticated = true
	writeLine(writer, "AUTH_SUCCESS\n")
	return writer.Flush()
}

func writeLine(w *bufio.Writer, s string) {
	_, _ = w.WriteString(s)
}
