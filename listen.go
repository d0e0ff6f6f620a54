package wireline

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
)

// Handler is the interface for handling accepted connections. The
// implementation typically wraps the connection with FromConn and owns the
// resulting transport's lifecycle.
type Handler interface {
	// Handle is called for each accepted connection.
	Handle(conn net.Conn)
}

// Server accepts inbound connections on a tcp or unix listener and hands
// each one to a Handler.
type Server struct {
	listener net.Listener
	logger   Logger

	mu       sync.Mutex
	shutdown bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the logger for the server.
func ServerLoggerOption(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// Listen creates a server bound to the given address. Network must be one of
// the stream networks understood by net.Listen, typically "tcp" or "unix".
func Listen(network, address string, opts ...ServerOption) (*Server, error) {
	listener, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}

	s := &Server{
		listener: listener,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Serve accepts connections and dispatches them to the handler until the
// context is canceled or an unrecoverable error occurs. Cancellation closes
// the listener to unblock a pending Accept; connections already handed to the
// handler are not interrupted.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	s.logger.Info("server started", "addr", s.listener.Addr())

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			isShutdown := s.shutdown
			s.mu.Unlock()

			if isShutdown || errors.Is(err, net.ErrClosed) {
				s.logger.Info("server stopped", "addr", s.listener.Addr())
				return ctx.Err()
			}

			s.logger.Error("accept error", "error", err)
			return err
		}

		s.logger.Debug("accepted connection", "remote_addr", conn.RemoteAddr())
		go handler.Handle(conn)
	}
}

// Close stops the server by closing the underlying listener. Any blocked
// Accept call returns immediately. Safe to call multiple times.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	return s.listener.Close()
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
