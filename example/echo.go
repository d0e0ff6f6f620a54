package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/wireline/wireline"
)

// echoHandler wraps each accepted connection in a transport that sends every
// inbound message straight back to the peer.
type echoHandler struct {
	logger *slog.Logger
}

func (h *echoHandler) Handle(conn net.Conn) {
	// The callback needs the transport to reply, but the transport does not
	// exist until FromConn returns; gate the first dispatch on ready.
	ready := make(chan struct{})
	var t *wireline.Transport

	t, err := wireline.FromConn(conn,
		wireline.NameOption(conn.RemoteAddr().String()),
		wireline.LoggerOption(h.logger),
		wireline.OnMessageOption(func(ctx context.Context, message wireline.Message) error {
			<-ready
			return t.Send(ctx, message)
		}),
	)
	if err != nil {
		h.logger.Error("transport setup failed", "error", err)
		conn.Close()
		return
	}
	close(ready)

	// Tear down once the peer disconnects.
	<-t.Done()
	t.Close()
}

func main() {
	logger := slog.Default()

	server, err := wireline.Listen("tcp", "127.0.0.1:9090",
		wireline.ServerLoggerOption(logger),
	)
	if err != nil {
		logger.Error("listen failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx, &echoHandler{logger: logger}); err != nil && err != context.Canceled {
		logger.Error("serve failed", "error", err)
		os.Exit(1)
	}
}
