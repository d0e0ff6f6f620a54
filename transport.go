// Package wireline implements a bidirectional message transport that carries
// newline-delimited JSON messages over a pair of byte streams. It owns the
// concurrent read loop, serializes outbound writes, and guarantees a
// deterministic shutdown even when the underlying I/O is blocked.
//
// The package does not interpret message semantics or route messages to
// handlers; each decoded inbound message is handed, in arrival order, to the
// OnMessage callback supplied at construction.
package wireline

import (
	"bytes"
	"context"
	"io"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Errors returned by transport operations.
var (
	// ErrInvalidReader is returned when no input stream is provided.
	ErrInvalidReader = errors.New("invalid input stream")
	// ErrInvalidWriter is returned when no output stream is provided.
	ErrInvalidWriter = errors.New("invalid output stream")
	// ErrInvalidOnMessage is returned when no message callback is provided.
	ErrInvalidOnMessage = errors.New("invalid on message callback")
)

// ErrNotConnected is returned when sending on a disconnected transport.
var ErrNotConnected = errors.New("transport not connected")

// Transport represents one physical duplex connection speaking
// newline-delimited JSON. It owns the input and output streams exclusively:
// only its read loop reads the input stream, and only Send writes the output
// stream. A Transport becomes connected synchronously at construction and
// disconnected exactly once, either when its read loop exits or when Close
// forces teardown. A new Transport is required for a new connection.
type Transport struct {
	name   string
	in     io.ReadCloser
	out    io.WriteCloser
	codec  *lineCodec
	logger Logger

	opts options

	// sendLock serializes outbound writes; acquired with the caller's
	// context so a pending Send can be cancelled.
	sendLock *semaphore.Weighted

	connected atomic.Bool
	closed    atomic.Bool

	cancel context.CancelFunc
	group  *errgroup.Group
	done   chan struct{}
}

// New creates a Transport over the given streams and starts its read loop.
// Both streams must be open and ready; the transport is connected as soon as
// New returns. The OnMessageOption callback is required and receives each
// decoded inbound message in arrival order.
func New(in io.ReadCloser, out io.WriteCloser, opt ...Option) (*Transport, error) {
	if in == nil {
		return nil, ErrInvalidReader
	}
	if out == nil {
		return nil, ErrInvalidWriter
	}

	var opts options
	for _, o := range opt {
		o(&opts)
	}

	if err := checkOptions(&opts); err != nil {
		return nil, err
	}

	t := &Transport{
		name:     opts.name,
		in:       in,
		out:      out,
		codec:    newLineCodec(in, out, opts.maxLineLength),
		logger:   opts.logger,
		opts:     opts,
		sendLock: semaphore.NewWeighted(1),
		done:     make(chan struct{}),
	}

	// Connected flips true before the read loop starts so a caller may send
	// immediately after construction.
	t.connected.Store(true)
	t.logger.Info("transport connected", "name", t.name)

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.group, ctx = errgroup.WithContext(ctx)
	t.group.Go(func() error {
		return t.readLoop(ctx)
	})

	return t, nil
}

// Name returns the transport's diagnostic name.
func (t *Transport) Name() string {
	return t.name
}

// IsConnected reports whether the transport is still connected. The flag is
// monotonic: once false it never becomes true again for this instance.
func (t *Transport) IsConnected() bool {
	return t.connected.Load()
}

// Done returns a channel that is closed when the read loop has terminated.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Send encodes the message, writes it followed by a single newline, and
// flushes the output stream. Concurrent calls are fully serialized; messages
// appear on the stream in the order calls acquire the send lock. Send fails
// immediately with ErrNotConnected on a disconnected transport, without
// touching the stream. A failed Send does not disconnect the transport.
func (t *Transport) Send(ctx context.Context, message Message) error {
	if !t.connected.Load() {
		return ErrNotConnected
	}

	if err := t.sendLock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer t.sendLock.Release(1)

	data, err := message.Encode()
	if err != nil {
		t.logger.Error("send failed", "name", t.name, "id", message.ID(), "error", err)
		return errors.Wrap(err, "send failed")
	}

	if err := t.codec.WriteLine(data); err != nil {
		t.logger.Error("send failed", "name", t.name, "id", message.ID(), "error", err)
		return errors.Wrap(err, "send failed")
	}

	return nil
}

// readLoop consumes the input stream one line at a time until end-of-stream,
// cancellation, or an unrecoverable read error. A malformed line is logged
// and skipped; it never terminates the loop. The loop's final action is to
// flip the connected flag and close the done channel.
func (t *Transport) readLoop(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("read loop panic", "name", t.name, "panic", r)
		}
		t.connected.Store(false)
		close(t.done)
	}()

	for {
		select {
		case <-ctx.Done():
			t.logger.Debug("read loop cancelled", "name", t.name)
			return ctx.Err()
		default:
		}

		line, err := t.codec.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				t.logger.Debug("input stream ended", "name", t.name)
				return nil
			}
			// A forced stream closure during Close surfaces as a read
			// error; report it as cancellation, not a fault.
			if ctx.Err() != nil {
				t.logger.Debug("read loop cancelled", "name", t.name)
				return ctx.Err()
			}
			t.logger.Error("read loop failed", "name", t.name, "error", err)
			return errors.Wrap(err, "reading line")
		}

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		message, err := DecodeMessage(line)
		if err != nil {
			t.logger.Warn("skipping malformed line", "name", t.name, "error", err)
			t.logger.Debug("malformed line payload", "name", t.name, "line", string(line))
			continue
		}

		id := message.ID()
		t.logger.Debug("message received", "name", t.name, "id", id)
		if err := t.opts.onMessage(ctx, message); err != nil {
			t.logger.Error("message callback failed", "name", t.name, "id", id, "error", err)
		}
		t.logger.Debug("message dispatched", "name", t.name, "id", id)
	}
}

// Close tears the transport down: it cancels the read loop, force-closes both
// streams to unblock a read stuck inside a blocking call, waits for the loop
// to terminate, and flips the connected flag. Close is idempotent and safe to
// call concurrently with an in-flight Send or an active read loop; every call
// after the first returns immediately. Close never returns an error; faults
// during teardown are logged and absorbed.
//
// If the OnMessage callback is blocked, Close waits until it returns; no
// timeout is applied.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil // already closed
	}

	t.cancel()

	// Cancellation alone cannot interrupt a read already blocked inside the
	// stream; closing the handles is the unconditional fallback.
	if err := t.in.Close(); err != nil {
		t.logger.Debug("input stream close", "name", t.name, "error", err)
	}
	if err := t.out.Close(); err != nil {
		t.logger.Debug("output stream close", "name", t.name, "error", err)
	}

	if err := t.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		t.logger.Error("read loop ended with error", "name", t.name, "error", err)
	}

	t.connected.Store(false)
	t.logger.Info("transport closed", "name", t.name)
	return nil
}
