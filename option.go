package wireline

import (
	"context"

	"github.com/google/uuid"
)

// options holds the configuration for a transport.
type options struct {
	name   string
	logger Logger

	// onMessage receives each decoded inbound message in arrival order.
	// It may block; errors it returns are logged, never propagated.
	onMessage func(ctx context.Context, message Message) error

	maxLineLength int // maximum size of a single inbound line
}

// Option is a function that configures transport options.
type Option func(*options)

// defaultMaxLineLength is the default maximum size of one inbound line (1MB).
const defaultMaxLineLength = 1024 * 1024

// checkOptions validates and sets default values for transport options.
func checkOptions(opts *options) error {
	if opts.onMessage == nil {
		return ErrInvalidOnMessage
	}

	if opts.name == "" {
		opts.name = "transport-" + uuid.NewString()[:8]
	}

	if opts.maxLineLength <= 0 {
		opts.maxLineLength = defaultMaxLineLength
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	return nil
}

// NameOption returns an Option that sets the transport's diagnostic name.
// If not set, a generated name is used.
func NameOption(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// OnMessageOption returns an Option that sets the message callback.
// This callback is required and is invoked for each decoded inbound message.
func OnMessageOption(cb func(ctx context.Context, message Message) error) Option {
	return func(o *options) {
		o.onMessage = cb
	}
}

// MaxLineLengthOption returns an Option that sets the maximum inbound line
// size. Lines larger than this cannot be received.
func MaxLineLengthOption(size int) Option {
	return func(o *options) {
		o.maxLineLength = size
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
