package wireline

import (
	"context"
	"strings"
	"testing"
)

func TestNameOption(t *testing.T) {
	opt := NameOption("stdio")

	var opts options
	opt(&opts)

	if opts.name != "stdio" {
		t.Errorf("name = %q, want %q", opts.name, "stdio")
	}
}

func TestOnMessageOption(t *testing.T) {
	called := false
	opt := OnMessageOption(func(ctx context.Context, message Message) error {
		called = true
		return nil
	})

	var opts options
	opt(&opts)

	if opts.onMessage == nil {
		t.Fatal("onMessage not set")
	}

	opts.onMessage(context.Background(), Message{})
	if !called {
		t.Error("onMessage callback not invoked")
	}
}

func TestMaxLineLengthOption(t *testing.T) {
	opt := MaxLineLengthOption(4096)

	var opts options
	opt(&opts)

	if opts.maxLineLength != 4096 {
		t.Errorf("maxLineLength = %d, want 4096", opts.maxLineLength)
	}
}

func TestLoggerOption(t *testing.T) {
	logger := &mockLogger{}
	opt := LoggerOption(logger)

	var opts options
	opt(&opts)

	if opts.logger != logger {
		t.Error("logger not set correctly")
	}
}

func TestCheckOptions_DefaultValues(t *testing.T) {
	opts := &options{
		onMessage: func(ctx context.Context, message Message) error { return nil },
	}

	err := checkOptions(opts)
	if err != nil {
		t.Fatalf("checkOptions failed: %v", err)
	}

	if !strings.HasPrefix(opts.name, "transport-") {
		t.Errorf("name = %q, want generated transport- prefix", opts.name)
	}

	if opts.maxLineLength != defaultMaxLineLength {
		t.Errorf("maxLineLength = %d, want %d", opts.maxLineLength, defaultMaxLineLength)
	}

	if opts.logger == nil {
		t.Error("logger should have default value")
	}
}

func TestCheckOptions_GeneratedNamesDiffer(t *testing.T) {
	onMessage := func(ctx context.Context, message Message) error { return nil }

	a := &options{onMessage: onMessage}
	b := &options{onMessage: onMessage}

	if err := checkOptions(a); err != nil {
		t.Fatalf("checkOptions failed: %v", err)
	}
	if err := checkOptions(b); err != nil {
		t.Fatalf("checkOptions failed: %v", err)
	}

	if a.name == b.name {
		t.Errorf("generated names collide: %q", a.name)
	}
}

func TestCheckOptions_MissingOnMessage(t *testing.T) {
	opts := &options{}

	if err := checkOptions(opts); err != ErrInvalidOnMessage {
		t.Errorf("expected ErrInvalidOnMessage, got %v", err)
	}
}
