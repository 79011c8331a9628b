package common

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("attempt failed: %w", WrapError(KindIOFault, io.ErrUnexpectedEOF, "read from %s", "node-1"))

	if !errors.Is(err, ErrIOFault) {
		t.Errorf("errors.Is should match the kind sentinel")
	}
	if errors.Is(err, ErrPoolTimeout) {
		t.Errorf("errors.Is must not match another kind")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("the cause must stay reachable")
	}
	if KindOf(err) != KindIOFault {
		t.Errorf("KindOf() = %s", KindOf(err))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Errorf("plain errors have no kind")
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", &Error{Kind: KindPoolClosed}, "PoolClosed"},
		{"message", NewError(KindInvalidArgument, "bucket %q is empty", "b"), `InvalidArgument: bucket "b" is empty`},
		{"cause", &Error{Kind: KindIOFault, Err: io.EOF}, "IOFault: EOF"},
		{"message and cause", WrapError(KindFramingError, io.EOF, "short header"), "FramingError: short header: EOF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindInvalidArgument, false},
		{KindMalformedRequest, false},
		{KindFramingError, true},
		{KindProtocolMismatch, false},
		{KindDecodeError, false},
		{KindPoolTimeout, true},
		{KindPoolExhausted, true},
		{KindPoolClosed, false},
		{KindIOFault, true},
		{KindUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := IsRetryable(NewError(tt.kind, "x")); got != tt.want {
				t.Errorf("IsRetryable(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}

	if IsRetryable(&ServerError{Code: 1, Message: "x"}) {
		t.Errorf("server errors are not retryable")
	}
}

func TestClientConfigValidate(t *testing.T) {
	valid := ClientConfig{
		Transport: ClientTransportConfig{Endpoints: []string{"localhost:8087"}},
		Pool:      ClientPoolConfig{Capacity: 1, ClusterCapacity: 1},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		modify func(c *ClientConfig)
	}{
		{"no endpoints", func(c *ClientConfig) { c.Transport.Endpoints = nil }},
		{"blank endpoint", func(c *ClientConfig) { c.Transport.Endpoints = []string{" "} }},
		{"zero capacity", func(c *ClientConfig) { c.Pool.Capacity = 0 }},
		{"zero cluster capacity", func(c *ClientConfig) { c.Pool.ClusterCapacity = 0 }},
		{"negative acquire timeout", func(c *ClientConfig) { c.Pool.AcquireTimeoutMs = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			config.Transport.Endpoints = append([]string(nil), valid.Transport.Endpoints...)
			tt.modify(&config)
			if err := config.Validate(); err == nil {
				t.Errorf("expected an error")
			}
		})
	}

	if valid.Transport.FrameLimit() != DefaultMaxFrameSize {
		t.Errorf("FrameLimit() = %d, want the default", valid.Transport.FrameLimit())
	}
}
