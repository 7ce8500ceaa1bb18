package consoleclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
)

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantType      ErrorType
		wantRetryable bool
		wantWrapped   error
	}{
		{
			name:          "Cancelled context",
			err:           context.Canceled,
			wantType:      ErrTypeCancelled,
			wantRetryable: false,
		},
		{
			name:          "Deadline exceeded",
			err:           context.DeadlineExceeded,
			wantType:      ErrTypeTimeout,
			wantRetryable: true,
		},
		{
			name:          "Connection refused",
			err:           &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			wantType:      ErrTypeNetwork,
			wantRetryable: true,
		},
		{
			name:          "DNS failure",
			err:           &net.DNSError{Name: "console.invalid", Err: "no such host"},
			wantType:      ErrTypeNetwork,
			wantRetryable: false,
		},
		{
			name:          "Cancelled wrapped in url.Error",
			err:           &url.Error{Op: "Post", URL: "http://x/liveconfig", Err: context.Canceled},
			wantType:      ErrTypeCancelled,
			wantRetryable: false,
			wantWrapped:   context.Canceled,
		},
		{
			name:          "Unknown transport error",
			err:           errors.New("wire fell out"),
			wantType:      ErrTypeNetwork,
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTransportError("request failed", tt.err)
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if got.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.wantRetryable)
			}
			wrapped := tt.wantWrapped
			if wrapped == nil {
				wrapped = tt.err
			}
			if !errors.Is(got, wrapped) {
				t.Error("classified error does not wrap the original")
			}
		})
	}
}

func TestHTTPErrorRetryability(t *testing.T) {
	if IsRetryable(NewHTTPError(500, "boom")) != true {
		t.Error("5xx should be retryable")
	}
	if IsRetryable(NewHTTPError(404, "gone")) != false {
		t.Error("4xx should not be retryable")
	}
	if IsRetryable(NewAuthError("denied")) != false {
		t.Error("auth errors should not be retryable")
	}
	if IsRetryable(fmt.Errorf("plain")) != false {
		t.Error("unknown errors should default to non-retryable")
	}
}
