package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestUpstreamError_Unwrap(t *testing.T) {
	err := &UpstreamError{Service: "hypixel", Status: 404, Cause: "player not found", Err: ErrNotFound}
	wrapped := fmt.Errorf("fetching player: %w", err)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("errors.Is(wrapped, ErrNotFound) = false, want true")
	}
	if IsUpstream(wrapped) {
		t.Error("IsUpstream() = true for a NotFound, want false")
	}
	if got := Cause(wrapped); got != "player not found" {
		t.Errorf("Cause() = %q, want %q", got, "player not found")
	}
}

func TestUpstreamError_Timeout(t *testing.T) {
	err := &UpstreamError{Service: "mojang", Status: StatusTimeout, Cause: "timed out", Timeout: true, Err: context.DeadlineExceeded}
	if !IsUpstream(err) {
		t.Error("IsUpstream() = false, want true")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("errors.Is(err, context.DeadlineExceeded) = false, want true")
	}
}

func TestInvalid(t *testing.T) {
	err := Invalid("page must be >= 1, got %d", 0)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Invalid() = %v, want ErrInvalidArgument", err)
	}
	if got := Cause(err); got != "statsmith: invalid argument: page must be >= 1, got 0" {
		t.Errorf("Cause() = %q", got)
	}
}

func TestCause_Nil(t *testing.T) {
	if got := Cause(nil); got != "" {
		t.Errorf("Cause(nil) = %q, want empty", got)
	}
}
