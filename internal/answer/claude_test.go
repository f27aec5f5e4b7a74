package answer

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	retryable := &CollaboratorError{Kind: "rate_limited", Message: "slow down", Retryable: true}
	if !IsRetryable(retryable) {
		t.Error("expected rate_limited to be retryable")
	}

	authErr := &CollaboratorError{Kind: "invalid_key", Message: "bad key", Retryable: false}
	if IsRetryable(authErr) {
		t.Error("expected invalid_key to never be retryable")
	}

	if IsRetryable(errors.New("plain error")) {
		t.Error("expected non-collaborator errors to not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("expected nil to not be retryable")
	}

	// Wrapped collaborator errors are still recognized.
	wrapped := fmt.Errorf("generate answer: %w", retryable)
	if !IsRetryable(wrapped) {
		t.Error("expected wrapped retryable error to be recognized")
	}
}

func TestCollaboratorError_Message(t *testing.T) {
	err := &CollaboratorError{Kind: "timeout", Message: "deadline exceeded"}
	want := "collaborator error (timeout): deadline exceeded"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unmodified string, got %q", got)
	}
	got := truncate("a long response body with details", 6)
	if len(got) <= 6 {
		// truncate appends an ellipsis marker past the cut.
		t.Errorf("expected marker after cut, got %q", got)
	}
	if got[:6] != "a long" {
		t.Errorf("expected prefix preserved, got %q", got)
	}
}
