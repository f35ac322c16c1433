package core

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrConversationNotFound is matched by every *ConversationNotFoundError.
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationNotFoundError is returned when an append targets a user
// that has no conversation yet.
type ConversationNotFoundError struct {
	Username string
}

func (e *ConversationNotFoundError) Error() string {
	return fmt.Sprintf("no conversation found for user %s", e.Username)
}

func (e *ConversationNotFoundError) Is(target error) bool {
	return target == ErrConversationNotFound
}

// AnsweringErrorPrefix starts the message of every answering failure.
const AnsweringErrorPrefix = "Error while answering question: "

// AnsweringError wraps any failure of the answering pipeline.
type AnsweringError struct {
	Err       error
	Transient bool
}

// NewAnsweringError wraps err and records whether it looks transient.
func NewAnsweringError(err error) *AnsweringError {
	return &AnsweringError{Err: err, Transient: IsTransient(err)}
}

func (e *AnsweringError) Error() string {
	return AnsweringErrorPrefix + e.Err.Error()
}

func (e *AnsweringError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a timeout or connection failure
// that a caller could reasonably retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
			return true
		}
	}
	return false
}
