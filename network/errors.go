package network

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed compression request.
type ErrorKind int

const (
	// ServerRejected means the service answered with a non-2xx status.
	ServerRejected ErrorKind = iota + 1
	// Unreachable means the request went out but no response came back.
	Unreachable
	// RequestFailed means the request could not be built or sent.
	RequestFailed
)

// Messages used when the service gives nothing better.
const (
	MessageServerRejected = "failed to compress PDF"
	MessageUnreachable    = "could not connect to the server"
	MessageRequestFailed  = "failed to process the request"
)

func (k ErrorKind) String() string {
	switch k {
	case ServerRejected:
		return "server rejected"
	case Unreachable:
		return "unreachable"
	case RequestFailed:
		return "request failed"
	default:
		return "unknown"
	}
}

// Error is the single error type the client returns. Message is meant to be
// shown to the user as is.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detailed includes the kind, status and cause, for logs.
func (e *Error) Detailed() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		s = fmt.Sprintf("%s (HTTP %d)", s, e.StatusCode)
	}
	if e.Err != nil {
		s = fmt.Sprintf("%s: %s", s, e.Err)
	}
	return s
}

// KindOf returns the kind of a client error, or 0 if err did not come from the client.
func KindOf(err error) ErrorKind {
	var clientErr *Error
	if errors.As(err, &clientErr) {
		return clientErr.Kind
	}
	return 0
}

func serverRejected(statusCode int, detail string, cause error) *Error {
	if detail == "" {
		detail = MessageServerRejected
	}
	return &Error{Kind: ServerRejected, Message: detail, StatusCode: statusCode, Err: cause}
}

func unreachable(cause error) *Error {
	return &Error{Kind: Unreachable, Message: MessageUnreachable, Err: cause}
}

func requestFailed(cause error) *Error {
	return &Error{Kind: RequestFailed, Message: MessageRequestFailed, Err: cause}
}
