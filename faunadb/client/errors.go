package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/krew-solutions/faunadb-go/faunadb/query"
	"github.com/krew-solutions/faunadb-go/faunadb/response"
	"github.com/krew-solutions/faunadb-go/faunadb/wire"
)

var (
	// ErrEmptyBatch rejects a batch without expressions.
	ErrEmptyBatch = wire.ErrEmptyBatch

	// ErrPoolOverload rejects a query when every pool worker is busy.
	ErrPoolOverload = errors.New("query pool is saturated")
)

// TransportError means no response was received. The query may or may not
// have been applied.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return "transport failure: " + e.Cause.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// UnexpectedResponseError is a response that is neither a result nor an
// error envelope.
type UnexpectedResponseError struct {
	Status int
	Reason string
	Body   []byte
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response (status %d): %s", e.Status, e.Reason)
}

// QueryError is one entry of an error envelope.
type QueryError struct {
	Code        string
	Description string
	Position    []query.Value
}

func (e QueryError) String() string {
	if len(e.Position) == 0 {
		return e.Code + ": " + e.Description
	}
	steps := make([]string, 0, len(e.Position))
	for _, p := range e.Position {
		steps = append(steps, response.Wrap(p).String())
	}
	return fmt.Sprintf("%s: %s at [%s]", e.Code, e.Description, strings.Join(steps, ","))
}

// StatusError is implemented by every error decoded from an error envelope.
type StatusError interface {
	error
	Status() int
	Errors() []QueryError
}

type ServerError struct {
	name   string
	status int
	errors []QueryError
}

func (e *ServerError) Status() int {
	return e.status
}

func (e *ServerError) Errors() []QueryError {
	return append([]QueryError(nil), e.errors...)
}

func (e *ServerError) Error() string {
	parts := make([]string, 0, len(e.errors))
	for _, qe := range e.errors {
		parts = append(parts, qe.String())
	}
	return fmt.Sprintf("%s (%d): %s", e.name, e.status, strings.Join(parts, "; "))
}

type BadRequest struct{ ServerError }
type Unauthorized struct{ ServerError }
type PermissionDenied struct{ ServerError }
type NotFound struct{ ServerError }
type MethodNotAllowed struct{ ServerError }
type InternalError struct{ ServerError }
type Unavailable struct{ ServerError }
type UnknownError struct{ ServerError }

func newServerError(status int, errs []QueryError) StatusError {
	base := func(name string) ServerError {
		return ServerError{name: name, status: status, errors: errs}
	}
	switch status {
	case http.StatusBadRequest:
		return &BadRequest{base("bad request")}
	case http.StatusUnauthorized:
		return &Unauthorized{base("unauthorized")}
	case http.StatusForbidden:
		return &PermissionDenied{base("permission denied")}
	case http.StatusNotFound:
		return &NotFound{base("not found")}
	case http.StatusMethodNotAllowed:
		return &MethodNotAllowed{base("method not allowed")}
	case http.StatusInternalServerError:
		return &InternalError{base("internal error")}
	case http.StatusServiceUnavailable:
		return &Unavailable{base("unavailable")}
	}
	return &UnknownError{base("unknown error")}
}
