package faunatest

import (
	"fmt"
	"net/http"

	"github.com/krew-solutions/faunadb-go/faunadb/query"
)

// Error codes the server answers with.
const (
	CodeInvalidExpression = "invalid expression"
	CodeInvalidArgument   = "invalid argument"
	CodeInvalidRef        = "invalid ref"
	CodeInstanceNotFound  = "instance not found"
	CodeInstanceExists    = "instance already exists"
	CodeInstanceNotUnique = "instance not unique"
	CodeValueNotFound     = "value not found"
	CodeUnauthorized      = "unauthorized"
	CodeMethodNotAllowed  = "method not allowed"
	CodeBadRequest        = "bad request"
)

type queryError struct {
	status      int
	code        string
	description string
	position    []query.Value
}

func (e *queryError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.status, e.code, e.description)
}

func (e *queryError) envelope() query.ObjectV {
	entry := query.Obj(
		query.F("code", query.String(e.code)),
		query.F("description", query.String(e.description)),
	)
	if len(e.position) > 0 {
		entry = entry.With("position", query.Arr(e.position...))
	}
	return query.Obj(query.F("errors", query.Arr(entry)))
}

func newError(status int, code string, pos []query.Value, format string, args ...any) *queryError {
	return &queryError{
		status:      status,
		code:        code,
		description: fmt.Sprintf(format, args...),
		position:    pos,
	}
}

func invalidExpression(pos []query.Value, format string, args ...any) *queryError {
	return newError(http.StatusBadRequest, CodeInvalidExpression, pos, format, args...)
}

func invalidArgument(pos []query.Value, format string, args ...any) *queryError {
	return newError(http.StatusBadRequest, CodeInvalidArgument, pos, format, args...)
}

func invalidRef(pos []query.Value, ref query.RefV) *queryError {
	return newError(http.StatusBadRequest, CodeInvalidRef, pos, "ref %s does not exist", ref)
}

func notFound(pos []query.Value, ref query.RefV) *queryError {
	return newError(http.StatusNotFound, CodeInstanceNotFound, pos, "%s not found", ref)
}
