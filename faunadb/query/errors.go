package query

import "errors"

// ErrMalformedExpression reports a query node whose local shape is invalid.
// Such a node is never serialized.
var ErrMalformedExpression = errors.New("malformed expression")
