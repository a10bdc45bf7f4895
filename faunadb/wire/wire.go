// Package wire renders query expressions as the JSON dialect the server
// evaluates.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/krew-solutions/faunadb-go/faunadb/query"
)

var (
	ErrUnsupportedValue = errors.New("unsupported value")
	ErrEmptyBatch       = errors.New("empty batch")
)

// Marshal serializes expr. Object literals are wrapped in an "object" form
// so the server does not mistake them for query forms.
func Marshal(expr query.Expr) ([]byte, error) {
	e := &encoder{}
	if err := e.expr(expr); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// MarshalBatch serializes exprs as a JSON array; the server answers with an
// array of results in the same order.
func MarshalBatch(exprs []query.Expr) ([]byte, error) {
	if len(exprs) == 0 {
		return nil, ErrEmptyBatch
	}
	e := &encoder{}
	e.buf.WriteByte('[')
	for i, expr := range exprs {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.expr(expr); err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	e.buf.WriteByte(']')
	return e.buf.Bytes(), nil
}

// MarshalValue serializes v in its literal form, with plain JSON objects.
func MarshalValue(v query.Value) ([]byte, error) {
	e := &encoder{}
	if err := e.literal(v); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) expr(expr query.Expr) error {
	if expr == nil {
		return malformed("missing expression")
	}
	return expr.Accept(e)
}

func (e *encoder) literal(v query.Value) error {
	return e.value(v, false)
}

// value writes v. Inside an expression (wrap) objects become "object" forms
// and nested values stay in expression position.
func (e *encoder) value(v query.Value, wrap bool) error {
	switch v := v.(type) {
	case nil:
		return malformed("missing value")
	case query.NullV:
		e.buf.WriteString("null")
	case query.BooleanV:
		e.buf.WriteString(strconv.FormatBool(bool(v)))
	case query.LongV:
		e.buf.WriteString(strconv.FormatInt(int64(v), 10))
	case query.DoubleV:
		return e.double(float64(v))
	case query.StringV:
		e.str(string(v))
	case query.RefV:
		e.buf.WriteString(`{"` + query.KeyRef + `":`)
		e.str(v.ID())
		e.buf.WriteByte('}')
	case query.TimestampV:
		e.buf.WriteString(`{"` + query.KeyTimestamp + `":`)
		e.str(v.Time().Format(time.RFC3339Nano))
		e.buf.WriteByte('}')
	case query.SetRefV:
		e.buf.WriteString(`{"` + query.KeySet + `":`)
		if err := e.value(v.Parameters(), false); err != nil {
			return err
		}
		e.buf.WriteByte('}')
	case query.ArrayV:
		e.buf.WriteByte('[')
		for i, item := range v.Items() {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.value(item, wrap); err != nil {
				return err
			}
		}
		e.buf.WriteByte(']')
	case query.ObjectV:
		if wrap {
			e.buf.WriteString(`{"` + string(query.OperatorObject) + `":`)
		}
		o := e.object()
		for _, f := range v.Fields() {
			o.key(f.Name)
			if err := e.value(f.Value, wrap); err != nil {
				return err
			}
		}
		o.close()
		if wrap {
			e.buf.WriteByte('}')
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return nil
}

// double always writes a fraction or an exponent so the number decodes as
// a double again.
func (e *encoder) double(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", ErrUnsupportedValue, f)
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if format == 'f' && !strings.Contains(s, ".") {
		s += ".0"
	}
	e.buf.WriteString(s)
	return nil
}

func (e *encoder) str(s string) {
	b, _ := json.Marshal(s)
	e.buf.Write(b)
}

type objectWriter struct {
	e *encoder
	n int
}

func (e *encoder) object() *objectWriter {
	e.buf.WriteByte('{')
	return &objectWriter{e: e}
}

func (o *objectWriter) key(name string) {
	if o.n > 0 {
		o.e.buf.WriteByte(',')
	}
	o.n++
	o.e.str(name)
	o.e.buf.WriteByte(':')
}

func (o *objectWriter) expr(name string, expr query.Expr) error {
	o.key(name)
	return o.e.expr(expr)
}

func (o *objectWriter) list(name string, exprs []query.Expr) error {
	o.key(name)
	return o.e.list(exprs)
}

func (o *objectWriter) close() {
	o.e.buf.WriteByte('}')
}

func (e *encoder) list(exprs []query.Expr) error {
	e.buf.WriteByte('[')
	for i, x := range exprs {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.expr(x); err != nil {
			return err
		}
	}
	e.buf.WriteByte(']')
	return nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", query.ErrMalformedExpression, fmt.Sprintf(format, args...))
}
