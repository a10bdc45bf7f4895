package query

import (
	"strings"
	"time"
)

// Value is a JSON-representable literal. The set of variants is closed:
// NullV, BooleanV, LongV, DoubleV, StringV, ArrayV, ObjectV, RefV, SetRefV
// and TimestampV. Every Value is also an Expr.
type Value interface {
	Expr
	isValue()
}

type NullV struct{}

func Null() NullV {
	return NullV{}
}

func (v NullV) Accept(visitor Visitor) error { return visitor.VisitValue(v) }
func (NullV) isValue()                        {}

type BooleanV bool

func Boolean(b bool) BooleanV {
	return BooleanV(b)
}

func (v BooleanV) Accept(visitor Visitor) error { return visitor.VisitValue(v) }
func (BooleanV) isValue()                        {}

// LongV is an integral number. It never compares equal to a DoubleV.
type LongV int64

func Long(n int64) LongV {
	return LongV(n)
}

func (v LongV) Accept(visitor Visitor) error { return visitor.VisitValue(v) }
func (LongV) isValue()                        {}

// DoubleV is a floating-point number, kept distinct from LongV on the wire.
type DoubleV float64

func Double(f float64) DoubleV {
	return DoubleV(f)
}

func (v DoubleV) Accept(visitor Visitor) error { return visitor.VisitValue(v) }
func (DoubleV) isValue()                        {}

type StringV string

func String(s string) StringV {
	return StringV(s)
}

func (v StringV) Accept(visitor Visitor) error { return visitor.VisitValue(v) }
func (StringV) isValue()                        {}

// RefV names a stored resource, e.g. "classes/spells/101".
type RefV struct {
	id string
}

func Ref(id string) RefV {
	return RefV{id: id}
}

func (v RefV) ID() string {
	return v.id
}

// Collection returns the first path segment: "classes", "indexes", "databases" or "keys".
func (v RefV) Collection() string {
	collection, _, _ := strings.Cut(v.id, "/")
	return collection
}

// Parent drops the last path segment, so an instance ref yields its class ref.
func (v RefV) Parent() RefV {
	i := strings.LastIndexByte(v.id, '/')
	if i < 0 {
		return RefV{}
	}
	return RefV{id: v.id[:i]}
}

func (v RefV) String() string {
	return v.id
}

func (v RefV) Accept(visitor Visitor) error { return visitor.VisitValue(v) }
func (RefV) isValue()                        {}

// SetRefV is an opaque, server-interpreted set descriptor.
type SetRefV struct {
	params ObjectV
}

func NewSetRef(params ObjectV) SetRefV {
	return SetRefV{params: params}
}

func (v SetRefV) Parameters() ObjectV {
	return v.params
}

func (v SetRefV) Accept(visitor Visitor) error { return visitor.VisitValue(v) }
func (SetRefV) isValue()                        {}

type TimestampV struct {
	t time.Time
}

// Timestamp normalises t to UTC and drops the monotonic clock reading.
func Timestamp(t time.Time) TimestampV {
	return TimestampV{t: t.UTC().Round(0)}
}

func (v TimestampV) Time() time.Time {
	return v.t
}

func (v TimestampV) Accept(visitor Visitor) error { return visitor.VisitValue(v) }
func (TimestampV) isValue()                        {}

type ArrayV struct {
	items []Value
}

func Arr(items ...Value) ArrayV {
	return ArrayV{items: append([]Value(nil), items...)}
}

func (v ArrayV) Len() int {
	return len(v.items)
}

func (v ArrayV) At(i int) Value {
	return v.items[i]
}

// Items returns a copy of the elements.
func (v ArrayV) Items() []Value {
	return append([]Value(nil), v.items...)
}

func (v ArrayV) Accept(visitor Visitor) error { return visitor.VisitValue(v) }
func (ArrayV) isValue()                        {}
