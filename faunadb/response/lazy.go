package response

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/theory/jsonpath"

	"github.com/krew-solutions/faunadb-go/faunadb/option"
	"github.com/krew-solutions/faunadb-go/faunadb/query"
	"github.com/krew-solutions/faunadb-go/faunadb/wire"
)

// LazyValue is a decoded value whose kind was fixed when it was decoded.
// The As methods narrow it to that kind and fail for any other.
type LazyValue struct {
	value query.Value
	kind  Kind
	raw   []byte
}

// Wrap classifies an already decoded value.
func Wrap(v query.Value) *LazyValue {
	if v == nil {
		v = query.Null()
	}
	return &LazyValue{value: v, kind: sniff(v)}
}

func (l *LazyValue) Kind() Kind {
	return l.kind
}

// Value returns the structural value regardless of kind.
func (l *LazyValue) Value() query.Value {
	return l.value
}

func (l *LazyValue) String() string {
	b, err := wire.MarshalValue(l.value)
	if err != nil {
		return l.kind.String()
	}
	return string(b)
}

func (l *LazyValue) expect(kind Kind) error {
	if l.kind != kind {
		return &TypeMismatchError{Want: kind, Got: l.kind}
	}
	return nil
}

func (l *LazyValue) object() query.ObjectV {
	obj, _ := l.value.(query.ObjectV)
	return obj
}

func (l *LazyValue) IsNull() bool {
	return l.kind == KindNull
}

func (l *LazyValue) AsBoolean() (bool, error) {
	if err := l.expect(KindBoolean); err != nil {
		return false, err
	}
	return bool(l.value.(query.BooleanV)), nil
}

func (l *LazyValue) AsString() (string, error) {
	if err := l.expect(KindString); err != nil {
		return "", err
	}
	return string(l.value.(query.StringV)), nil
}

// AsLong does not accept doubles, even integral ones.
func (l *LazyValue) AsLong() (int64, error) {
	if err := l.expect(KindLong); err != nil {
		return 0, err
	}
	return int64(l.value.(query.LongV)), nil
}

func (l *LazyValue) AsDouble() (float64, error) {
	if err := l.expect(KindDouble); err != nil {
		return 0, err
	}
	return float64(l.value.(query.DoubleV)), nil
}

func (l *LazyValue) AsTimestamp() (time.Time, error) {
	if err := l.expect(KindTimestamp); err != nil {
		return time.Time{}, err
	}
	return l.value.(query.TimestampV).Time(), nil
}

// AsArray returns the elements, each classified on its own.
func (l *LazyValue) AsArray() ([]*LazyValue, error) {
	if err := l.expect(KindArray); err != nil {
		return nil, err
	}
	return wrapAll(l.value.(query.ArrayV).Items()), nil
}

func (l *LazyValue) AsObject() (query.ObjectV, error) {
	if err := l.expect(KindObject); err != nil {
		return query.ObjectV{}, err
	}
	return l.object(), nil
}

// Field returns a key of an object-shaped value of any kind.
func (l *LazyValue) Field(name string) (*LazyValue, bool) {
	v, ok := l.object().Get(name)
	if !ok {
		return nil, false
	}
	return Wrap(v), true
}

func (l *LazyValue) AsRef() (query.RefV, error) {
	if err := l.expect(KindRef); err != nil {
		return query.RefV{}, err
	}
	return l.value.(query.RefV), nil
}

func (l *LazyValue) AsSet() (Set, error) {
	if err := l.expect(KindSet); err != nil {
		return Set{}, err
	}
	return Set{Parameters: l.value.(query.SetRefV).Parameters()}, nil
}

func (l *LazyValue) AsInstance() (Instance, error) {
	if err := l.expect(KindInstance); err != nil {
		return Instance{}, err
	}
	obj := l.object()
	ref, _ := field[query.RefV](obj, "ref")
	class, _ := field[query.RefV](obj, "class")
	ts, _ := field[query.LongV](obj, "ts")
	data, _ := field[query.ObjectV](obj, "data")
	return Instance{Ref: ref, Class: class, Ts: int64(ts), Data: data}, nil
}

func (l *LazyValue) AsPage() (Page, error) {
	if err := l.expect(KindPage); err != nil {
		return Page{}, err
	}
	obj := l.object()
	data, _ := field[query.ArrayV](obj, "data")
	page := Page{Data: wrapAll(data.Items())}
	if v, ok := obj.Get(query.KeyBefore); ok {
		page.Before = option.Some(query.Before(v))
	}
	if v, ok := obj.Get(query.KeyAfter); ok {
		page.After = option.Some(query.After(v))
	}
	return page, nil
}

func (l *LazyValue) AsEvent() (Event, error) {
	if err := l.expect(KindEvent); err != nil {
		return Event{}, err
	}
	obj := l.object()
	action, _ := field[query.StringV](obj, "action")
	ts, _ := field[query.LongV](obj, "ts")
	resource, _ := field[query.RefV](obj, "resource")
	return Event{Action: string(action), Ts: int64(ts), Resource: resource}, nil
}

func (l *LazyValue) AsClass() (Class, error) {
	if err := l.expect(KindClass); err != nil {
		return Class{}, err
	}
	obj := l.object()
	ref, _ := field[query.RefV](obj, "ref")
	return Class{
		Ref:    ref,
		Name:   stringField(obj, "name"),
		Ts:     optionalLong(obj, "ts"),
		Fields: obj,
	}, nil
}

func (l *LazyValue) AsIndex() (Index, error) {
	if err := l.expect(KindIndex); err != nil {
		return Index{}, err
	}
	obj := l.object()
	ref, _ := field[query.RefV](obj, "ref")
	unique, _ := field[query.BooleanV](obj, "unique")
	return Index{
		Ref:    ref,
		Name:   stringField(obj, "name"),
		Source: optional[query.RefV](obj, "source"),
		Path:   optionalString(obj, "path"),
		Unique: bool(unique),
		Ts:     optionalLong(obj, "ts"),
		Fields: obj,
	}, nil
}

func (l *LazyValue) AsDatabase() (Database, error) {
	if err := l.expect(KindDatabase); err != nil {
		return Database{}, err
	}
	obj := l.object()
	ref, _ := field[query.RefV](obj, "ref")
	return Database{
		Ref:    ref,
		Name:   stringField(obj, "name"),
		Ts:     optionalLong(obj, "ts"),
		Fields: obj,
	}, nil
}

func (l *LazyValue) AsKey() (Key, error) {
	if err := l.expect(KindKey); err != nil {
		return Key{}, err
	}
	obj := l.object()
	ref, _ := field[query.RefV](obj, "ref")
	return Key{
		Ref:      ref,
		Database: optional[query.RefV](obj, "database"),
		Role:     optionalString(obj, "role"),
		Secret:   optionalString(obj, "secret"),
		Ts:       optionalLong(obj, "ts"),
		Fields:   obj,
	}, nil
}

// Find evaluates a JSONPath expression against the value. Objects in the
// results have their keys in sorted order.
func (l *LazyValue) Find(expr string) ([]*LazyValue, error) {
	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid JSONPath %s", expr)
	}
	raw := l.raw
	if raw == nil {
		if raw, err = wire.MarshalValue(l.value); err != nil {
			return nil, err
		}
	}
	var data any
	if err := unmarshalNumbers(raw, &data); err != nil {
		return nil, errors.Wrap(err, "parse json for JSONPath")
	}
	nodes := path.Select(data)
	found := make([]*LazyValue, 0, len(nodes))
	for _, node := range nodes {
		b, err := json.Marshal(node)
		if err != nil {
			return nil, err
		}
		v, err := Decode(b)
		if err != nil {
			return nil, err
		}
		found = append(found, v)
	}
	return found, nil
}

func wrapAll(values []query.Value) []*LazyValue {
	wrapped := make([]*LazyValue, 0, len(values))
	for _, v := range values {
		wrapped = append(wrapped, Wrap(v))
	}
	return wrapped
}
