package query

// Field is one key of an ObjectV literal.
type Field struct {
	Name  string
	Value Value
}

func F(name string, value Value) Field {
	return Field{Name: name, Value: value}
}

// ObjectV is an ordered map of literal values. Keys are unique; setting an
// existing key replaces its value and keeps its original position.
type ObjectV struct {
	keys   []string
	values map[string]Value
}

func Obj(fields ...Field) ObjectV {
	o := ObjectV{values: make(map[string]Value, len(fields))}
	for _, f := range fields {
		o.set(f.Name, f.Value)
	}
	return o
}

func (o *ObjectV) set(key string, value Value) {
	if _, found := o.values[key]; !found {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o ObjectV) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o ObjectV) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

func (o ObjectV) Len() int {
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o ObjectV) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Range calls fn for each field in insertion order until fn returns false.
func (o ObjectV) Range(fn func(key string, value Value) bool) {
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}

// Fields returns the fields in insertion order.
func (o ObjectV) Fields() []Field {
	fields := make([]Field, 0, len(o.keys))
	for _, k := range o.keys {
		fields = append(fields, Field{Name: k, Value: o.values[k]})
	}
	return fields
}

// With returns a new object with key set to value.
func (o ObjectV) With(key string, value Value) ObjectV {
	n := ObjectV{
		keys:   append([]string(nil), o.keys...),
		values: make(map[string]Value, len(o.values)+1),
	}
	for k, v := range o.values {
		n.values[k] = v
	}
	n.set(key, value)
	return n
}

// Without returns a new object without key.
func (o ObjectV) Without(key string) ObjectV {
	n := ObjectV{values: make(map[string]Value, len(o.values))}
	for _, k := range o.keys {
		if k != key {
			n.set(k, o.values[k])
		}
	}
	return n
}

func (o ObjectV) Accept(visitor Visitor) error { return visitor.VisitValue(o) }
func (ObjectV) isValue()                        {}
