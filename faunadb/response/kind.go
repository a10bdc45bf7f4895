package response

import "github.com/krew-solutions/faunadb-go/faunadb/query"

// Kind is the shape a decoded value was classified as.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindLong
	KindDouble
	KindString
	KindArray
	KindObject
	KindTimestamp
	KindRef
	KindSet
	KindInstance
	KindPage
	KindEvent
	KindClass
	KindIndex
	KindDatabase
	KindKey
)

var kindNames = [...]string{
	KindNull:      "null",
	KindBoolean:   "boolean",
	KindLong:      "long",
	KindDouble:    "double",
	KindString:    "string",
	KindArray:     "array",
	KindObject:    "object",
	KindTimestamp: "timestamp",
	KindRef:       "ref",
	KindSet:       "set",
	KindInstance:  "instance",
	KindPage:      "page",
	KindEvent:     "event",
	KindClass:     "class",
	KindIndex:     "index",
	KindDatabase:  "database",
	KindKey:       "key",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

type shapeRule struct {
	kind  Kind
	match func(query.Value) bool
}

// shapeRules are tried in order; the first match wins. Shapes overlap at the
// JSON level, so the order is significant.
var shapeRules = []shapeRule{
	{KindRef, isRef},
	{KindInstance, isInstance},
	{KindPage, isPage},
	{KindEvent, isEvent},
	{KindSet, isSet},
}

func sniff(v query.Value) Kind {
	for _, rule := range shapeRules {
		if rule.match(v) {
			return rule.kind
		}
	}
	if kind, ok := descriptorKind(v); ok {
		return kind
	}
	return valueKind(v)
}

func isRef(v query.Value) bool {
	_, ok := v.(query.RefV)
	return ok
}

func isSet(v query.Value) bool {
	_, ok := v.(query.SetRefV)
	return ok
}

func isInstance(v query.Value) bool {
	obj, ok := v.(query.ObjectV)
	if !ok {
		return false
	}
	return hasType[query.RefV](obj, "ref") &&
		hasType[query.RefV](obj, "class") &&
		hasType[query.LongV](obj, "ts") &&
		hasType[query.ObjectV](obj, "data")
}

// isPage accepts a data array next to a before or after marker. Without
// markers the object must hold nothing but data: the only page of its set.
func isPage(v query.Value) bool {
	obj, ok := v.(query.ObjectV)
	if !ok || !hasType[query.ArrayV](obj, "data") {
		return false
	}
	return obj.Has(query.KeyBefore) || obj.Has(query.KeyAfter) || obj.Len() == 1
}

func isEvent(v query.Value) bool {
	obj, ok := v.(query.ObjectV)
	if !ok {
		return false
	}
	return hasType[query.StringV](obj, "action") &&
		hasType[query.LongV](obj, "ts") &&
		hasType[query.RefV](obj, "resource")
}

// descriptorKind recognises schema resources: a ref without data plus a
// name or a secret. The ref collection picks the kind.
func descriptorKind(v query.Value) (Kind, bool) {
	obj, ok := v.(query.ObjectV)
	if !ok || obj.Has("data") {
		return 0, false
	}
	ref, ok := field[query.RefV](obj, "ref")
	if !ok {
		return 0, false
	}
	hasName, hasSecret := obj.Has("name"), obj.Has("secret")
	if !hasName && !hasSecret {
		return 0, false
	}
	switch ref.Collection() {
	case "classes":
		return KindClass, hasName
	case "indexes":
		return KindIndex, hasName
	case "databases":
		return KindDatabase, hasName
	case "keys":
		return KindKey, true
	}
	if hasSecret {
		return KindKey, true
	}
	return 0, false
}

func valueKind(v query.Value) Kind {
	switch v.(type) {
	case query.BooleanV:
		return KindBoolean
	case query.LongV:
		return KindLong
	case query.DoubleV:
		return KindDouble
	case query.StringV:
		return KindString
	case query.ArrayV:
		return KindArray
	case query.ObjectV:
		return KindObject
	case query.TimestampV:
		return KindTimestamp
	case query.RefV:
		return KindRef
	case query.SetRefV:
		return KindSet
	}
	return KindNull
}

func field[T query.Value](obj query.ObjectV, key string) (T, bool) {
	v, _ := obj.Get(key)
	t, ok := v.(T)
	return t, ok
}

func hasType[T query.Value](obj query.ObjectV, key string) bool {
	_, ok := field[T](obj, key)
	return ok
}
