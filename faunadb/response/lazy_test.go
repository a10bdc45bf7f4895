package response

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/faunadb-go/faunadb/query"
)

func decode(t *testing.T, raw string) *LazyValue {
	t.Helper()
	v, err := Decode([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestSniffing(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Kind
	}{
		{"ref", `{"@ref": "classes/spells/1"}`, KindRef},
		{"instance", `{"class": {"@ref": "classes/spells"}, "ref": {"@ref": "classes/spells/1"}, "ts": 1, "data": {}}`, KindInstance},
		{"page with after", `{"data": [], "after": {"@ref": "classes/spells/2"}}`, KindPage},
		{"page with before", `{"before": [1], "data": [{"@ref": "classes/spells/1"}]}`, KindPage},
		{"single page", `{"data": [1, 2]}`, KindPage},
		{"page wins over ref key", `{"data": [], "after": 1, "@ref": "classes/spells/1"}`, KindPage},
		{"data object is not a page", `{"data": {}, "after": 1}`, KindObject},
		{"data with extra key is not a page", `{"data": [], "count": 1}`, KindObject},
		{"event", `{"resource": {"@ref": "classes/spells/1"}, "ts": 1, "action": "create"}`, KindEvent},
		{"set", `{"@set": {"match": "fire", "index": {"@ref": "indexes/spells_by_element"}}}`, KindSet},
		{"class", `{"ref": {"@ref": "classes/spells"}, "name": "spells", "ts": 1}`, KindClass},
		{"index", `{"ref": {"@ref": "indexes/by_element"}, "name": "by_element", "source": {"@ref": "classes/spells"}}`, KindIndex},
		{"database", `{"ref": {"@ref": "databases/test"}, "name": "test"}`, KindDatabase},
		{"key", `{"ref": {"@ref": "keys/1"}, "secret": "s3cr3t", "role": "server"}`, KindKey},
		{"secret decides unknown collection", `{"ref": {"@ref": "tokens/1"}, "secret": "s"}`, KindKey},
		{"resource with data is not a descriptor", `{"ref": {"@ref": "classes/spells"}, "name": "spells", "data": {}}`, KindObject},
		{"object", `{"name": "Hen Wen"}`, KindObject},
		{"array", `[1, "2"]`, KindArray},
		{"string", `"fire"`, KindString},
		{"long", `110`, KindLong},
		{"double", `3.4`, KindDouble},
		{"boolean", `true`, KindBoolean},
		{"null", `null`, KindNull},
		{"timestamp", `{"@ts": "2015-01-01T00:00:00Z"}`, KindTimestamp},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, decode(t, c.raw).Kind())
		})
	}
}

func TestNarrowingMismatch(t *testing.T) {
	v := decode(t, `{"data": [], "after": 1}`)

	_, err := v.AsInstance()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, KindInstance, mismatch.Want)
	assert.Equal(t, KindPage, mismatch.Got)

	_, err = v.AsObject()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestNumbersDoNotCoerce(t *testing.T) {
	_, err := decode(t, `10`).AsDouble()
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = decode(t, `10.0`).AsLong()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestAsInstance(t *testing.T) {
	v := decode(t, `{
		"ref": {"@ref": "classes/spells/101"},
		"class": {"@ref": "classes/spells"},
		"ts": 1432763268186882,
		"data": {"testField": "testValue", "cost": 10, "element": ["fire", "earth"]}
	}`)

	inst, err := v.AsInstance()
	require.NoError(t, err)
	assert.Equal(t, query.Ref("classes/spells/101"), inst.Ref)
	assert.Equal(t, query.Ref("classes/spells"), inst.Class)
	assert.Equal(t, int64(1432763268186882), inst.Ts)

	field, ok := inst.Get("testField")
	require.True(t, ok)
	s, err := field.AsString()
	require.NoError(t, err)
	assert.Equal(t, "testValue", s)

	element, ok := inst.Get("element")
	require.True(t, ok)
	items, err := element.AsArray()
	require.NoError(t, err)
	require.Len(t, items, 2)
	second, err := items[1].AsString()
	require.NoError(t, err)
	assert.Equal(t, "earth", second)

	_, ok = inst.Get("missing")
	assert.False(t, ok)
}

func TestAsPageAndContinuation(t *testing.T) {
	v := decode(t, `{
		"before": {"@ref": "classes/spells/2"},
		"data": [{"@ref": "classes/spells/2"}],
		"after": {"@ref": "classes/spells/3"}
	}`)

	page, err := v.AsPage()
	require.NoError(t, err)
	refs, err := page.Refs()
	require.NoError(t, err)
	assert.Equal(t, []query.RefV{query.Ref("classes/spells/2")}, refs)

	base := query.Paginate(query.Match(query.Ref("classes/spells"), query.Ref("indexes/by_class"))).WithSize(1)

	next, ok := page.NextQuery(base)
	require.True(t, ok)
	cursor := next.Cursor().Unwrap()
	assert.Equal(t, query.DirectionAfter, cursor.Direction())
	assert.Equal(t, query.Ref("classes/spells/3"), cursor.Value())
	assert.Equal(t, 1, next.Size().Unwrap())

	prev, ok := page.PreviousQuery(base)
	require.True(t, ok)
	assert.Equal(t, query.DirectionBefore, prev.Cursor().Unwrap().Direction())
}

func TestTerminalPage(t *testing.T) {
	page, err := decode(t, `{"data": [1]}`).AsPage()
	require.NoError(t, err)

	assert.True(t, page.Before.IsNothing())
	assert.True(t, page.After.IsNothing())

	base := query.Paginate(query.Ref("classes/spells"))
	_, ok := page.NextQuery(base)
	assert.False(t, ok)
	_, ok = page.PreviousQuery(base)
	assert.False(t, ok)

	_, err = page.Refs()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestAsSet(t *testing.T) {
	set, err := decode(t, `{"@set": {"match": "arcane", "index": {"@ref": "indexes/spells_by_element"}}}`).AsSet()
	require.NoError(t, err)

	match, ok := set.Parameters.Get("match")
	require.True(t, ok)
	assert.Equal(t, query.String("arcane"), match)
	index, ok := set.Parameters.Get("index")
	require.True(t, ok)
	assert.Equal(t, query.Ref("indexes/spells_by_element"), index)
}

func TestAsEvent(t *testing.T) {
	event, err := decode(t, `{"ts": 7, "action": "create", "resource": {"@ref": "classes/spells/1"}}`).AsEvent()
	require.NoError(t, err)
	assert.Equal(t, Event{Action: "create", Ts: 7, Resource: query.Ref("classes/spells/1")}, event)
}

func TestDescriptors(t *testing.T) {
	class, err := decode(t, `{"ref": {"@ref": "classes/spells"}, "name": "spells", "ts": 3}`).AsClass()
	require.NoError(t, err)
	assert.Equal(t, "spells", class.Name)
	assert.Equal(t, int64(3), class.Ts.Unwrap())

	index, err := decode(t, `{"ref": {"@ref": "indexes/i"}, "name": "i", "source": {"@ref": "classes/spells"}, "path": "data.element", "unique": true}`).AsIndex()
	require.NoError(t, err)
	assert.Equal(t, query.Ref("classes/spells"), index.Source.Unwrap())
	assert.Equal(t, "data.element", index.Path.Unwrap())
	assert.True(t, index.Unique)

	db, err := decode(t, `{"ref": {"@ref": "databases/prod"}, "name": "prod"}`).AsDatabase()
	require.NoError(t, err)
	assert.Equal(t, query.Ref("databases/prod"), db.Ref)

	key, err := decode(t, `{"ref": {"@ref": "keys/9"}, "database": {"@ref": "databases/prod"}, "role": "server", "secret": "abc"}`).AsKey()
	require.NoError(t, err)
	assert.Equal(t, "abc", key.Secret.Unwrap())
	assert.Equal(t, "server", key.Role.Unwrap())
	assert.Equal(t, query.Ref("databases/prod"), key.Database.Unwrap())
}

func TestPrimitiveNarrowing(t *testing.T) {
	b, err := decode(t, `true`).AsBoolean()
	require.NoError(t, err)
	assert.True(t, b)

	n, err := decode(t, `1234`).AsLong()
	require.NoError(t, err)
	assert.Equal(t, int64(1234), n)

	f, err := decode(t, `1.234`).AsDouble()
	require.NoError(t, err)
	assert.Equal(t, 1.234, f)

	ts, err := decode(t, `{"@ts": "1970-01-01T00:00:00.000000001Z"}`).AsTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1), ts.UnixNano())

	assert.True(t, decode(t, `null`).IsNull())
	assert.False(t, decode(t, `0`).IsNull())
}

func TestFind(t *testing.T) {
	v := decode(t, `{"favorites": {"foods": ["crunchings", "munchings"], "weight": 10.0}}`)

	found, err := v.Find("$.favorites.foods[1]")
	require.NoError(t, err)
	require.Len(t, found, 1)
	s, err := found[0].AsString()
	require.NoError(t, err)
	assert.Equal(t, "munchings", s)

	found, err = v.Find("$.favorites.weight")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, KindDouble, found[0].Kind())

	found, err = Wrap(query.Arr(query.Ref("classes/spells/1"))).Find("$[0]")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, KindRef, found[0].Kind())

	_, err = v.Find("$[")
	assert.Error(t, err)
}
