package faunatest

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/faunadb-go/faunadb/option"
	"github.com/krew-solutions/faunadb-go/faunadb/query"
	"github.com/krew-solutions/faunadb-go/faunadb/response"
)

func post(t *testing.T, url, secret, body string) (int, query.ObjectV) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	v, err := response.DecodeValue(raw)
	require.NoError(t, err)
	envelope, ok := v.(query.ObjectV)
	require.True(t, ok, string(raw))
	return resp.StatusCode, envelope
}

func errorCode(t *testing.T, envelope query.ObjectV) string {
	t.Helper()
	errs, ok := envelope.Get("errors")
	require.True(t, ok)
	first, ok := errs.(query.ArrayV).At(0).(query.ObjectV)
	require.True(t, ok)
	code, _ := first.Get("code")
	return string(code.(query.StringV))
}

func TestServerRejectsOtherMethods(t *testing.T) {
	_, ts := NewHTTPServer(t)
	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServerRequiresSecret(t *testing.T) {
	_, ts := NewHTTPServer(t, WithSecret("root"))

	status, envelope := post(t, ts.URL, "", `1`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, CodeUnauthorized, errorCode(t, envelope))

	status, envelope = post(t, ts.URL, "root", `1`)
	assert.Equal(t, http.StatusOK, status)
	resource, _ := envelope.Get("resource")
	assert.Equal(t, query.Long(1), resource)
}

func TestServerEvaluatesArraysElementWise(t *testing.T) {
	_, ts := NewHTTPServer(t)
	status, envelope := post(t, ts.URL, "", `[{"add":[1,2]},{"concat":["a","b"]},"plain"]`)
	require.Equal(t, http.StatusOK, status)
	resource, _ := envelope.Get("resource")
	assert.Equal(t, query.Arr(query.Long(3), query.String("ab"), query.String("plain")), resource)
}

func TestServerRollsBackFailedQuery(t *testing.T) {
	_, ts := NewHTTPServer(t)
	status, _ := post(t, ts.URL, "", `{"create":{"@ref":"classes"},"params":{"object":{"name":"spells"}}}`)
	require.Equal(t, http.StatusOK, status)

	status, envelope := post(t, ts.URL, "",
		`{"do":[{"create":{"@ref":"classes/spells/1"},"params":{"object":{}}},{"divide":[1,0]}]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeInvalidArgument, errorCode(t, envelope))

	_, envelope = post(t, ts.URL, "", `{"exists":{"@ref":"classes/spells/1"}}`)
	resource, _ := envelope.Get("resource")
	assert.Equal(t, query.Boolean(false), resource)
}

func TestServerReportsErrorPosition(t *testing.T) {
	_, ts := NewHTTPServer(t)
	status, envelope := post(t, ts.URL, "", `{"let":{"x":1},"in":{"add":[{"var":"x"},"two"]}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	errs, _ := envelope.Get("errors")
	first := errs.(query.ArrayV).At(0).(query.ObjectV)
	position, ok := first.Get("position")
	require.True(t, ok)
	assert.Equal(t, query.Arr(query.String("in"), query.String("add")), position)
}

func TestServerRejectsInvalidExpressions(t *testing.T) {
	_, ts := NewHTTPServer(t)
	for _, body := range []string{`{"nope":1}`, `{}`, `{"var":"unbound"}`, `{"lambda":"x","expr":1}`, `not json`} {
		t.Run(body, func(t *testing.T) {
			status, envelope := post(t, ts.URL, "", body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, errorCode(t, envelope))
		})
	}
}

func TestFailNextAffectsOneRequest(t *testing.T) {
	srv, ts := NewHTTPServer(t)
	srv.FailNext(http.StatusServiceUnavailable, "unavailable", "maintenance")

	status, envelope := post(t, ts.URL, "", `1`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unavailable", errorCode(t, envelope))

	status, _ = post(t, ts.URL, "", `1`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, srv.Requests())
}

func noCursor() option.Option[query.Cursor] {
	return option.Nothing[query.Cursor]()
}

func someCursor(c query.Cursor) option.Option[query.Cursor] {
	return option.Some(c)
}

func TestPageCursorsAreDisjoint(t *testing.T) {
	entries := make([]entry, 0, 5)
	for i := int64(1); i <= 5; i++ {
		ref := query.Ref("classes/spells/" + strconv.FormatInt(i, 10))
		entries = append(entries, entry{value: ref, marker: ref, key: i})
	}
	first := page(entries, noCursor(), 0, 2)
	assert.Equal(t, query.Obj(
		query.F("data", query.Arr(entries[0].value, entries[1].value)),
		query.F("after", entries[2].marker),
	), first)

	after := page(entries, someCursor(query.After(entries[2].marker)), 3, 2)
	assert.Equal(t, query.Obj(
		query.F("before", entries[2].marker),
		query.F("data", query.Arr(entries[2].value, entries[3].value)),
		query.F("after", entries[4].marker),
	), after)

	before := page(entries, someCursor(query.Before(entries[2].marker)), 3, 2)
	assert.Equal(t, first, before)

	past := page(entries, someCursor(query.After(query.Long(99))), 99, 2)
	assert.Equal(t, query.Obj(
		query.F("before", query.Long(99)),
		query.F("data", query.Arr()),
	), past)
}

func TestFixtures(t *testing.T) {
	assert.NotEqual(t, UniqueName("spells"), UniqueName("spells"))
	assert.True(t, strings.HasPrefix(UniqueName("spells"), "spells_"))
	assert.NotEmpty(t, RandomText())
	RequireJSON(t, `{ "a" : [1, 2] }`, []byte(`{"a":[1,2]}`))
}
