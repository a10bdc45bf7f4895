package faunatest

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/sergi/go-diff/diffmatchpatch"
	"syreclabs.com/go/faker"
)

// UniqueName returns a class or index name no other test will pick.
func UniqueName(prefix string) string {
	return prefix + "_" + strings.ToLower(ulid.Make().String())
}

// RandomText returns a short random string for fixture data.
func RandomText() string {
	return faker.Lorem().Word() + "-" + faker.RandomString(8)
}

// RequireJSON fails the test unless actual is byte-for-byte the compact
// form of expected. Key order matters.
func RequireJSON(t testing.TB, expected string, actual []byte) {
	t.Helper()
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(expected)); err != nil {
		t.Fatalf("expected JSON is invalid: %v", err)
	}
	want, got := compact.String(), string(actual)
	if want == got {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, false)
	t.Fatalf("JSON mismatch:\n want: %s\n  got: %s\n diff: %s", want, got, dmp.DiffPrettyText(diffs))
}
