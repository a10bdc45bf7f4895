package response

import (
	"github.com/krew-solutions/faunadb-go/faunadb/option"
	"github.com/krew-solutions/faunadb-go/faunadb/query"
)

// Instance is one stored record.
type Instance struct {
	Ref   query.RefV
	Class query.RefV
	Ts    int64
	Data  query.ObjectV
}

// Get returns a data field.
func (i Instance) Get(field string) (*LazyValue, bool) {
	v, ok := i.Data.Get(field)
	if !ok {
		return nil, false
	}
	return Wrap(v), true
}

// Page is one slice of a set. A missing Before means the first page, a
// missing After the last.
type Page struct {
	Data   []*LazyValue
	Before option.Option[query.Cursor]
	After  option.Option[query.Cursor]
}

// NextQuery continues base after this page. It returns false on the last page.
func (p Page) NextQuery(base query.PaginateNode) (query.PaginateNode, bool) {
	return continueWith(base, p.After)
}

// PreviousQuery continues base before this page. It returns false on the first page.
func (p Page) PreviousQuery(base query.PaginateNode) (query.PaginateNode, bool) {
	return continueWith(base, p.Before)
}

func continueWith(base query.PaginateNode, cursor option.Option[query.Cursor]) (query.PaginateNode, bool) {
	c, ok := cursor.Get()
	if !ok {
		return base, false
	}
	return base.WithCursor(c), true
}

// Refs narrows every item of the page to a reference.
func (p Page) Refs() ([]query.RefV, error) {
	refs := make([]query.RefV, 0, len(p.Data))
	for _, item := range p.Data {
		ref, err := item.AsRef()
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

type Set struct {
	Parameters query.ObjectV
}

// Event is one entry of a set's history.
type Event struct {
	Action   string
	Ts       int64
	Resource query.RefV
}

type Class struct {
	Ref    query.RefV
	Name   string
	Ts     option.Option[int64]
	Fields query.ObjectV
}

type Index struct {
	Ref    query.RefV
	Name   string
	Source option.Option[query.RefV]
	Path   option.Option[string]
	Unique bool
	Ts     option.Option[int64]
	Fields query.ObjectV
}

type Database struct {
	Ref    query.RefV
	Name   string
	Ts     option.Option[int64]
	Fields query.ObjectV
}

// Key is an access key. Secret is only present in the response to the
// key's creation.
type Key struct {
	Ref      query.RefV
	Database option.Option[query.RefV]
	Role     option.Option[string]
	Secret   option.Option[string]
	Ts       option.Option[int64]
	Fields   query.ObjectV
}

func optional[T query.Value](obj query.ObjectV, key string) option.Option[T] {
	if v, ok := field[T](obj, key); ok {
		return option.Some(v)
	}
	return option.Nothing[T]()
}

func optionalString(obj query.ObjectV, key string) option.Option[string] {
	return option.Map(optional[query.StringV](obj, key), func(s query.StringV) string { return string(s) })
}

func optionalLong(obj query.ObjectV, key string) option.Option[int64] {
	return option.Map(optional[query.LongV](obj, key), func(n query.LongV) int64 { return int64(n) })
}

func stringField(obj query.ObjectV, key string) string {
	return optionalString(obj, key).UnwrapOr("")
}
