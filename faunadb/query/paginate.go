package query

import "github.com/krew-solutions/faunadb-go/faunadb/option"

// Paginate reads one page of resource, which is usually a set. Unset
// options are omitted from the request and the server defaults apply.
func Paginate(resource Expr) PaginateNode {
	return PaginateNode{resource: resource}
}

type PaginateNode struct {
	resource Expr
	ts       option.Option[int64]
	cursor   option.Option[Cursor]
	size     option.Option[int]
	events   option.Option[bool]
}

func (n PaginateNode) Resource() Expr {
	return n.resource
}

func (n PaginateNode) Ts() option.Option[int64] {
	return n.ts
}

func (n PaginateNode) Cursor() option.Option[Cursor] {
	return n.cursor
}

func (n PaginateNode) Size() option.Option[int] {
	return n.size
}

func (n PaginateNode) Events() option.Option[bool] {
	return n.events
}

func (n PaginateNode) WithTs(ts int64) PaginateNode {
	n.ts = option.Some(ts)
	return n
}

// WithCursor replaces any previous cursor; a page has at most one.
func (n PaginateNode) WithCursor(c Cursor) PaginateNode {
	n.cursor = option.Some(c)
	return n
}

func (n PaginateNode) WithoutCursor() PaginateNode {
	n.cursor = option.Nothing[Cursor]()
	return n
}

func (n PaginateNode) WithSize(size int) PaginateNode {
	n.size = option.Some(size)
	return n
}

// WithEvents asks for the change history of the set instead of its members.
func (n PaginateNode) WithEvents(events bool) PaginateNode {
	n.events = option.Some(events)
	return n
}

func (n PaginateNode) Accept(v Visitor) error {
	return v.VisitPaginate(n)
}
