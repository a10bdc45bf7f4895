package faunatest

import (
	"sort"

	"github.com/krew-solutions/faunadb-go/faunadb/option"
	"github.com/krew-solutions/faunadb-go/faunadb/query"
)

func (e *evaluator) match(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	term, err := e.arg(sc, obj, string(query.OperatorMatch), pos)
	if err != nil {
		return nil, err
	}
	index, err := argAs[query.RefV](e, sc, obj, query.KeyIndex, pos)
	if err != nil {
		return nil, err
	}
	if _, ok := e.st.get(index); !ok || index.Parent().ID() != collectionIndexes {
		return nil, invalidRef(at(pos, query.String(query.KeyIndex)), index)
	}
	return query.NewSetRef(query.Obj(
		query.F(string(query.OperatorMatch), term),
		query.F(query.KeyIndex, index),
	)), nil
}

func (e *evaluator) setAlgebra(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	op := obj.Keys()[0]
	operands, err := e.operands(sc, obj, pos)
	if err != nil {
		return nil, err
	}
	for _, v := range operands {
		if _, ok := v.(query.SetRefV); !ok {
			return nil, invalidArgument(at(pos, query.String(op)), "%s of %s", op, describe(v))
		}
	}
	return query.NewSetRef(query.Obj(query.F(op, query.Arr(operands...)))), nil
}

// predicate turns set parameters back into a membership test.
func (e *evaluator) predicate(set query.SetRefV, pos []query.Value) (setPredicate, error) {
	params := set.Parameters()
	if index, ok := params.Get(query.KeyIndex); ok {
		indexRef, _ := index.(query.RefV)
		def, found := e.st.get(indexRef)
		if !found {
			return nil, invalidRef(pos, indexRef)
		}
		term, _ := params.Get(string(query.OperatorMatch))
		source, _ := def.Get("source")
		path, _ := def.Get("path")
		pathStr, _ := path.(query.StringV)
		return func(ref query.RefV, doc query.ObjectV) bool {
			return ref.Parent() == source && containsTerm(terms(doc, string(pathStr)), term)
		}, nil
	}
	for _, op := range []query.Operator{query.OperatorUnion, query.OperatorIntersection, query.OperatorDifference} {
		v, ok := params.Get(string(op))
		if !ok {
			continue
		}
		arr, _ := v.(query.ArrayV)
		preds := make([]setPredicate, 0, arr.Len())
		for _, item := range arr.Items() {
			inner, ok := item.(query.SetRefV)
			if !ok {
				return nil, invalidArgument(pos, "%s of %s", op, describe(item))
			}
			p, err := e.predicate(inner, pos)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
		return combine(op, preds), nil
	}
	return nil, invalidArgument(pos, "unknown set %s", describe(set))
}

func combine(op query.Operator, preds []setPredicate) setPredicate {
	return func(ref query.RefV, doc query.ObjectV) bool {
		switch op {
		case query.OperatorUnion:
			for _, p := range preds {
				if p(ref, doc) {
					return true
				}
			}
			return false
		case query.OperatorIntersection:
			for _, p := range preds {
				if !p(ref, doc) {
					return false
				}
			}
			return len(preds) > 0
		default:
			if len(preds) == 0 || !preds[0](ref, doc) {
				return false
			}
			for _, p := range preds[1:] {
				if p(ref, doc) {
					return false
				}
			}
			return true
		}
	}
}

type entry struct {
	value  query.Value
	marker query.Value
	key    int64
}

func (e *evaluator) paginate(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	resource, err := e.arg(sc, obj, string(query.OperatorPaginate), pos)
	if err != nil {
		return nil, err
	}
	set, ok := resource.(query.SetRefV)
	if !ok {
		return nil, invalidArgument(at(pos, query.String(string(query.OperatorPaginate))), "cannot paginate %s", describe(resource))
	}
	ts, err := optionalLong(obj, query.KeyTs, pos)
	if err != nil {
		return nil, err
	}
	size, err := optionalLong(obj, query.KeySize, pos)
	if err != nil {
		return nil, err
	}
	if n := size.UnwrapOr(defaultPageSize); n <= 0 {
		return nil, invalidArgument(at(pos, query.String(query.KeySize)), "size must be positive")
	}
	events := false
	if v, ok := obj.Get(query.KeyEvents); ok {
		b, isBool := v.(query.BooleanV)
		if !isBool {
			return nil, invalidArgument(at(pos, query.String(query.KeyEvents)), "events must be a boolean")
		}
		events = bool(b)
	}
	pred, err := e.predicate(set, at(pos, query.String(string(query.OperatorPaginate))))
	if err != nil {
		return nil, err
	}

	var entries []entry
	if events {
		for _, ev := range e.st.history(pred, ts) {
			entries = append(entries, entry{
				value: query.Obj(
					query.F("ts", query.Long(ev.ts)),
					query.F("action", query.String(ev.action)),
					query.F("resource", ev.ref),
				),
				marker: query.Long(ev.ts),
				key:    ev.ts,
			})
		}
	} else {
		for _, ref := range e.st.members(pred, ts) {
			entries = append(entries, entry{value: ref, marker: ref, key: e.st.seq[ref.ID()]})
		}
	}

	cursor := option.Nothing[query.Cursor]()
	for _, dir := range []query.Direction{query.DirectionBefore, query.DirectionAfter} {
		v, ok := obj.Get(dir.String())
		if !ok {
			continue
		}
		cv, err := e.eval(sc, v, at(pos, query.String(dir.String())))
		if err != nil {
			return nil, err
		}
		if dir == query.DirectionBefore {
			cursor = option.Some(query.Before(cv))
		} else {
			cursor = option.Some(query.After(cv))
		}
	}
	var cursorKey int64
	if c, ok := cursor.Get(); ok {
		key, valid := e.cursorKey(c.Value(), events)
		if !valid {
			return nil, invalidArgument(at(pos, query.String(c.Direction().String())), "invalid cursor %s", describe(c.Value()))
		}
		cursorKey = key
	}
	return page(entries, cursor, cursorKey, int(size.UnwrapOr(defaultPageSize))), nil
}

func (e *evaluator) cursorKey(v query.Value, events bool) (int64, bool) {
	switch v := v.(type) {
	case query.RefV:
		if events {
			return 0, false
		}
		key, ok := e.st.seq[v.ID()]
		return key, ok
	case query.LongV:
		return int64(v), events
	}
	return 0, false
}

// page cuts one page out of entries. An after cursor includes its own
// entry, a before cursor ends just ahead of it. Markers name the first
// entry of the neighbouring page in each direction.
func page(entries []entry, cursor option.Option[query.Cursor], key int64, size int) query.ObjectV {
	pivot := sort.Search(len(entries), func(i int) bool { return entries[i].key >= key })
	start, end := 0, size
	if c, ok := cursor.Get(); ok {
		if c.Direction() == query.DirectionAfter {
			start, end = pivot, pivot+size
		} else {
			start, end = pivot-size, pivot
		}
	}
	start = max(start, 0)
	end = min(end, len(entries))

	data := make([]query.Value, 0, max(end-start, 0))
	for _, en := range entries[start:max(end, start)] {
		data = append(data, en.value)
	}
	result := query.Obj()
	switch {
	case start >= len(entries) && start > 0:
		result = result.With(query.KeyBefore, cursor.Unwrap().Value())
	case start > 0:
		result = result.With(query.KeyBefore, entries[start].marker)
	}
	result = result.With("data", query.Arr(data...))
	if end < len(entries) {
		result = result.With(query.KeyAfter, entries[end].marker)
	}
	return result
}
