package faunatest

import (
	"sort"
	"strconv"
	"strings"

	"github.com/krew-solutions/faunadb-go/faunadb/option"
	"github.com/krew-solutions/faunadb-go/faunadb/query"
)

const (
	collectionClasses   = "classes"
	collectionIndexes   = "indexes"
	collectionDatabases = "databases"
	collectionKeys      = "keys"
)

var noTs = option.Nothing[int64]()

type event struct {
	ts     int64
	action string
	ref    query.RefV
	// doc is the instance after the action, or before it for a delete.
	doc query.ObjectV
}

// store is the server's whole state. Queries run against a copy, which
// replaces the original only when the query succeeds.
type store struct {
	docs    map[string]query.ObjectV
	seq     map[string]int64
	nextSeq int64
	nextID  map[string]int64
	events  []event
	clock   int64
	secrets map[string]query.RefV
}

func newStore(clock int64) *store {
	return &store{
		docs:    map[string]query.ObjectV{},
		seq:     map[string]int64{},
		nextID:  map[string]int64{},
		clock:   clock,
		secrets: map[string]query.RefV{},
	}
}

func (s *store) clone() *store {
	c := &store{
		docs:    make(map[string]query.ObjectV, len(s.docs)),
		seq:     make(map[string]int64, len(s.seq)),
		nextSeq: s.nextSeq,
		nextID:  make(map[string]int64, len(s.nextID)),
		events:  append([]event(nil), s.events...),
		clock:   s.clock,
		secrets: make(map[string]query.RefV, len(s.secrets)),
	}
	for k, v := range s.docs {
		c.docs[k] = v
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	for k, v := range s.nextID {
		c.nextID[k] = v
	}
	for k, v := range s.secrets {
		c.secrets[k] = v
	}
	return c
}

func (s *store) tick() int64 {
	s.clock++
	return s.clock
}

func (s *store) get(ref query.RefV) (query.ObjectV, bool) {
	doc, ok := s.docs[ref.ID()]
	return doc, ok
}

func (s *store) put(ref query.RefV, doc query.ObjectV) {
	if _, known := s.seq[ref.ID()]; !known {
		s.nextSeq++
		s.seq[ref.ID()] = s.nextSeq
	}
	s.docs[ref.ID()] = doc
}

func (s *store) record(action string, ref query.RefV, doc query.ObjectV, ts int64) {
	if isInstanceRef(ref) {
		s.events = append(s.events, event{ts: ts, action: action, ref: ref, doc: doc})
	}
}

// allocate returns the next free numeric id of a class.
func (s *store) allocate(class query.RefV) query.RefV {
	for {
		s.nextID[class.ID()]++
		ref := query.Ref(class.ID() + "/" + strconv.FormatInt(s.nextID[class.ID()], 10))
		if _, taken := s.docs[ref.ID()]; !taken {
			return ref
		}
	}
}

// instances returns the instances that existed at ts, or now.
func (s *store) instances(ts option.Option[int64]) map[string]query.ObjectV {
	at, ok := ts.Get()
	live := map[string]query.ObjectV{}
	if !ok {
		for id, doc := range s.docs {
			if isInstanceRef(query.Ref(id)) {
				live[id] = doc
			}
		}
		return live
	}
	for _, e := range s.events {
		if e.ts > at {
			break
		}
		if e.action == "delete" {
			delete(live, e.ref.ID())
		} else {
			live[e.ref.ID()] = e.doc
		}
	}
	return live
}

// members returns the refs matching pred in creation order.
func (s *store) members(pred setPredicate, ts option.Option[int64]) []query.RefV {
	var refs []query.RefV
	for id, doc := range s.instances(ts) {
		ref := query.Ref(id)
		if pred(ref, doc) {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		return s.seq[refs[i].ID()] < s.seq[refs[j].ID()]
	})
	return refs
}

func (s *store) history(pred setPredicate, ts option.Option[int64]) []event {
	at, bounded := ts.Get()
	var events []event
	for _, e := range s.events {
		if bounded && e.ts > at {
			break
		}
		if pred(e.ref, e.doc) {
			events = append(events, e)
		}
	}
	return events
}

func isInstanceRef(ref query.RefV) bool {
	parts := strings.Split(ref.ID(), "/")
	return len(parts) == 3 && parts[0] == collectionClasses
}

type setPredicate func(ref query.RefV, doc query.ObjectV) bool

// terms extracts the values an index stores for doc. Array values index
// every element.
func terms(doc query.ObjectV, path string) []query.Value {
	var v query.Value = doc
	for _, part := range strings.Split(path, ".") {
		obj, ok := v.(query.ObjectV)
		if !ok {
			return nil
		}
		if v, ok = obj.Get(part); !ok {
			return nil
		}
	}
	if arr, ok := v.(query.ArrayV); ok {
		return arr.Items()
	}
	return []query.Value{v}
}

func containsTerm(values []query.Value, term query.Value) bool {
	for _, v := range values {
		if equal(v, term) {
			return true
		}
	}
	return false
}
