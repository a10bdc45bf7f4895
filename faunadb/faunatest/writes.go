package faunatest

import (
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/krew-solutions/faunadb-go/faunadb/query"
)

func (e *evaluator) create(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	ref, err := argAs[query.RefV](e, sc, obj, string(query.OperatorCreate), pos)
	if err != nil {
		return nil, err
	}
	params, err := argAs[query.ObjectV](e, sc, obj, query.KeyParams, pos)
	if err != nil {
		return nil, err
	}
	paramsPos := at(pos, query.String(query.KeyParams))
	switch ref.ID() {
	case collectionClasses, collectionDatabases:
		return e.createNamed(ref, params, paramsPos)
	case collectionIndexes:
		return e.createIndex(ref, params, paramsPos)
	case collectionKeys:
		return e.createKey(ref, params, paramsPos)
	}
	if ref.Collection() != collectionClasses {
		return nil, invalidRef(pos, ref)
	}
	class, target := ref, query.RefV{}
	if isInstanceRef(ref) {
		class, target = ref.Parent(), ref
	}
	if _, ok := e.st.get(class); !ok || class.Parent().ID() != collectionClasses {
		return nil, invalidRef(pos, class)
	}
	if target.ID() == "" {
		target = e.st.allocate(class)
	} else if _, taken := e.st.get(target); taken {
		return nil, newError(http.StatusBadRequest, CodeInstanceExists, pos, "%s already exists", target)
	}
	data, err := dataParam(params, paramsPos)
	if err != nil {
		return nil, err
	}
	return e.storeInstance("create", target, data, pos)
}

func (e *evaluator) storeInstance(action string, ref query.RefV, data query.ObjectV, pos []query.Value) (query.Value, error) {
	ts := e.st.tick()
	doc := query.Obj(
		query.F("ref", ref),
		query.F("class", ref.Parent()),
		query.F("ts", query.Long(ts)),
		query.F("data", data),
	)
	if err := e.checkUnique(ref, doc, pos); err != nil {
		return nil, err
	}
	e.st.put(ref, doc)
	e.st.record(action, ref, doc, ts)
	return doc, nil
}

func dataParam(params query.ObjectV, pos []query.Value) (query.ObjectV, error) {
	v, ok := params.Get("data")
	if !ok {
		return query.Obj(), nil
	}
	data, ok := v.(query.ObjectV)
	if !ok {
		return query.ObjectV{}, invalidArgument(at(pos, query.String("data")), "data must be an object")
	}
	return withoutNulls(data), nil
}

func withoutNulls(obj query.ObjectV) query.ObjectV {
	out := query.Obj()
	obj.Range(func(k string, v query.Value) bool {
		switch v := v.(type) {
		case query.NullV:
		case query.ObjectV:
			out = out.With(k, withoutNulls(v))
		default:
			out = out.With(k, v)
		}
		return true
	})
	return out
}

// merge applies patch to base. A null removes the field and nested objects
// merge recursively.
func merge(base, patch query.ObjectV) query.ObjectV {
	out := base
	patch.Range(func(k string, v query.Value) bool {
		switch v := v.(type) {
		case query.NullV:
			out = out.Without(k)
		case query.ObjectV:
			if current, ok := out.Get(k); ok {
				if currentObj, ok := current.(query.ObjectV); ok {
					out = out.With(k, merge(currentObj, v))
					return true
				}
			}
			out = out.With(k, withoutNulls(v))
		default:
			out = out.With(k, v)
		}
		return true
	})
	return out
}

func nameParam(params query.ObjectV, pos []query.Value) (string, error) {
	name, ok := params.Get("name")
	s, isString := name.(query.StringV)
	if !ok || !isString || strings.TrimSpace(string(s)) == "" || strings.Contains(string(s), "/") {
		return "", invalidArgument(at(pos, query.String("name")), "a valid name is required")
	}
	return string(s), nil
}

func (e *evaluator) createNamed(collection query.RefV, params query.ObjectV, pos []query.Value) (query.Value, error) {
	name, err := nameParam(params, pos)
	if err != nil {
		return nil, err
	}
	ref := query.Ref(collection.ID() + "/" + name)
	if _, taken := e.st.get(ref); taken {
		return nil, newError(http.StatusBadRequest, CodeInstanceExists, pos, "%s already exists", ref)
	}
	doc := query.Obj(
		query.F("ref", ref),
		query.F("class", collection),
		query.F("ts", query.Long(e.st.tick())),
	)
	params.Range(func(k string, v query.Value) bool {
		doc = doc.With(k, v)
		return true
	})
	e.st.put(ref, doc)
	return doc, nil
}

func (e *evaluator) createIndex(collection query.RefV, params query.ObjectV, pos []query.Value) (query.Value, error) {
	source, ok := params.Get("source")
	if ref, isRef := source.(query.RefV); !ok || !isRef || ref.Parent().ID() != collectionClasses {
		return nil, invalidArgument(at(pos, query.String("source")), "source must be a class ref")
	} else if _, exists := e.st.get(ref); !exists {
		return nil, invalidRef(at(pos, query.String("source")), ref)
	}
	if path, ok := params.Get("path"); !ok {
		params = params.With("path", query.String("class"))
	} else if _, isString := path.(query.StringV); !isString {
		return nil, invalidArgument(at(pos, query.String("path")), "path must be a string")
	}
	if !params.Has("unique") {
		params = params.With("unique", query.Boolean(false))
	}
	return e.createNamed(collection, params.With("active", query.Boolean(true)), pos)
}

// createKey returns the secret once; the stored key does not carry it.
func (e *evaluator) createKey(collection query.RefV, params query.ObjectV, pos []query.Value) (query.Value, error) {
	database, ok := params.Get("database")
	if ref, isRef := database.(query.RefV); !ok || !isRef {
		return nil, invalidArgument(at(pos, query.String("database")), "database must be a ref")
	} else if _, exists := e.st.get(ref); !exists {
		return nil, invalidRef(at(pos, query.String("database")), ref)
	}
	ref := e.st.allocate(collection)
	doc := query.Obj(
		query.F("ref", ref),
		query.F("class", collection),
		query.F("ts", query.Long(e.st.tick())),
	)
	params.Range(func(k string, v query.Value) bool {
		doc = doc.With(k, v)
		return true
	})
	secret := strings.ToLower(ulid.Make().String())
	e.st.put(ref, doc)
	e.st.secrets[secret] = ref
	return doc.With("secret", query.String(secret)), nil
}

func (e *evaluator) write(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	op := query.Operator(obj.Keys()[0])
	ref, err := argAs[query.RefV](e, sc, obj, string(op), pos)
	if err != nil {
		return nil, err
	}
	params, err := argAs[query.ObjectV](e, sc, obj, query.KeyParams, pos)
	if err != nil {
		return nil, err
	}
	current, ok := e.st.get(ref)
	if !ok {
		return nil, notFound(pos, ref)
	}
	if !isInstanceRef(ref) {
		if op == query.OperatorReplace {
			return nil, invalidArgument(pos, "%s cannot be replaced", ref)
		}
		updated := merge(current, params.Without("ref").Without("class"))
		e.st.put(ref, updated)
		return updated, nil
	}
	patch, ok := params.Get("data")
	if !ok {
		patch = query.Obj()
	}
	patchObj, ok := patch.(query.ObjectV)
	if !ok {
		return nil, invalidArgument(at(pos, query.String(query.KeyParams)), "data must be an object")
	}
	var data query.ObjectV
	if op == query.OperatorUpdate {
		old, _ := current.Get("data")
		oldObj, _ := old.(query.ObjectV)
		data = merge(oldObj, patchObj)
	} else {
		data = withoutNulls(patchObj)
	}
	return e.storeInstance(string(op), ref, data, pos)
}

func (e *evaluator) remove(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	ref, err := argAs[query.RefV](e, sc, obj, string(query.OperatorDelete), pos)
	if err != nil {
		return nil, err
	}
	doc, ok := e.st.get(ref)
	if !ok {
		return nil, notFound(pos, ref)
	}
	delete(e.st.docs, ref.ID())
	e.st.record("delete", ref, doc, e.st.tick())
	return doc, nil
}

// checkUnique rejects doc when a unique index over its class already holds
// one of its terms for another instance.
func (e *evaluator) checkUnique(ref query.RefV, doc query.ObjectV, pos []query.Value) error {
	for id, index := range e.st.docs {
		if query.Ref(id).Parent().ID() != collectionIndexes {
			continue
		}
		if unique, _ := index.Get("unique"); unique != query.Boolean(true) {
			continue
		}
		source, _ := index.Get("source")
		if source != ref.Parent() {
			continue
		}
		path, _ := index.Get("path")
		pathStr, _ := path.(query.StringV)
		newTerms := terms(doc, string(pathStr))
		if len(newTerms) == 0 {
			continue
		}
		for otherID, other := range e.st.instances(noTs) {
			if otherID == ref.ID() || query.Ref(otherID).Parent() != ref.Parent() {
				continue
			}
			for _, term := range terms(other, string(pathStr)) {
				if containsTerm(newTerms, term) {
					return newError(http.StatusBadRequest, CodeInstanceNotUnique, pos,
						"%s duplicates a value of unique index %s", ref, id)
				}
			}
		}
	}
	return nil
}
