package faunatest

import (
	"math"
	"net/http"
	"strings"

	"github.com/krew-solutions/faunadb-go/faunadb/option"
	"github.com/krew-solutions/faunadb-go/faunadb/query"
	"github.com/krew-solutions/faunadb-go/faunadb/wire"
)

const defaultPageSize = 64

type scope struct {
	parent *scope
	name   string
	value  query.Value
}

func (s *scope) bind(name string, v query.Value) *scope {
	return &scope{parent: s, name: name, value: v}
}

func (s *scope) lookup(name string) (query.Value, bool) {
	for ; s != nil; s = s.parent {
		if s.name == name {
			return s.value, true
		}
	}
	return nil, false
}

type form func(e *evaluator, sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error)

var forms map[query.Operator]form

func init() {
	forms = map[query.Operator]form{
		query.OperatorLet:          (*evaluator).let,
		query.OperatorVar:          (*evaluator).variable,
		query.OperatorIf:           (*evaluator).ifForm,
		query.OperatorDo:           (*evaluator).do,
		query.OperatorQuote:        (*evaluator).quote,
		query.OperatorObject:       (*evaluator).object,
		query.OperatorLambda:       (*evaluator).lambda,
		query.OperatorMap:          (*evaluator).iterate,
		query.OperatorForeach:      (*evaluator).iterate,
		query.OperatorSelect:       (*evaluator).selectPath,
		query.OperatorContains:     (*evaluator).selectPath,
		query.OperatorAdd:          (*evaluator).arithmetic,
		query.OperatorMultiply:     (*evaluator).arithmetic,
		query.OperatorSubtract:     (*evaluator).arithmetic,
		query.OperatorDivide:       (*evaluator).arithmetic,
		query.OperatorEquals:       (*evaluator).equals,
		query.OperatorConcat:       (*evaluator).concat,
		query.OperatorGet:          (*evaluator).get,
		query.OperatorExists:       (*evaluator).exists,
		query.OperatorCount:        (*evaluator).count,
		query.OperatorCreate:       (*evaluator).create,
		query.OperatorUpdate:       (*evaluator).write,
		query.OperatorReplace:      (*evaluator).write,
		query.OperatorDelete:       (*evaluator).remove,
		query.OperatorMatch:        (*evaluator).match,
		query.OperatorUnion:        (*evaluator).setAlgebra,
		query.OperatorIntersection: (*evaluator).setAlgebra,
		query.OperatorDifference:   (*evaluator).setAlgebra,
		query.OperatorPaginate:     (*evaluator).paginate,
	}
}

type evaluator struct {
	st *store
}

func at(pos []query.Value, step query.Value) []query.Value {
	return append(append([]query.Value(nil), pos...), step)
}

func (e *evaluator) eval(sc *scope, v query.Value, pos []query.Value) (query.Value, error) {
	switch v := v.(type) {
	case query.ArrayV:
		items := make([]query.Value, 0, v.Len())
		for i, item := range v.Items() {
			r, err := e.eval(sc, item, at(pos, query.Long(int64(i))))
			if err != nil {
				return nil, err
			}
			items = append(items, r)
		}
		return query.Arr(items...), nil
	case query.ObjectV:
		keys := v.Keys()
		if len(keys) == 0 {
			return nil, invalidExpression(pos, "empty object is not a form")
		}
		op := query.Operator(keys[0])
		f, ok := forms[op]
		if !ok {
			return nil, invalidExpression(pos, "no form named %q", keys[0])
		}
		return f(e, sc, v, pos)
	}
	return v, nil
}

// arg evaluates a named argument of a form.
func (e *evaluator) arg(sc *scope, obj query.ObjectV, key string, pos []query.Value) (query.Value, error) {
	v, ok := obj.Get(key)
	if !ok {
		return nil, invalidExpression(pos, "missing %q", key)
	}
	return e.eval(sc, v, at(pos, query.String(key)))
}

func argAs[T query.Value](e *evaluator, sc *scope, obj query.ObjectV, key string, pos []query.Value) (T, error) {
	var zero T
	v, err := e.arg(sc, obj, key, pos)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, invalidArgument(at(pos, query.String(key)), "unexpected %s", describe(v))
	}
	return t, nil
}

func raw[T query.Value](obj query.ObjectV, key string, pos []query.Value) (T, error) {
	var zero T
	v, ok := obj.Get(key)
	if !ok {
		return zero, invalidExpression(pos, "missing %q", key)
	}
	t, ok := v.(T)
	if !ok {
		return zero, invalidExpression(at(pos, query.String(key)), "unexpected %s", describe(v))
	}
	return t, nil
}

func (e *evaluator) let(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	bindings, err := raw[query.ObjectV](obj, string(query.OperatorLet), pos)
	if err != nil {
		return nil, err
	}
	for _, f := range bindings.Fields() {
		v, err := e.eval(sc, f.Value, at(at(pos, query.String(string(query.OperatorLet))), query.String(f.Name)))
		if err != nil {
			return nil, err
		}
		sc = sc.bind(f.Name, v)
	}
	return e.arg(sc, obj, query.KeyIn, pos)
}

func (e *evaluator) variable(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	name, err := raw[query.StringV](obj, string(query.OperatorVar), pos)
	if err != nil {
		return nil, err
	}
	v, ok := sc.lookup(string(name))
	if !ok {
		return nil, invalidExpression(pos, "variable %q is not bound", name)
	}
	return v, nil
}

func (e *evaluator) ifForm(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	cond, err := argAs[query.BooleanV](e, sc, obj, string(query.OperatorIf), pos)
	if err != nil {
		return nil, err
	}
	if cond {
		return e.arg(sc, obj, query.KeyThen, pos)
	}
	return e.arg(sc, obj, query.KeyElse, pos)
}

func (e *evaluator) do(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	exprs, err := raw[query.ArrayV](obj, string(query.OperatorDo), pos)
	if err != nil {
		return nil, err
	}
	var last query.Value = query.Null()
	for i, x := range exprs.Items() {
		if last, err = e.eval(sc, x, at(at(pos, query.String(string(query.OperatorDo))), query.Long(int64(i)))); err != nil {
			return nil, err
		}
	}
	return last, nil
}

func (e *evaluator) quote(_ *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	v, ok := obj.Get(string(query.OperatorQuote))
	if !ok {
		return nil, invalidExpression(pos, "missing quote body")
	}
	return v, nil
}

func (e *evaluator) object(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	fields, err := raw[query.ObjectV](obj, string(query.OperatorObject), pos)
	if err != nil {
		return nil, err
	}
	out := make([]query.Field, 0, fields.Len())
	for _, f := range fields.Fields() {
		v, err := e.eval(sc, f.Value, at(at(pos, query.String(string(query.OperatorObject))), query.String(f.Name)))
		if err != nil {
			return nil, err
		}
		out = append(out, query.F(f.Name, v))
	}
	return query.Obj(out...), nil
}

func (e *evaluator) lambda(_ *scope, _ query.ObjectV, pos []query.Value) (query.Value, error) {
	return nil, invalidExpression(pos, "lambda is only valid as a map or foreach argument")
}

func (e *evaluator) iterate(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	op := obj.Keys()[0]
	lambda, err := raw[query.ObjectV](obj, op, pos)
	if err != nil {
		return nil, err
	}
	lambdaPos := at(pos, query.String(op))
	param, err := raw[query.StringV](lambda, string(query.OperatorLambda), lambdaPos)
	if err != nil {
		return nil, err
	}
	body, ok := lambda.Get(query.KeyExpr)
	if !ok {
		return nil, invalidExpression(lambdaPos, "lambda without expr")
	}
	collection, err := argAs[query.ArrayV](e, sc, obj, query.KeyCollection, pos)
	if err != nil {
		return nil, err
	}
	results := make([]query.Value, 0, collection.Len())
	for _, item := range collection.Items() {
		r, err := e.eval(sc.bind(string(param), item), body, at(lambdaPos, query.String(query.KeyExpr)))
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if query.Operator(op) == query.OperatorForeach {
		return collection, nil
	}
	return query.Arr(results...), nil
}

func (e *evaluator) selectPath(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	op := query.Operator(obj.Keys()[0])
	path, err := raw[query.ArrayV](obj, string(op), pos)
	if err != nil {
		return nil, err
	}
	targetKey := query.KeyFrom
	if op == query.OperatorContains {
		targetKey = query.KeyIn
	}
	v, err := e.arg(sc, obj, targetKey, pos)
	if err != nil {
		return nil, err
	}
	found := true
	for _, step := range path.Items() {
		if v, found = walk(v, step); !found {
			break
		}
	}
	if op == query.OperatorContains {
		return query.Boolean(found), nil
	}
	if !found {
		return nil, newError(http.StatusNotFound, CodeValueNotFound, at(pos, query.String(string(op))), "path %s not found", describe(path))
	}
	return v, nil
}

func walk(v query.Value, step query.Value) (query.Value, bool) {
	switch step := step.(type) {
	case query.StringV:
		obj, ok := v.(query.ObjectV)
		if !ok {
			return nil, false
		}
		return obj.Get(string(step))
	case query.LongV:
		arr, ok := v.(query.ArrayV)
		if !ok || step < 0 || int(step) >= arr.Len() {
			return nil, false
		}
		return arr.At(int(step)), true
	}
	return nil, false
}

func (e *evaluator) operands(sc *scope, obj query.ObjectV, pos []query.Value) ([]query.Value, error) {
	op := obj.Keys()[0]
	v, err := e.arg(sc, obj, op, pos)
	if err != nil {
		return nil, err
	}
	arr, ok := v.(query.ArrayV)
	if !ok {
		return []query.Value{v}, nil
	}
	if arr.Len() == 0 {
		return nil, invalidArgument(at(pos, query.String(op)), "%s needs at least one operand", op)
	}
	return arr.Items(), nil
}

func (e *evaluator) arithmetic(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	op := query.Operator(obj.Keys()[0])
	operands, err := e.operands(sc, obj, pos)
	if err != nil {
		return nil, err
	}
	argPos := at(pos, query.String(string(op)))
	double := false
	for _, v := range operands {
		switch v.(type) {
		case query.LongV:
		case query.DoubleV:
			double = true
		default:
			return nil, invalidArgument(argPos, "%s of %s", op, describe(v))
		}
	}
	if double {
		acc := asFloat(operands[0])
		for _, v := range operands[1:] {
			f := asFloat(v)
			switch op {
			case query.OperatorAdd:
				acc += f
			case query.OperatorMultiply:
				acc *= f
			case query.OperatorSubtract:
				acc -= f
			case query.OperatorDivide:
				if f == 0 {
					return nil, invalidArgument(argPos, "division by zero")
				}
				acc /= f
			}
		}
		if math.IsInf(acc, 0) || math.IsNaN(acc) {
			return nil, invalidArgument(argPos, "%s overflows", op)
		}
		return query.Double(acc), nil
	}
	acc := operands[0].(query.LongV)
	for _, v := range operands[1:] {
		n := v.(query.LongV)
		switch op {
		case query.OperatorAdd:
			acc += n
		case query.OperatorMultiply:
			acc *= n
		case query.OperatorSubtract:
			acc -= n
		case query.OperatorDivide:
			if n == 0 {
				return nil, invalidArgument(argPos, "division by zero")
			}
			acc /= n
		}
	}
	return acc, nil
}

func asFloat(v query.Value) float64 {
	if n, ok := v.(query.LongV); ok {
		return float64(n)
	}
	return float64(v.(query.DoubleV))
}

func (e *evaluator) equals(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	operands, err := e.operands(sc, obj, pos)
	if err != nil {
		return nil, err
	}
	for _, v := range operands[1:] {
		if !equal(operands[0], v) {
			return query.Boolean(false), nil
		}
	}
	return query.Boolean(true), nil
}

func (e *evaluator) concat(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	operands, err := e.operands(sc, obj, pos)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, v := range operands {
		s, ok := v.(query.StringV)
		if !ok {
			return nil, invalidArgument(at(pos, query.String(string(query.OperatorConcat))), "concat of %s", describe(v))
		}
		b.WriteString(string(s))
	}
	return query.String(b.String()), nil
}

func optionalLong(obj query.ObjectV, key string, pos []query.Value) (option.Option[int64], error) {
	v, ok := obj.Get(key)
	if !ok {
		return option.Nothing[int64](), nil
	}
	n, ok := v.(query.LongV)
	if !ok {
		return option.Nothing[int64](), invalidArgument(at(pos, query.String(key)), "%s must be a long", key)
	}
	return option.Some(int64(n)), nil
}

func (e *evaluator) get(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	ref, err := argAs[query.RefV](e, sc, obj, string(query.OperatorGet), pos)
	if err != nil {
		return nil, err
	}
	ts, err := optionalLong(obj, query.KeyTs, pos)
	if err != nil {
		return nil, err
	}
	if ts.IsSome() && isInstanceRef(ref) {
		doc, ok := e.st.instances(ts)[ref.ID()]
		if !ok {
			return nil, notFound(pos, ref)
		}
		return doc, nil
	}
	doc, ok := e.st.get(ref)
	if !ok {
		return nil, notFound(pos, ref)
	}
	return doc, nil
}

func (e *evaluator) exists(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	ref, err := argAs[query.RefV](e, sc, obj, string(query.OperatorExists), pos)
	if err != nil {
		return nil, err
	}
	_, ok := e.st.get(ref)
	return query.Boolean(ok), nil
}

func (e *evaluator) count(sc *scope, obj query.ObjectV, pos []query.Value) (query.Value, error) {
	set, err := argAs[query.SetRefV](e, sc, obj, string(query.OperatorCount), pos)
	if err != nil {
		return nil, err
	}
	pred, err := e.predicate(set, at(pos, query.String(string(query.OperatorCount))))
	if err != nil {
		return nil, err
	}
	return query.Long(int64(len(e.st.members(pred, option.Nothing[int64]())))), nil
}

func describe(v query.Value) string {
	b, err := wire.MarshalValue(v)
	if err != nil {
		return "value"
	}
	return string(b)
}

func equal(a, b query.Value) bool {
	x, errA := wire.MarshalValue(a)
	y, errB := wire.MarshalValue(b)
	return errA == nil && errB == nil && string(x) == string(y)
}
