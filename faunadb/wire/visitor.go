package wire

import (
	"strconv"
	"strings"

	"github.com/krew-solutions/faunadb-go/faunadb/query"
)

func (e *encoder) VisitValue(v query.Value) error {
	return e.value(v, true)
}

func (e *encoder) VisitVar(n query.VarNode) error {
	if strings.TrimSpace(n.Name()) == "" {
		return malformed("var with blank name")
	}
	o := e.object()
	o.key(string(query.OperatorVar))
	e.str(n.Name())
	o.close()
	return nil
}

func (e *encoder) VisitArray(n query.ArrayNode) error {
	return e.list(n.Items())
}

func (e *encoder) VisitObject(n query.ObjectNode) error {
	o := e.object()
	o.key(string(query.OperatorObject))
	fields := e.object()
	for _, f := range n.Fields() {
		if err := fields.expr(f.Name, f.Expr); err != nil {
			return err
		}
	}
	fields.close()
	o.close()
	return nil
}

// VisitQuote writes a quoted value literally; a quoted node keeps its form.
func (e *encoder) VisitQuote(n query.QuoteNode) error {
	o := e.object()
	o.key(string(query.OperatorQuote))
	var err error
	switch x := n.Expr().(type) {
	case query.Value:
		err = e.literal(x)
	default:
		err = e.expr(x)
	}
	if err != nil {
		return err
	}
	o.close()
	return nil
}

func (e *encoder) VisitLet(n query.LetNode) error {
	bindings := n.Bindings()
	if len(bindings) == 0 {
		return malformed("let without bindings")
	}
	o := e.object()
	o.key(string(query.OperatorLet))
	vars := e.object()
	for _, b := range bindings {
		if err := vars.expr(b.Name, b.Expr); err != nil {
			return err
		}
	}
	vars.close()
	if err := o.expr(query.KeyIn, n.In()); err != nil {
		return err
	}
	o.close()
	return nil
}

func (e *encoder) VisitIf(n query.IfNode) error {
	o := e.object()
	if err := o.expr(string(query.OperatorIf), n.Cond()); err != nil {
		return err
	}
	if err := o.expr(query.KeyThen, n.Then()); err != nil {
		return err
	}
	if err := o.expr(query.KeyElse, n.Else()); err != nil {
		return err
	}
	o.close()
	return nil
}

func (e *encoder) VisitDo(n query.DoNode) error {
	exprs := n.Exprs()
	if len(exprs) == 0 {
		return malformed("do without expressions")
	}
	o := e.object()
	if err := o.list(string(query.OperatorDo), exprs); err != nil {
		return err
	}
	o.close()
	return nil
}

func (e *encoder) VisitLambda(n query.LambdaNode) error {
	if strings.TrimSpace(n.Param()) == "" {
		return malformed("lambda with blank parameter")
	}
	o := e.object()
	o.key(string(query.OperatorLambda))
	e.str(n.Param())
	if err := o.expr(query.KeyExpr, n.Body()); err != nil {
		return err
	}
	o.close()
	return nil
}

func (e *encoder) VisitIteration(n query.IterationNode) error {
	if n.Operator() == "" {
		return malformed("iteration without operator")
	}
	o := e.object()
	if err := o.expr(string(n.Operator()), n.Lambda()); err != nil {
		return err
	}
	if err := o.expr(query.KeyCollection, n.Collection()); err != nil {
		return err
	}
	o.close()
	return nil
}

func (e *encoder) VisitPath(n query.PathNode) error {
	path := n.Path()
	if len(path) == 0 {
		return malformed("%s with empty path", n.Operator())
	}
	targetKey := query.KeyFrom
	switch n.Operator() {
	case query.OperatorSelect:
	case query.OperatorContains:
		targetKey = query.KeyIn
	default:
		return malformed("path operator %q", n.Operator())
	}
	o := e.object()
	o.key(string(n.Operator()))
	e.buf.WriteByte('[')
	for i, s := range path {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if s.IsIndex() {
			e.buf.WriteString(strconv.Itoa(s.Index()))
		} else {
			e.str(s.Key())
		}
	}
	e.buf.WriteByte(']')
	if err := o.expr(targetKey, n.Target()); err != nil {
		return err
	}
	o.close()
	return nil
}

func (e *encoder) VisitVariadic(n query.VariadicNode) error {
	operands := n.Operands()
	if n.Operator() == "" || len(operands) == 0 {
		return malformed("variadic form without operands")
	}
	o := e.object()
	if err := o.list(string(n.Operator()), operands); err != nil {
		return err
	}
	o.close()
	return nil
}

func (e *encoder) VisitUnary(n query.UnaryNode) error {
	if n.Operator() == "" {
		return malformed("unary form without operator")
	}
	o := e.object()
	if err := o.expr(string(n.Operator()), n.Operand()); err != nil {
		return err
	}
	o.close()
	return nil
}

func (e *encoder) VisitGet(n query.GetNode) error {
	o := e.object()
	if err := o.expr(string(query.OperatorGet), n.Ref()); err != nil {
		return err
	}
	if ts, ok := n.Ts().Get(); ok {
		o.key(query.KeyTs)
		e.buf.WriteString(strconv.FormatInt(ts, 10))
	}
	o.close()
	return nil
}

func (e *encoder) VisitWrite(n query.WriteNode) error {
	if n.Operator() == "" {
		return malformed("write form without operator")
	}
	o := e.object()
	if err := o.expr(string(n.Operator()), n.Ref()); err != nil {
		return err
	}
	if err := o.expr(query.KeyParams, n.Params()); err != nil {
		return err
	}
	o.close()
	return nil
}

func (e *encoder) VisitMatch(n query.MatchNode) error {
	o := e.object()
	if err := o.expr(string(query.OperatorMatch), n.Term()); err != nil {
		return err
	}
	if err := o.expr(query.KeyIndex, n.Index()); err != nil {
		return err
	}
	o.close()
	return nil
}

// VisitPaginate writes only the options that were set.
func (e *encoder) VisitPaginate(n query.PaginateNode) error {
	o := e.object()
	if err := o.expr(string(query.OperatorPaginate), n.Resource()); err != nil {
		return err
	}
	if ts, ok := n.Ts().Get(); ok {
		o.key(query.KeyTs)
		e.buf.WriteString(strconv.FormatInt(ts, 10))
	}
	if cursor, ok := n.Cursor().Get(); ok {
		key := query.KeyAfter
		switch cursor.Direction() {
		case query.DirectionAfter:
		case query.DirectionBefore:
			key = query.KeyBefore
		default:
			return malformed("cursor without direction")
		}
		if err := o.expr(key, cursor.Value()); err != nil {
			return err
		}
	}
	if size, ok := n.Size().Get(); ok {
		o.key(query.KeySize)
		e.buf.WriteString(strconv.Itoa(size))
	}
	if events, ok := n.Events().Get(); ok {
		o.key(query.KeyEvents)
		e.buf.WriteString(strconv.FormatBool(events))
	}
	o.close()
	return nil
}
