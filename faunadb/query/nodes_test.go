package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLetRejectsEmptyBindings(t *testing.T) {
	_, err := Let(nil, Long(1))
	assert.ErrorIs(t, err, ErrMalformedExpression)
}

func TestLetRejectsDuplicateNames(t *testing.T) {
	_, err := Let([]Binding{Bind("x", Long(1)), Bind("x", Long(2))}, Var("x"))
	assert.ErrorIs(t, err, ErrMalformedExpression)
}

func TestLetRejectsBlankName(t *testing.T) {
	_, err := Let([]Binding{Bind(" ", Long(1))}, Long(1))
	assert.ErrorIs(t, err, ErrMalformedExpression)
}

func TestLetRejectsMissingBody(t *testing.T) {
	_, err := Let([]Binding{Bind("x", Long(1))}, nil)
	assert.ErrorIs(t, err, ErrMalformedExpression)
}

func TestLetKeepsBindingOrder(t *testing.T) {
	let, err := Let([]Binding{Bind("b", Long(1)), Bind("a", Var("b"))}, Var("a"))
	require.NoError(t, err)

	bindings := let.Bindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, "b", bindings[0].Name)
	assert.Equal(t, "a", bindings[1].Name)
	assert.Equal(t, Var("a"), let.In())
}

func TestLambdaValidation(t *testing.T) {
	_, err := Lambda("", Var("x"))
	assert.ErrorIs(t, err, ErrMalformedExpression)

	_, err = Lambda("x", nil)
	assert.ErrorIs(t, err, ErrMalformedExpression)

	lambda, err := Lambda("x", Var("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", lambda.Param())
}

func TestMustPanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		Must(Lambda("", Var("x")))
	})
	assert.NotPanics(t, func() {
		Must(Lambda("x", Var("x")))
	})
}

func TestSelectAndContainsNeedPath(t *testing.T) {
	_, err := Select(nil, Obj())
	assert.ErrorIs(t, err, ErrMalformedExpression)

	_, err = Contains(Path(), Obj())
	assert.ErrorIs(t, err, ErrMalformedExpression)

	sel, err := Select(Path("favorites", "foods", 1), Var("o"))
	require.NoError(t, err)
	assert.Equal(t, OperatorSelect, sel.Operator())
	assert.Equal(t, []PathSegment{ObjectKey("favorites"), ObjectKey("foods"), ArrayIndex(1)}, sel.Path())
}

func TestPathRejectsUnknownSegment(t *testing.T) {
	assert.Panics(t, func() {
		Path(1.5)
	})
}

func TestVariadicNodesKeepOperands(t *testing.T) {
	add := Add(Long(1), Long(2), Long(3))

	assert.Equal(t, OperatorAdd, add.Operator())
	assert.Equal(t, []Expr{Long(1), Long(2), Long(3)}, add.Operands())

	union := Union(Var("a"))
	assert.Equal(t, OperatorUnion, union.Operator())
	assert.Len(t, union.Operands(), 1)
}

func TestObjectNodeDuplicateReplacesInPlace(t *testing.T) {
	obj := Object(Bind("a", Long(1)), Bind("b", Long(2)), Bind("a", Var("x")))

	fields := obj.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, Bind("a", Var("x")), fields[0])
}

func TestGetWithTsDoesNotMutate(t *testing.T) {
	get := Get(Ref("classes/spells/1"))
	at := get.WithTs(42)

	assert.True(t, get.Ts().IsNothing())
	assert.Equal(t, int64(42), at.Ts().Unwrap())
}

func TestPaginateOptions(t *testing.T) {
	base := Paginate(Match(String("fire"), Ref("indexes/spells_by_element")))

	assert.True(t, base.Size().IsNothing())
	assert.True(t, base.Cursor().IsNothing())

	page := base.WithSize(1).WithCursor(After(Ref("classes/spells/2"))).WithCursor(Before(Ref("classes/spells/3")))

	cursor := page.Cursor().Unwrap()
	assert.Equal(t, DirectionBefore, cursor.Direction())
	assert.Equal(t, Ref("classes/spells/3"), cursor.Value())
	assert.Equal(t, 1, page.Size().Unwrap())
	assert.True(t, page.WithoutCursor().Cursor().IsNothing())
	assert.True(t, base.Size().IsNothing())
}

type countingVisitor struct {
	visited []string
}

func (c *countingVisitor) note(name string) error {
	c.visited = append(c.visited, name)
	return nil
}

func (c *countingVisitor) VisitValue(Value) error             { return c.note("value") }
func (c *countingVisitor) VisitVar(VarNode) error             { return c.note("var") }
func (c *countingVisitor) VisitArray(ArrayNode) error         { return c.note("array") }
func (c *countingVisitor) VisitObject(ObjectNode) error       { return c.note("object") }
func (c *countingVisitor) VisitQuote(QuoteNode) error         { return c.note("quote") }
func (c *countingVisitor) VisitLet(LetNode) error             { return c.note("let") }
func (c *countingVisitor) VisitIf(IfNode) error               { return c.note("if") }
func (c *countingVisitor) VisitDo(DoNode) error               { return c.note("do") }
func (c *countingVisitor) VisitLambda(LambdaNode) error       { return c.note("lambda") }
func (c *countingVisitor) VisitIteration(IterationNode) error { return c.note("iteration") }
func (c *countingVisitor) VisitPath(PathNode) error           { return c.note("path") }
func (c *countingVisitor) VisitVariadic(VariadicNode) error   { return c.note("variadic") }
func (c *countingVisitor) VisitUnary(UnaryNode) error         { return c.note("unary") }
func (c *countingVisitor) VisitGet(GetNode) error             { return c.note("get") }
func (c *countingVisitor) VisitWrite(WriteNode) error         { return c.note("write") }
func (c *countingVisitor) VisitMatch(MatchNode) error         { return c.note("match") }
func (c *countingVisitor) VisitPaginate(PaginateNode) error   { return c.note("paginate") }

func TestAcceptDispatch(t *testing.T) {
	lambda := Must(Lambda("x", Var("x")))
	exprs := []Expr{
		Null(), Obj(), Var("x"), Array(), Object(), Quote(Long(1)),
		Must(Let([]Binding{Bind("x", Long(1))}, Var("x"))),
		If(Boolean(true), Long(1), Long(2)), Do(Long(1)), lambda,
		Map(lambda, Arr()), Must(Select(Path("a"), Obj())), Equals(Long(1)),
		Count(Var("s")), Get(Ref("classes/x/1")), Create(Ref("classes/x"), Obj()),
		Match(Long(1), Ref("indexes/i")), Paginate(Var("s")),
	}
	v := &countingVisitor{}
	for _, e := range exprs {
		require.NoError(t, e.Accept(v))
	}
	assert.Equal(t, []string{
		"value", "value", "var", "array", "object", "quote", "let", "if", "do", "lambda",
		"iteration", "path", "variadic", "unary", "get", "write", "match", "paginate",
	}, v.visited)
}
