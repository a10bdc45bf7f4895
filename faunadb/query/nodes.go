package query

import (
	"fmt"
	"strings"

	"github.com/krew-solutions/faunadb-go/faunadb/option"
)

// Must panics if err is non-nil. It is meant for literal query trees.
func Must[T Expr](node T, err error) T {
	if err != nil {
		panic(err)
	}
	return node
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedExpression, fmt.Sprintf(format, args...))
}

// Binding names an expression: a Let variable or a key of an Object node.
type Binding struct {
	Name string
	Expr Expr
}

func Bind(name string, expr Expr) Binding {
	return Binding{Name: name, Expr: expr}
}

func Var(name string) VarNode {
	return VarNode{name: name}
}

type VarNode struct {
	name string
}

func (n VarNode) Name() string {
	return n.name
}

func (n VarNode) Accept(v Visitor) error {
	return v.VisitVar(n)
}

// Array builds an array whose elements are evaluated by the server.
func Array(items ...Expr) ArrayNode {
	return ArrayNode{items: append([]Expr(nil), items...)}
}

type ArrayNode struct {
	items []Expr
}

func (n ArrayNode) Items() []Expr {
	return append([]Expr(nil), n.items...)
}

func (n ArrayNode) Accept(v Visitor) error {
	return v.VisitArray(n)
}

// Object builds an object whose field values are evaluated by the server.
// A repeated name replaces the earlier expression in place.
func Object(fields ...Binding) ObjectNode {
	n := ObjectNode{}
	index := make(map[string]int, len(fields))
	for _, f := range fields {
		if i, found := index[f.Name]; found {
			n.fields[i] = f
			continue
		}
		index[f.Name] = len(n.fields)
		n.fields = append(n.fields, f)
	}
	return n
}

type ObjectNode struct {
	fields []Binding
}

func (n ObjectNode) Fields() []Binding {
	return append([]Binding(nil), n.fields...)
}

func (n ObjectNode) Accept(v Visitor) error {
	return v.VisitObject(n)
}

// Quote passes expr to the server unevaluated.
func Quote(expr Expr) QuoteNode {
	return QuoteNode{expr: expr}
}

type QuoteNode struct {
	expr Expr
}

func (n QuoteNode) Expr() Expr {
	return n.expr
}

func (n QuoteNode) Accept(v Visitor) error {
	return v.VisitQuote(n)
}

// Let binds variables, in order, for the evaluation of in.
func Let(bindings []Binding, in Expr) (LetNode, error) {
	if len(bindings) == 0 {
		return LetNode{}, malformed("let requires at least one binding")
	}
	seen := make(map[string]struct{}, len(bindings))
	for _, b := range bindings {
		if strings.TrimSpace(b.Name) == "" {
			return LetNode{}, malformed("let binding with blank name")
		}
		if _, dup := seen[b.Name]; dup {
			return LetNode{}, malformed("let binding %q is repeated", b.Name)
		}
		if b.Expr == nil {
			return LetNode{}, malformed("let binding %q has no expression", b.Name)
		}
		seen[b.Name] = struct{}{}
	}
	if in == nil {
		return LetNode{}, malformed("let requires a body")
	}
	return LetNode{bindings: append([]Binding(nil), bindings...), in: in}, nil
}

type LetNode struct {
	bindings []Binding
	in       Expr
}

func (n LetNode) Bindings() []Binding {
	return append([]Binding(nil), n.bindings...)
}

func (n LetNode) In() Expr {
	return n.in
}

func (n LetNode) Accept(v Visitor) error {
	return v.VisitLet(n)
}

func If(cond, then, els Expr) IfNode {
	return IfNode{cond: cond, then: then, els: els}
}

type IfNode struct {
	cond Expr
	then Expr
	els  Expr
}

func (n IfNode) Cond() Expr {
	return n.cond
}

func (n IfNode) Then() Expr {
	return n.then
}

func (n IfNode) Else() Expr {
	return n.els
}

func (n IfNode) Accept(v Visitor) error {
	return v.VisitIf(n)
}

// Do evaluates expressions in order and yields the last result.
func Do(first Expr, rest ...Expr) DoNode {
	return DoNode{exprs: append([]Expr{first}, rest...)}
}

type DoNode struct {
	exprs []Expr
}

func (n DoNode) Exprs() []Expr {
	return append([]Expr(nil), n.exprs...)
}

func (n DoNode) Accept(v Visitor) error {
	return v.VisitDo(n)
}

func Lambda(param string, body Expr) (LambdaNode, error) {
	if strings.TrimSpace(param) == "" {
		return LambdaNode{}, malformed("lambda with blank parameter")
	}
	if body == nil {
		return LambdaNode{}, malformed("lambda %q has no body", param)
	}
	return LambdaNode{param: param, body: body}, nil
}

type LambdaNode struct {
	param string
	body  Expr
}

func (n LambdaNode) Param() string {
	return n.param
}

func (n LambdaNode) Body() Expr {
	return n.body
}

func (n LambdaNode) Accept(v Visitor) error {
	return v.VisitLambda(n)
}

// Map applies lambda to every element and yields the results.
func Map(lambda LambdaNode, collection Expr) IterationNode {
	return IterationNode{operator: OperatorMap, lambda: lambda, collection: collection}
}

// Foreach applies lambda to every element for its effect and yields the collection.
func Foreach(lambda LambdaNode, collection Expr) IterationNode {
	return IterationNode{operator: OperatorForeach, lambda: lambda, collection: collection}
}

type IterationNode struct {
	operator   Operator
	lambda     LambdaNode
	collection Expr
}

func (n IterationNode) Operator() Operator {
	return n.operator
}

func (n IterationNode) Lambda() LambdaNode {
	return n.lambda
}

func (n IterationNode) Collection() Expr {
	return n.collection
}

func (n IterationNode) Accept(v Visitor) error {
	return v.VisitIteration(n)
}

func Select(path []PathSegment, from Expr) (PathNode, error) {
	return newPathNode(OperatorSelect, path, from)
}

func Contains(path []PathSegment, in Expr) (PathNode, error) {
	return newPathNode(OperatorContains, path, in)
}

func newPathNode(operator Operator, path []PathSegment, target Expr) (PathNode, error) {
	if len(path) == 0 {
		return PathNode{}, malformed("%s requires a non-empty path", operator)
	}
	if target == nil {
		return PathNode{}, malformed("%s requires a target", operator)
	}
	return PathNode{operator: operator, path: append([]PathSegment(nil), path...), target: target}, nil
}

type PathNode struct {
	operator Operator
	path     []PathSegment
	target   Expr
}

func (n PathNode) Operator() Operator {
	return n.operator
}

func (n PathNode) Path() []PathSegment {
	return append([]PathSegment(nil), n.path...)
}

func (n PathNode) Target() Expr {
	return n.target
}

func (n PathNode) Accept(v Visitor) error {
	return v.VisitPath(n)
}

func Add(first Expr, rest ...Expr) VariadicNode {
	return newVariadicNode(OperatorAdd, first, rest)
}

func Multiply(first Expr, rest ...Expr) VariadicNode {
	return newVariadicNode(OperatorMultiply, first, rest)
}

func Subtract(first Expr, rest ...Expr) VariadicNode {
	return newVariadicNode(OperatorSubtract, first, rest)
}

func Divide(first Expr, rest ...Expr) VariadicNode {
	return newVariadicNode(OperatorDivide, first, rest)
}

func Equals(first Expr, rest ...Expr) VariadicNode {
	return newVariadicNode(OperatorEquals, first, rest)
}

func Concat(first Expr, rest ...Expr) VariadicNode {
	return newVariadicNode(OperatorConcat, first, rest)
}

func Union(first Expr, rest ...Expr) VariadicNode {
	return newVariadicNode(OperatorUnion, first, rest)
}

func Intersection(first Expr, rest ...Expr) VariadicNode {
	return newVariadicNode(OperatorIntersection, first, rest)
}

func Difference(first Expr, rest ...Expr) VariadicNode {
	return newVariadicNode(OperatorDifference, first, rest)
}

func newVariadicNode(operator Operator, first Expr, rest []Expr) VariadicNode {
	return VariadicNode{operator: operator, operands: append([]Expr{first}, rest...)}
}

type VariadicNode struct {
	operator Operator
	operands []Expr
}

func (n VariadicNode) Operator() Operator {
	return n.operator
}

func (n VariadicNode) Operands() []Expr {
	return append([]Expr(nil), n.operands...)
}

func (n VariadicNode) Accept(v Visitor) error {
	return v.VisitVariadic(n)
}

func Exists(ref Expr) UnaryNode {
	return UnaryNode{operator: OperatorExists, operand: ref}
}

func Delete(ref Expr) UnaryNode {
	return UnaryNode{operator: OperatorDelete, operand: ref}
}

func Count(set Expr) UnaryNode {
	return UnaryNode{operator: OperatorCount, operand: set}
}

type UnaryNode struct {
	operator Operator
	operand  Expr
}

func (n UnaryNode) Operator() Operator {
	return n.operator
}

func (n UnaryNode) Operand() Expr {
	return n.operand
}

func (n UnaryNode) Accept(v Visitor) error {
	return v.VisitUnary(n)
}

func Get(ref Expr) GetNode {
	return GetNode{ref: ref}
}

type GetNode struct {
	ref Expr
	ts  option.Option[int64]
}

func (n GetNode) Ref() Expr {
	return n.ref
}

func (n GetNode) Ts() option.Option[int64] {
	return n.ts
}

// WithTs reads the resource as of the given snapshot timestamp.
func (n GetNode) WithTs(ts int64) GetNode {
	n.ts = option.Some(ts)
	return n
}

func (n GetNode) Accept(v Visitor) error {
	return v.VisitGet(n)
}

func Create(ref, params Expr) WriteNode {
	return WriteNode{operator: OperatorCreate, ref: ref, params: params}
}

// Update merges params into the stored resource; a null field removes it.
func Update(ref, params Expr) WriteNode {
	return WriteNode{operator: OperatorUpdate, ref: ref, params: params}
}

func Replace(ref, params Expr) WriteNode {
	return WriteNode{operator: OperatorReplace, ref: ref, params: params}
}

type WriteNode struct {
	operator Operator
	ref      Expr
	params   Expr
}

func (n WriteNode) Operator() Operator {
	return n.operator
}

func (n WriteNode) Ref() Expr {
	return n.ref
}

func (n WriteNode) Params() Expr {
	return n.params
}

func (n WriteNode) Accept(v Visitor) error {
	return v.VisitWrite(n)
}

// Match yields the set of index entries equal to term.
func Match(term, index Expr) MatchNode {
	return MatchNode{term: term, index: index}
}

type MatchNode struct {
	term  Expr
	index Expr
}

func (n MatchNode) Term() Expr {
	return n.term
}

func (n MatchNode) Index() Expr {
	return n.index
}

func (n MatchNode) Accept(v Visitor) error {
	return v.VisitMatch(n)
}
