package query

// Expr is any node that can appear as a query argument.
type Expr interface {
	Accept(Visitor) error
}

type Visitor interface {
	VisitValue(Value) error
	VisitVar(VarNode) error
	VisitArray(ArrayNode) error
	VisitObject(ObjectNode) error
	VisitQuote(QuoteNode) error
	VisitLet(LetNode) error
	VisitIf(IfNode) error
	VisitDo(DoNode) error
	VisitLambda(LambdaNode) error
	VisitIteration(IterationNode) error
	VisitPath(PathNode) error
	VisitVariadic(VariadicNode) error
	VisitUnary(UnaryNode) error
	VisitGet(GetNode) error
	VisitWrite(WriteNode) error
	VisitMatch(MatchNode) error
	VisitPaginate(PaginateNode) error
}
