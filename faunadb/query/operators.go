package query

// Operator is the reserved wire key that names a query form.
type Operator string

const (
	// Special forms

	OperatorLet     Operator = "let"
	OperatorIf      Operator = "if"
	OperatorDo      Operator = "do"
	OperatorLambda  Operator = "lambda"
	OperatorVar     Operator = "var"
	OperatorQuote   Operator = "quote"
	OperatorObject  Operator = "object"
	OperatorMap     Operator = "map"
	OperatorForeach Operator = "foreach"

	// Path selection

	OperatorSelect   Operator = "select"
	OperatorContains Operator = "contains"

	// Arithmetic, comparison and strings

	OperatorAdd      Operator = "add"
	OperatorMultiply Operator = "multiply"
	OperatorSubtract Operator = "subtract"
	OperatorDivide   Operator = "divide"
	OperatorEquals   Operator = "equals"
	OperatorConcat   Operator = "concat"

	// Resources

	OperatorGet     Operator = "get"
	OperatorExists  Operator = "exists"
	OperatorCount   Operator = "count"
	OperatorCreate  Operator = "create"
	OperatorUpdate  Operator = "update"
	OperatorReplace Operator = "replace"
	OperatorDelete  Operator = "delete"

	// Sets

	OperatorMatch        Operator = "match"
	OperatorUnion        Operator = "union"
	OperatorIntersection Operator = "intersection"
	OperatorDifference   Operator = "difference"
	OperatorPaginate     Operator = "paginate"
)

// Companion keys of multi-key forms.
const (
	KeyIn         = "in"
	KeyThen       = "then"
	KeyElse       = "else"
	KeyExpr       = "expr"
	KeyCollection = "collection"
	KeyFrom       = "from"
	KeyParams     = "params"
	KeyIndex      = "index"
	KeyTs         = "ts"
	KeySize       = "size"
	KeyEvents     = "events"
	KeyBefore     = "before"
	KeyAfter      = "after"
)

// Wrapper keys of tagged literals.
const (
	KeyRef       = "@ref"
	KeySet       = "@set"
	KeyTimestamp = "@ts"
)
