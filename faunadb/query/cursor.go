package query

type Direction int

const (
	DirectionBefore Direction = iota + 1
	DirectionAfter
)

func (d Direction) String() string {
	switch d {
	case DirectionBefore:
		return KeyBefore
	case DirectionAfter:
		return KeyAfter
	}
	return "unknown"
}

// Cursor marks a position in a set for Paginate. The value is whatever a
// previous Page returned as its before or after marker.
type Cursor struct {
	direction Direction
	value     Value
}

func Before(v Value) Cursor {
	return Cursor{direction: DirectionBefore, value: v}
}

func After(v Value) Cursor {
	return Cursor{direction: DirectionAfter, value: v}
}

func (c Cursor) Direction() Direction {
	return c.direction
}

func (c Cursor) Value() Value {
	return c.value
}
