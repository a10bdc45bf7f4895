package query

import "strconv"

// PathSegment is one step of a Select or Contains path: an object key or an
// array index.
type PathSegment struct {
	key     string
	index   int
	isIndex bool
}

func ObjectKey(name string) PathSegment {
	return PathSegment{key: name}
}

func ArrayIndex(i int) PathSegment {
	return PathSegment{index: i, isIndex: true}
}

// Path builds a path from strings and ints. Any other argument type panics.
func Path(segments ...any) []PathSegment {
	path := make([]PathSegment, 0, len(segments))
	for _, s := range segments {
		switch s := s.(type) {
		case string:
			path = append(path, ObjectKey(s))
		case int:
			path = append(path, ArrayIndex(s))
		case PathSegment:
			path = append(path, s)
		default:
			panic(malformed("path segment of type %T", s))
		}
	}
	return path
}

func (s PathSegment) IsIndex() bool {
	return s.isIndex
}

func (s PathSegment) Key() string {
	return s.key
}

func (s PathSegment) Index() int {
	return s.index
}

// Value returns the literal the segment is encoded as.
func (s PathSegment) Value() Value {
	if s.isIndex {
		return Long(int64(s.index))
	}
	return String(s.key)
}

func (s PathSegment) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}
