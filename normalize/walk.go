package normalize

// Action tells Walk how to proceed after visiting a node
type Action int

const (
	// Continue descends into the node's children
	Continue Action = iota
	// SkipChildren moves on to the next sibling
	SkipChildren
	// Stop ends the walk
	Stop
)

// Visitor is called once per node in depth-first pre-order
type Visitor func(v Value) Action

// Walk visits v and every nested value depth-first, arrays in index order and
// objects in member order. It reports whether a visitor returned Stop.
func Walk(v Value, visit Visitor) bool {
	switch visit(v) {
	case Stop:
		return true
	case SkipChildren:
		return false
	}
	switch v.kind {
	case KindArray:
		for _, item := range v.items {
			if Walk(item, visit) {
				return true
			}
		}
	case KindObject:
		for _, m := range v.members {
			if Walk(m.Value, visit) {
				return true
			}
		}
	}
	return false
}

// Find returns the first value, in Walk order, satisfying match
func Find(v Value, match func(Value) bool) (Value, bool) {
	var found Value
	ok := Walk(v, func(n Value) Action {
		if match(n) {
			found = n
			return Stop
		}
		return Continue
	})
	return found, ok
}
