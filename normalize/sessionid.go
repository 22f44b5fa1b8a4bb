package normalize

// SessionIDKey is the member name the upstream uses for the session identifier
const SessionIDKey = "session_id"

// FindSessionID searches v depth-first for the first object carrying a
// non-empty session_id member and returns that value as text. An object's
// own session_id is preferred over ones nested inside its members.
// Scalars never carry a session id, so FindSessionID is idempotent on its
// own output.
func FindSessionID(v Value) (string, bool) {
	var id string
	found := Walk(v, func(n Value) Action {
		if !n.IsObject() {
			return Continue
		}
		sid, ok := n.Get(SessionIDKey)
		if !ok || !sid.Truthy() || sid.IsArray() || sid.IsObject() {
			return Continue
		}
		id = sid.Text()
		return Stop
	})
	return id, found
}
