package remote

import "github.com/weftui/weft/pkg/state"

// Event kinds streamed to WebSocket subscribers.
const (
	// EventScopeRemoved announces that a scope (and its subtree) was
	// torn down.
	EventScopeRemoved = "scope-removed"

	// EventVarChanged announces a variable update accepted over HTTP.
	EventVarChanged = "var-changed"
)

// Event is one structural or variable notification.
type Event struct {
	Kind  string        `json:"kind"`
	Scope state.ScopeID `json:"scope,omitempty"`
	Name  string        `json:"name,omitempty"`
	Value state.Value   `json:"value,omitempty"`
}
