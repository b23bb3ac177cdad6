// Package lifecycle defines the two-state visibility tag used by entities
// that are hidden rather than deleted once other rows reference them.
package lifecycle

// Lifecycle is an entity visibility state.
type Lifecycle string

const (
	Active Lifecycle = "ACTIVE"
	Hidden Lifecycle = "HIDDEN"
)

func (l Lifecycle) Valid() bool {
	return l == Active || l == Hidden
}

func (l Lifecycle) IsActive() bool {
	return l == Active
}
