package object

// Handle is an opaque reference to an exported object in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// EventType enumerates object lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventAcquired
	EventReleased
	EventDestroyed
)

// Event represents an object lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	TypeID uint32
	Refs   uint32
	Type   EventType
}

// Observer receives notifications about object lifecycle events.
type Observer interface {
	OnObjectEvent(Event)
}

// Dropper is optionally implemented by object values that need cleanup
// when their last reference is released.
type Dropper interface {
	Drop()
}
