package arena

// Handle is an opaque reference to a value in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// EventType identifies a table lifecycle notification.
type EventType uint8

const (
	EventInserted EventType = iota
	EventRemoved
)

// Event represents a table lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Tag    uint32
	Type   EventType
}

// Observer receives notifications about table lifecycle events.
type Observer interface {
	OnArenaEvent(Event)
}
