package resource

// Handle is an opaque reference to a slot in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Event types for slot lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventBorrowed
	EventBorrowReturned
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow-returned"
	default:
		return "unknown"
	}
}

// Event represents a slot lifecycle event.
type Event struct {
	Value  any
	Owner  int64
	Handle Handle
	TypeID uint32
	Type   EventType
}

// Observer receives notifications about slot lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Backend provides the underlying storage mechanism for slots.
type Backend interface {
	// Create stores a value owned by owner and returns a handle.
	Create(typeID uint32, owner int64, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Drop removes a slot and returns its value.
	// Fails with ErrInvalidHandle or ErrOutstandingBorrow.
	Drop(handle Handle) (any, error)

	// TypeID returns the type ID for a handle.
	TypeID(handle Handle) (uint32, bool)

	// Owner returns the owner recorded for a handle.
	Owner(handle Handle) (int64, bool)

	// Borrow increments the borrow count for a handle.
	Borrow(handle Handle) bool

	// ReturnBorrow decrements the borrow count for a handle.
	ReturnBorrow(handle Handle) bool

	// Close releases all slots held by the backend.
	Close() error
}

// Table manages slots with type information and observer support.
type Table interface {
	// Insert adds a value and returns its handle.
	Insert(typeID uint32, owner int64, value any) Handle

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// GetTyped retrieves a value only if it matches the expected type.
	GetTyped(handle Handle, typeID uint32) (any, bool)

	// Remove drops a slot and returns its value.
	Remove(handle Handle) (any, error)

	// Subscribe adds an observer for lifecycle events.
	Subscribe(Observer)

	// Unsubscribe removes an observer.
	Unsubscribe(Observer)

	// Len returns the number of active slots.
	Len() int

	// Clear drops all slots.
	Clear()

	// Close releases all slots and stops accepting operations.
	Close() error
}

// Dropper is optionally implemented by slot values that need cleanup.
type Dropper interface {
	Drop()
}
