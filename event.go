package dynarray

// Engine names used in events and metric labels.
const (
	EngineArray = "array"
	EngineRaw   = "raw"
)

// EventType identifies an array lifecycle transition.
type EventType uint8

const (
	EventCreated EventType = iota
	EventGrown
	EventDestroyed
	EventAllocFailed
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventGrown:
		return "grown"
	case EventDestroyed:
		return "destroyed"
	case EventAllocFailed:
		return "alloc_failed"
	default:
		return "unknown"
	}
}

// Event describes one lifecycle transition of an array.
// Capacity is the capacity after the transition; PrevCapacity is only set
// for EventGrown and EventAllocFailed.
type Event struct {
	Engine       string
	ElemSize     uint64
	Capacity     uint64
	PrevCapacity uint64
	Length       uint64
	Type         EventType
}

// Observer receives array lifecycle events.
// Observers run synchronously on the goroutine performing the operation.
type Observer interface {
	OnArrayEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnArrayEvent calls f(e).
func (f ObserverFunc) OnArrayEvent(e Event) {
	f(e)
}
