package live

// EventType mirrors the vendor session callbacks: open, message, error, close.
type EventType int

const (
	EventOpen EventType = iota
	EventMessage
	EventError
	EventClose
)

func (t EventType) String() string {
	switch t {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event is one inbound notification from a Transport.
type Event struct {
	Type    EventType
	Content *ServerContent
	Err     error
	Reason  string
}
