package arch

import "fmt"

// Kind is one of the four architype kinds.
type Kind uint8

const (
	KindObject Kind = iota + 1
	KindNode
	KindEdge
	KindWalker
)

var kindNames = map[Kind]string{
	KindObject: "object",
	KindNode:   "node",
	KindEdge:   "edge",
	KindWalker: "walker",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind converts the lowercase kind keyword into a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown architype kind %q", s)
}

// Event is the traversal event an ability is triggered on.
type Event uint8

const (
	// EventNone marks a plain ability that never fires during traversal.
	EventNone Event = iota
	EventEntry
	EventExit
)

func (e Event) String() string {
	switch e {
	case EventEntry:
		return "entry"
	case EventExit:
		return "exit"
	default:
		return "none"
	}
}

// ParseEvent converts "entry", "exit" or "" / "none" into an Event.
func ParseEvent(s string) (Event, error) {
	switch s {
	case "", "none":
		return EventNone, nil
	case "entry":
		return EventEntry, nil
	case "exit":
		return EventExit, nil
	}
	return EventNone, fmt.Errorf("unknown event %q (expected entry or exit)", s)
}
