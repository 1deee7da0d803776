package stream

import "fmt"

// Event represents a structural event of a document.
// Events correspond to the encoder's API methods, providing a symmetric
// encode/decode interface.
type Event struct {
	Type EventType

	// Value fields (only one is set based on Type)
	Key    string
	String string
	Int    int64
	Float  float64
	Bool   bool
}

// IsValueStart returns true if this event starts a value (as opposed to a key or end marker).
// Value-starting events are: BeginObject, BeginArray, String, Int, Float, Bool, Null.
func (e *Event) IsValueStart() bool {
	return e.Type == EventBeginObject ||
		e.Type == EventBeginArray ||
		e.Type.IsScalar()
}

func (e *Event) GoString() string {
	switch e.Type {
	case EventKey:
		return fmt.Sprintf("Key(%q)", e.Key)
	case EventString:
		return fmt.Sprintf("String(%q)", e.String)
	case EventInt:
		return fmt.Sprintf("Int(%d)", e.Int)
	case EventFloat:
		return fmt.Sprintf("Float(%g)", e.Float)
	case EventBool:
		return fmt.Sprintf("Bool(%t)", e.Bool)
	default:
		return e.Type.String()
	}
}

// EventType represents the type of a structural event.
type EventType int

const (
	EventBeginObject EventType = iota
	EventEndObject
	EventBeginArray
	EventEndArray
	EventKey
	EventString
	EventInt
	EventFloat
	EventBool
	EventNull
)

func (t EventType) String() string {
	switch t {
	case EventBeginObject:
		return "BeginObject"
	case EventEndObject:
		return "EndObject"
	case EventBeginArray:
		return "BeginArray"
	case EventEndArray:
		return "EndArray"
	case EventKey:
		return "Key"
	case EventString:
		return "String"
	case EventInt:
		return "Int"
	case EventFloat:
		return "Float"
	case EventBool:
		return "Bool"
	case EventNull:
		return "Null"
	default:
		return "Unknown"
	}
}

// IsScalar reports whether t carries a complete leaf value.
func (t EventType) IsScalar() bool {
	switch t {
	case EventString, EventInt, EventFloat, EventBool, EventNull:
		return true
	default:
		return false
	}
}

func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(d []byte) error {
	k := string(d)
	pt, ok := map[string]EventType{
		"BeginObject": EventBeginObject,
		"EndObject":   EventEndObject,
		"BeginArray":  EventBeginArray,
		"EndArray":    EventEndArray,
		"Key":         EventKey,
		"String":      EventString,
		"Int":         EventInt,
		"Float":       EventFloat,
		"Bool":        EventBool,
		"Null":        EventNull,
	}[k]
	if ok {
		*t = pt
		return nil
	}
	return fmt.Errorf("unknown type %q", k)
}
