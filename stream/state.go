package stream

import (
	"errors"
	"strings"

	"github.com/signadot/beanmap/ir"
)

// State provides minimal stack/state/path management.
// Just processes events and tracks state - no tokenization, no io.Reader.
type State struct {
	stack []item
}

type item struct {
	array  bool
	key    string
	index  int
	hasKey bool
}

// NewState creates a new State for tracking structure state.
func NewState() *State {
	return &State{}
}

func (s *State) current() *item {
	return &s.stack[len(s.stack)-1]
}

// value records that a value is starting in the current container.
func (s *State) value() error {
	if len(s.stack) == 0 {
		return nil
	}
	cur := s.current()
	if cur.array {
		cur.index++
		return nil
	}
	if !cur.hasKey {
		return errors.New("value without key")
	}
	cur.hasKey = false
	return nil
}

// ProcessEvent processes an event and updates state/path tracking.
// Call this for each event in order.
func (s *State) ProcessEvent(event *Event) error {
	switch event.Type {
	case EventBeginObject:
		if err := s.value(); err != nil {
			return err
		}
		s.stack = append(s.stack, item{})

	case EventBeginArray:
		if err := s.value(); err != nil {
			return err
		}
		s.stack = append(s.stack, item{array: true, index: -1})

	case EventEndObject:
		if s.Depth() <= 0 {
			return errors.New("negative depth")
		}
		cur := s.current()
		if cur.array {
			return errors.New("end object in array")
		}
		if cur.hasKey {
			return errors.New("key with no value")
		}
		s.stack = s.stack[:len(s.stack)-1]

	case EventEndArray:
		if s.Depth() <= 0 {
			return errors.New("negative depth")
		}
		if !s.current().array {
			return errors.New("end array in object")
		}
		s.stack = s.stack[:len(s.stack)-1]

	case EventString, EventInt, EventFloat, EventBool, EventNull:
		return s.value()

	case EventKey:
		if len(s.stack) == 0 || s.current().array {
			return errors.New("key not in object")
		}
		cur := s.current()
		if cur.hasKey {
			return errors.New("key after key")
		}
		cur.hasKey = true
		cur.key = event.Key
	default:
		return errors.New("unknown event " + event.Type.String())
	}
	return nil
}

// Depth returns the current nesting depth (0 = top level).
func (s *State) Depth() int {
	return len(s.stack)
}

// CurrentPath returns the current path (e.g., "$", "$.key", "$.key[0]").
func (s *State) CurrentPath() string {
	var b strings.Builder
	b.WriteString("$")
	for i := range s.stack {
		it := &s.stack[i]
		if it.array {
			if it.index >= 0 {
				b.WriteString(ir.PathIndex(it.index))
			}
			continue
		}
		if it.key != "" || it.hasKey {
			b.WriteString(ir.PathField(it.key))
		}
	}
	return b.String()
}

// IsInObject returns true if currently inside an object.
func (s *State) IsInObject() bool {
	return len(s.stack) > 0 && !s.current().array
}

// IsInArray returns true if currently inside an array.
func (s *State) IsInArray() bool {
	return len(s.stack) > 0 && s.current().array
}

// ExpectsKey returns true if the next event must be a key or the end of
// an object.
func (s *State) ExpectsKey() bool {
	return s.IsInObject() && !s.current().hasKey
}

// CurrentKey returns the current object key (if in object).
func (s *State) CurrentKey() (string, bool) {
	if !s.IsInObject() {
		return "", false
	}
	cur := s.current()
	return cur.key, cur.hasKey || cur.key != ""
}

// CurrentIndex returns the current array index (if in array).
func (s *State) CurrentIndex() (int, bool) {
	if !s.IsInArray() {
		return 0, false
	}
	cur := s.current()
	return cur.index, cur.index >= 0
}
