package stream

import (
	"io"
	"strconv"
)

// Source provides events from a document.
type Source interface {
	// ReadEvent returns the next event, or io.EOF at the end of the input.
	ReadEvent() (*Event, error)
	// PeekEvent returns the next event without consuming it.
	PeekEvent() (*Event, error)
	// Location describes the current position for error messages.
	Location() string
}

// Sink receives events (builder, writer, etc.).
type Sink interface {
	WriteEvent(*Event) error
}

// SliceSource provides events from a fixed sequence.
type SliceSource struct {
	events []Event
	i      int
	state  *State
}

func NewSliceSource(events []Event) *SliceSource {
	return &SliceSource{events: events, state: NewState()}
}

func (s *SliceSource) ReadEvent() (*Event, error) {
	ev, err := s.PeekEvent()
	if err != nil {
		return nil, err
	}
	if err := s.state.ProcessEvent(ev); err != nil {
		return nil, &Error{Msg: err.Error(), Location: s.Location()}
	}
	s.i++
	return ev, nil
}

func (s *SliceSource) PeekEvent() (*Event, error) {
	if s.i >= len(s.events) {
		return nil, io.EOF
	}
	ev := s.events[s.i]
	return &ev, nil
}

func (s *SliceSource) Location() string {
	return "event " + strconv.Itoa(s.i) + " at " + s.state.CurrentPath()
}

// Events collects events written to it.
type Events []Event

func (es *Events) WriteEvent(ev *Event) error {
	*es = append(*es, *ev)
	return nil
}
