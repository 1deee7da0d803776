package stream

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
)

// Encoder writes events as JSON text. Successive top-level values are
// separated by newlines.
type Encoder struct {
	enc   *jsontext.Encoder
	state *State
	opts  *streamOpts
}

// NewEncoder creates a new Encoder writing to w.
func NewEncoder(w io.Writer, opts ...StreamOption) *Encoder {
	streamOpts := &streamOpts{}
	for _, opt := range opts {
		opt(streamOpts)
	}
	var jOpts []jsontext.Options
	if streamOpts.indent != "" {
		jOpts = append(jOpts, jsontext.WithIndent(streamOpts.indent))
	}
	return &Encoder{
		enc:   jsontext.NewEncoder(w, jOpts...),
		state: NewState(),
		opts:  streamOpts,
	}
}

// WriteEvent writes one event.
func (e *Encoder) WriteEvent(ev *Event) error {
	if err := e.state.ProcessEvent(ev); err != nil {
		return &Error{Msg: err.Error(), Location: e.state.CurrentPath()}
	}
	var tok jsontext.Token
	switch ev.Type {
	case EventBeginObject:
		tok = jsontext.BeginObject
	case EventEndObject:
		tok = jsontext.EndObject
	case EventBeginArray:
		tok = jsontext.BeginArray
	case EventEndArray:
		tok = jsontext.EndArray
	case EventKey:
		tok = jsontext.String(ev.Key)
	case EventString:
		tok = jsontext.String(ev.String)
	case EventInt:
		tok = jsontext.Int(ev.Int)
	case EventFloat:
		tok = jsontext.Float(ev.Float)
	case EventBool:
		tok = jsontext.Bool(ev.Bool)
	case EventNull:
		tok = jsontext.Null
	default:
		return &Error{Msg: fmt.Sprintf("unknown event %s", ev.Type), Location: e.state.CurrentPath()}
	}
	if err := e.enc.WriteToken(tok); err != nil {
		return &Error{Msg: err.Error(), Location: e.state.CurrentPath()}
	}
	return nil
}

// Structure Control Methods

func (e *Encoder) BeginObject() error { return e.WriteEvent(&Event{Type: EventBeginObject}) }
func (e *Encoder) EndObject() error   { return e.WriteEvent(&Event{Type: EventEndObject}) }
func (e *Encoder) BeginArray() error  { return e.WriteEvent(&Event{Type: EventBeginArray}) }
func (e *Encoder) EndArray() error    { return e.WriteEvent(&Event{Type: EventEndArray}) }

// Value Writing Methods

func (e *Encoder) WriteKey(k string) error    { return e.WriteEvent(&Event{Type: EventKey, Key: k}) }
func (e *Encoder) WriteString(s string) error { return e.WriteEvent(&Event{Type: EventString, String: s}) }
func (e *Encoder) WriteInt(i int64) error     { return e.WriteEvent(&Event{Type: EventInt, Int: i}) }
func (e *Encoder) WriteFloat(f float64) error { return e.WriteEvent(&Event{Type: EventFloat, Float: f}) }
func (e *Encoder) WriteBool(b bool) error     { return e.WriteEvent(&Event{Type: EventBool, Bool: b}) }
func (e *Encoder) WriteNull() error           { return e.WriteEvent(&Event{Type: EventNull}) }

// Depth returns the current nesting depth (0 = top level).
func (e *Encoder) Depth() int {
	return e.state.Depth()
}

// CurrentPath returns the current path.
func (e *Encoder) CurrentPath() string {
	return e.state.CurrentPath()
}

// Offset returns the byte offset in the output stream.
func (e *Encoder) Offset() int64 {
	return e.enc.OutputOffset()
}
