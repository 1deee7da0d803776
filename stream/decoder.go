package stream

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-json-experiment/json/jsontext"
)

// Decoder provides structural event-based decoding of JSON text.
// It reads a sequence of top-level values and returns io.EOF after the last.
type Decoder struct {
	dec    *jsontext.Decoder
	state  *State
	opts   *streamOpts
	peeked *Event
}

// NewDecoder creates a new Decoder reading from r.
func NewDecoder(r io.Reader, opts ...StreamOption) *Decoder {
	streamOpts := &streamOpts{}
	for _, opt := range opts {
		opt(streamOpts)
	}
	return &Decoder{
		dec:   jsontext.NewDecoder(r),
		state: NewState(),
		opts:  streamOpts,
	}
}

// ReadEvent reads the next structural event from the stream.
// Low-level tokens (commas, colons) are elided.
// Returns io.EOF when stream is exhausted.
func (d *Decoder) ReadEvent() (*Event, error) {
	event, err := d.PeekEvent()
	if err != nil {
		return nil, err
	}
	d.peeked = nil
	if err := d.state.ProcessEvent(event); err != nil {
		return nil, &Error{Msg: err.Error(), Location: d.Location()}
	}
	return event, nil
}

// PeekEvent returns the next event without consuming it.
func (d *Decoder) PeekEvent() (*Event, error) {
	if d.peeked != nil {
		return d.peeked, nil
	}
	tok, err := d.dec.ReadToken()
	if err != nil {
		if errors.Is(err, io.EOF) && d.state.Depth() == 0 {
			return nil, io.EOF
		}
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &Error{Msg: err.Error(), Location: d.Location()}
	}
	event, err := d.tokenToEvent(tok)
	if err != nil {
		return nil, err
	}
	d.peeked = event
	return event, nil
}

func (d *Decoder) tokenToEvent(tok jsontext.Token) (*Event, error) {
	switch tok.Kind() {
	case '{':
		return &Event{Type: EventBeginObject}, nil
	case '}':
		return &Event{Type: EventEndObject}, nil
	case '[':
		return &Event{Type: EventBeginArray}, nil
	case ']':
		return &Event{Type: EventEndArray}, nil
	case 'n':
		return &Event{Type: EventNull}, nil
	case 't', 'f':
		return &Event{Type: EventBool, Bool: tok.Bool()}, nil
	case '"':
		// jsontext reports object names as strings; the state knows which
		// position we are in.
		if d.state.ExpectsKey() {
			return &Event{Type: EventKey, Key: tok.String()}, nil
		}
		return &Event{Type: EventString, String: tok.String()}, nil
	case '0':
		raw := tok.String()
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return &Event{Type: EventInt, Int: i}, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &Error{Msg: fmt.Sprintf("number %s: %v", raw, err), Location: d.Location()}
		}
		return &Event{Type: EventFloat, Float: f}, nil
	default:
		return nil, &Error{Msg: fmt.Sprintf("unexpected token %s", tok.Kind()), Location: d.Location()}
	}
}

// Depth returns the current nesting depth (0 = top level).
func (d *Decoder) Depth() int {
	return d.state.Depth()
}

// CurrentPath returns the path of the last consumed event.
func (d *Decoder) CurrentPath() string {
	return d.state.CurrentPath()
}

// Offset returns the byte offset in the input stream.
func (d *Decoder) Offset() int64 {
	return d.dec.InputOffset()
}

// Location reports the byte offset and document path.
func (d *Decoder) Location() string {
	return fmt.Sprintf("offset %d at %s", d.dec.InputOffset(), d.state.CurrentPath())
}
