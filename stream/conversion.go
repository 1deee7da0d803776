package stream

import (
	"fmt"
	"io"
	"strconv"

	"github.com/signadot/beanmap/ir"
)

// NodeToEvents converts an ir.Node to a sequence of events.
func NodeToEvents(node *ir.Node) ([]Event, error) {
	var events Events
	if err := WriteNode(&events, node); err != nil {
		return nil, err
	}
	return events, nil
}

// EventsToNode converts the events of exactly one value to an ir.Node.
func EventsToNode(events []Event) (*ir.Node, error) {
	src := NewSliceSource(events)
	node, err := ReadNode(src)
	if err != nil {
		return nil, err
	}
	if _, err := src.ReadEvent(); err != io.EOF {
		return nil, &Error{Msg: "trailing events", Location: src.Location()}
	}
	return node, nil
}

// WriteNode writes the events of node to dst.
func WriteNode(dst Sink, node *ir.Node) error {
	switch node.Type {
	case ir.ObjectType:
		if err := dst.WriteEvent(&Event{Type: EventBeginObject}); err != nil {
			return err
		}
		for i, f := range node.Fields {
			if err := dst.WriteEvent(&Event{Type: EventKey, Key: f.String}); err != nil {
				return err
			}
			if err := WriteNode(dst, node.Values[i]); err != nil {
				return err
			}
		}
		return dst.WriteEvent(&Event{Type: EventEndObject})
	case ir.ArrayType:
		if err := dst.WriteEvent(&Event{Type: EventBeginArray}); err != nil {
			return err
		}
		for _, v := range node.Values {
			if err := WriteNode(dst, v); err != nil {
				return err
			}
		}
		return dst.WriteEvent(&Event{Type: EventEndArray})
	case ir.StringType:
		return dst.WriteEvent(&Event{Type: EventString, String: node.String})
	case ir.BoolType:
		return dst.WriteEvent(&Event{Type: EventBool, Bool: node.Bool})
	case ir.NullType:
		return dst.WriteEvent(&Event{Type: EventNull})
	case ir.NumberType:
		switch {
		case node.Int64 != nil:
			return dst.WriteEvent(&Event{Type: EventInt, Int: *node.Int64})
		case node.Float64 != nil:
			return dst.WriteEvent(&Event{Type: EventFloat, Float: *node.Float64})
		}
		if i, err := strconv.ParseInt(node.Number, 10, 64); err == nil {
			return dst.WriteEvent(&Event{Type: EventInt, Int: i})
		}
		f, err := strconv.ParseFloat(node.Number, 64)
		if err != nil {
			return fmt.Errorf("number %q at %s: %w", node.Number, node.Path(), err)
		}
		return dst.WriteEvent(&Event{Type: EventFloat, Float: f})
	default:
		return fmt.Errorf("unknown node type %s at %s", node.Type, node.Path())
	}
}

// NodeReader provides the events of an ir.Node as a Source.
type NodeReader struct {
	events []Event
	paths  []string
	i      int
}

// NewNodeReader creates a Source reading node.
func NewNodeReader(node *ir.Node) (*NodeReader, error) {
	r := &NodeReader{}
	if err := r.add(node); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *NodeReader) emit(y *ir.Node, ev Event) {
	r.events = append(r.events, ev)
	r.paths = append(r.paths, y.Path())
}

func (r *NodeReader) add(y *ir.Node) error {
	switch y.Type {
	case ir.ObjectType:
		r.emit(y, Event{Type: EventBeginObject})
		for i, f := range y.Fields {
			v := y.Values[i]
			r.emit(v, Event{Type: EventKey, Key: f.String})
			if err := r.add(v); err != nil {
				return err
			}
		}
		r.emit(y, Event{Type: EventEndObject})
	case ir.ArrayType:
		r.emit(y, Event{Type: EventBeginArray})
		for _, v := range y.Values {
			if err := r.add(v); err != nil {
				return err
			}
		}
		r.emit(y, Event{Type: EventEndArray})
	default:
		var leaf Events
		if err := WriteNode(&leaf, y); err != nil {
			return err
		}
		r.emit(y, leaf[0])
	}
	return nil
}

func (r *NodeReader) ReadEvent() (*Event, error) {
	ev, err := r.PeekEvent()
	if err != nil {
		return nil, err
	}
	r.i++
	return ev, nil
}

func (r *NodeReader) PeekEvent() (*Event, error) {
	if r.i >= len(r.events) {
		return nil, io.EOF
	}
	ev := r.events[r.i]
	return &ev, nil
}

// Location reports the path of the next event.
func (r *NodeReader) Location() string {
	if r.i >= len(r.paths) {
		return "end of document"
	}
	return r.paths[r.i]
}

type nodeFrame struct {
	node *ir.Node
	key  string
}

// NodeBuilder builds ir.Nodes from the events written to it.
type NodeBuilder struct {
	state *State
	stack []nodeFrame
	done  []*ir.Node
}

func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{state: NewState()}
}

func (b *NodeBuilder) WriteEvent(ev *Event) error {
	if err := b.state.ProcessEvent(ev); err != nil {
		return &Error{Msg: err.Error(), Location: b.state.CurrentPath()}
	}
	switch ev.Type {
	case EventBeginObject:
		node := &ir.Node{Type: ir.ObjectType}
		b.add(node)
		b.stack = append(b.stack, nodeFrame{node: node})
	case EventBeginArray:
		node := &ir.Node{Type: ir.ArrayType}
		b.add(node)
		b.stack = append(b.stack, nodeFrame{node: node})
	case EventEndObject, EventEndArray:
		node := b.stack[len(b.stack)-1].node
		b.stack = b.stack[:len(b.stack)-1]
		if len(b.stack) == 0 {
			b.done = append(b.done, node)
		}
	case EventKey:
		b.stack[len(b.stack)-1].key = ev.Key
	case EventString:
		b.leaf(ir.FromString(ev.String))
	case EventInt:
		b.leaf(ir.FromInt(ev.Int))
	case EventFloat:
		b.leaf(ir.FromFloat(ev.Float))
	case EventBool:
		b.leaf(ir.FromBool(ev.Bool))
	case EventNull:
		b.leaf(ir.Null())
	}
	return nil
}

func (b *NodeBuilder) leaf(node *ir.Node) {
	b.add(node)
	if len(b.stack) == 0 {
		b.done = append(b.done, node)
	}
}

func (b *NodeBuilder) add(node *ir.Node) {
	if len(b.stack) == 0 {
		return
	}
	parent := &b.stack[len(b.stack)-1]
	if parent.node.Type == ir.ObjectType {
		parent.node.Put(parent.key, node)
		return
	}
	parent.node.Append(node)
}

// Nodes returns the completed top-level values.
func (b *NodeBuilder) Nodes() []*ir.Node {
	return b.done
}

// Node returns the first completed top-level value, or nil.
func (b *NodeBuilder) Node() *ir.Node {
	if len(b.done) == 0 {
		return nil
	}
	return b.done[0]
}

// Copy copies exactly one value from src to dst.
func Copy(dst Sink, src Source) error {
	depth := 0
	for {
		ev, err := src.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return &Error{Msg: "unexpected end of events", Location: src.Location()}
			}
			return err
		}
		if err := dst.WriteEvent(ev); err != nil {
			return err
		}
		switch ev.Type {
		case EventBeginObject, EventBeginArray:
			depth++
		case EventEndObject, EventEndArray:
			depth--
		case EventKey:
			continue
		}
		if depth == 0 {
			return nil
		}
		if depth < 0 {
			return &Error{Msg: "unbalanced " + ev.Type.String(), Location: src.Location()}
		}
	}
}

type discard struct{}

func (discard) WriteEvent(*Event) error { return nil }

// Skip discards exactly one value from src.
func Skip(src Source) error {
	return Copy(discard{}, src)
}

// ReadNode reads exactly one value from src into an ir.Node.
func ReadNode(src Source) (*ir.Node, error) {
	b := NewNodeBuilder()
	if err := Copy(b, src); err != nil {
		return nil, err
	}
	return b.Node(), nil
}
