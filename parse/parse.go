// Package parse reads documents into ir.Nodes.
package parse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/signadot/beanmap/format"
	"github.com/signadot/beanmap/ir"
	"github.com/signadot/beanmap/stream"
)

// Parse reads exactly one document. The default format is JSON.
func Parse(d []byte, opts ...ParseOption) (*ir.Node, error) {
	pOpts := &parseOpts{format: format.JSONFormat}
	for _, f := range opts {
		f(pOpts)
	}
	switch pOpts.format {
	case format.JSONFormat:
		return parseJSON(d)
	case format.YAMLFormat:
		return parseYAML(d)
	case format.MsgpackFormat:
		return parseMsgpack(d)
	default:
		return nil, fmt.Errorf("%w: %d", format.ErrBadFormat, pOpts.format)
	}
}

func parseJSON(d []byte) (*ir.Node, error) {
	dec := stream.NewDecoder(bytes.NewReader(d))
	node, err := stream.ReadNode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.ReadEvent(); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, &stream.Error{Msg: "trailing data after document", Location: dec.Location()}
		}
		return nil, err
	}
	return node, nil
}

func parseYAML(d []byte) (*ir.Node, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(d, &v, yaml.UseOrderedMap()); err != nil {
		return nil, err
	}
	return fromYAML(v)
}

func fromYAML(v any) (*ir.Node, error) {
	switch x := v.(type) {
	case yaml.MapSlice:
		res := &ir.Node{Type: ir.ObjectType}
		for _, item := range x {
			val, err := fromYAML(item.Value)
			if err != nil {
				return nil, err
			}
			res.Put(keyString(item.Key), val)
		}
		return res, nil
	case map[string]any:
		m := make(map[string]*ir.Node, len(x))
		for k, xv := range x {
			val, err := fromYAML(xv)
			if err != nil {
				return nil, err
			}
			m[k] = val
		}
		return ir.FromMap(m), nil
	case []any:
		res := &ir.Node{Type: ir.ArrayType}
		for _, xv := range x {
			val, err := fromYAML(xv)
			if err != nil {
				return nil, err
			}
			res.Append(val)
		}
		return res, nil
	default:
		return scalar(v)
	}
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

func scalar(v any) (*ir.Node, error) {
	switch x := v.(type) {
	case nil:
		return ir.Null(), nil
	case bool:
		return ir.FromBool(x), nil
	case string:
		return ir.FromString(x), nil
	case []byte:
		return ir.FromString(string(x)), nil
	case int:
		return ir.FromInt(int64(x)), nil
	case int8:
		return ir.FromInt(int64(x)), nil
	case int16:
		return ir.FromInt(int64(x)), nil
	case int32:
		return ir.FromInt(int64(x)), nil
	case int64:
		return ir.FromInt(x), nil
	case uint:
		return fromUint(uint64(x)), nil
	case uint8:
		return ir.FromInt(int64(x)), nil
	case uint16:
		return ir.FromInt(int64(x)), nil
	case uint32:
		return ir.FromInt(int64(x)), nil
	case uint64:
		return fromUint(x), nil
	case float32:
		return ir.FromFloat(float64(x)), nil
	case float64:
		return ir.FromFloat(x), nil
	case fmt.Stringer:
		return ir.FromString(x.String()), nil
	default:
		return nil, fmt.Errorf("unsupported document value %T", v)
	}
}

func fromUint(u uint64) *ir.Node {
	if u > math.MaxInt64 {
		return ir.FromFloat(float64(u))
	}
	return ir.FromInt(int64(u))
}

func parseMsgpack(d []byte) (*ir.Node, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(d))
	dec.UseLooseInterfaceDecoding(true)
	node, err := fromMsgpack(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.PeekCode(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after msgpack document")
	}
	return node, nil
}

func fromMsgpack(dec *msgpack.Decoder) (*ir.Node, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	switch {
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		res := &ir.Node{Type: ir.ObjectType}
		for range n {
			k, err := dec.DecodeInterfaceLoose()
			if err != nil {
				return nil, err
			}
			val, err := fromMsgpack(dec)
			if err != nil {
				return nil, err
			}
			res.Put(keyString(k), val)
		}
		return res, nil
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		res := &ir.Node{Type: ir.ArrayType}
		for range n {
			val, err := fromMsgpack(dec)
			if err != nil {
				return nil, err
			}
			res.Append(val)
		}
		return res, nil
	default:
		v, err := dec.DecodeInterfaceLoose()
		if err != nil {
			return nil, err
		}
		return scalar(v)
	}
}
