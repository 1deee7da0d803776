// Package encode writes ir.Nodes as documents.
package encode

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/signadot/beanmap/format"
	"github.com/signadot/beanmap/ir"
	"github.com/signadot/beanmap/stream"
)

// Encode writes node to w. The default format is JSON.
func Encode(node *ir.Node, w io.Writer, opts ...EncodeOption) error {
	es := &EncState{format: format.JSONFormat}
	for _, opt := range opts {
		opt(es)
	}
	switch es.format {
	case format.JSONFormat:
		if es.Color != nil {
			return encodeColorJSON(node, w, es)
		}
		var sOpts []stream.StreamOption
		if es.indent != "" {
			sOpts = append(sOpts, stream.WithIndent(es.indent))
		}
		return stream.WriteNode(stream.NewEncoder(w, sOpts...), node)
	case format.YAMLFormat:
		v, err := toYAML(node)
		if err != nil {
			return err
		}
		d, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(d)
		return err
	case format.MsgpackFormat:
		return toMsgpack(msgpack.NewEncoder(w), node)
	default:
		return fmt.Errorf("%w: %d", format.ErrBadFormat, es.format)
	}
}

// EncodeBytes encodes node into a new byte slice.
func EncodeBytes(node *ir.Node, opts ...EncodeOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(node, &buf, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func number(node *ir.Node) (any, error) {
	switch {
	case node.Int64 != nil:
		return *node.Int64, nil
	case node.Float64 != nil:
		return *node.Float64, nil
	}
	if i, err := strconv.ParseInt(node.Number, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(node.Number, 64)
	if err != nil {
		return nil, fmt.Errorf("number %q at %s: %w", node.Number, node.Path(), err)
	}
	return f, nil
}

func toYAML(node *ir.Node) (any, error) {
	switch node.Type {
	case ir.ObjectType:
		res := make(yaml.MapSlice, len(node.Fields))
		for i, f := range node.Fields {
			v, err := toYAML(node.Values[i])
			if err != nil {
				return nil, err
			}
			res[i] = yaml.MapItem{Key: f.String, Value: v}
		}
		return res, nil
	case ir.ArrayType:
		res := make([]any, len(node.Values))
		for i, elt := range node.Values {
			v, err := toYAML(elt)
			if err != nil {
				return nil, err
			}
			res[i] = v
		}
		return res, nil
	case ir.NumberType:
		return number(node)
	case ir.StringType:
		return node.String, nil
	case ir.BoolType:
		return node.Bool, nil
	default:
		return nil, nil
	}
}

func toMsgpack(enc *msgpack.Encoder, node *ir.Node) error {
	switch node.Type {
	case ir.ObjectType:
		if err := enc.EncodeMapLen(len(node.Fields)); err != nil {
			return err
		}
		for i, f := range node.Fields {
			if err := enc.EncodeString(f.String); err != nil {
				return err
			}
			if err := toMsgpack(enc, node.Values[i]); err != nil {
				return err
			}
		}
		return nil
	case ir.ArrayType:
		if err := enc.EncodeArrayLen(len(node.Values)); err != nil {
			return err
		}
		for _, v := range node.Values {
			if err := toMsgpack(enc, v); err != nil {
				return err
			}
		}
		return nil
	case ir.NumberType:
		n, err := number(node)
		if err != nil {
			return err
		}
		if i, ok := n.(int64); ok {
			return enc.EncodeInt(i)
		}
		return enc.EncodeFloat64(n.(float64))
	case ir.StringType:
		return enc.EncodeString(node.String)
	case ir.BoolType:
		return enc.EncodeBool(node.Bool)
	default:
		return enc.EncodeNil()
	}
}

type colorWriter struct {
	w   io.Writer
	es  *EncState
	err error
}

func (c *colorWriter) write(s string) {
	if c.err != nil {
		return
	}
	_, c.err = io.WriteString(c.w, s)
}

func (c *colorWriter) newline(depth int) {
	if c.es.indent == "" {
		return
	}
	c.write("\n" + strings.Repeat(c.es.indent, depth))
}

func encodeColorJSON(node *ir.Node, w io.Writer, es *EncState) error {
	c := &colorWriter{w: w, es: es}
	if err := c.node(node, 0); err != nil {
		return err
	}
	c.write("\n")
	return c.err
}

func quote(s string) (string, error) {
	d, err := jsontext.AppendQuote(nil, s)
	return string(d), err
}

func (c *colorWriter) node(node *ir.Node, depth int) error {
	color := c.es.Color
	switch node.Type {
	case ir.ObjectType:
		c.write(color(ir.ObjectType, SepColor, "{"))
		for i, f := range node.Fields {
			if i > 0 {
				c.write(color(ir.ObjectType, SepColor, ","))
			}
			c.newline(depth + 1)
			q, err := quote(f.String)
			if err != nil {
				return err
			}
			v := node.Values[i]
			if f.String == ir.TypeTagKey && v.Type == ir.StringType {
				qv, err := quote(v.String)
				if err != nil {
					return err
				}
				c.write(color(TagType, FieldColor, q))
				c.write(color(ir.ObjectType, SepColor, ":"))
				c.write(color(TagType, ValueColor, qv))
				continue
			}
			c.write(color(ir.ObjectType, FieldColor, q))
			c.write(color(ir.ObjectType, SepColor, ":"))
			if err := c.node(v, depth+1); err != nil {
				return err
			}
		}
		if len(node.Fields) > 0 {
			c.newline(depth)
		}
		c.write(color(ir.ObjectType, SepColor, "}"))
	case ir.ArrayType:
		c.write(color(ir.ArrayType, SepColor, "["))
		for i, v := range node.Values {
			if i > 0 {
				c.write(color(ir.ArrayType, SepColor, ","))
			}
			c.newline(depth + 1)
			if err := c.node(v, depth+1); err != nil {
				return err
			}
		}
		if len(node.Values) > 0 {
			c.newline(depth)
		}
		c.write(color(ir.ArrayType, SepColor, "]"))
	case ir.StringType:
		q, err := quote(node.String)
		if err != nil {
			return err
		}
		c.write(color(ir.StringType, ValueColor, q))
	case ir.NumberType:
		n, err := number(node)
		if err != nil {
			return err
		}
		c.write(color(ir.NumberType, ValueColor, fmt.Sprint(n)))
	case ir.BoolType:
		c.write(color(ir.BoolType, ValueColor, strconv.FormatBool(node.Bool)))
	default:
		c.write(color(ir.NullType, ValueColor, "null"))
	}
	return c.err
}
