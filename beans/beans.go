package beans

import (
	"github.com/signadot/beanmap/ir"
	"github.com/signadot/beanmap/stream"
)

// Marshal encodes v as JSON with the default mapper.
func Marshal(v any, opts ...EncodeOption) ([]byte, error) {
	return defaultMapper.Marshal(v, opts...)
}

// Unmarshal decodes JSON into v with the default mapper.
func Unmarshal(data []byte, v any) error {
	return defaultMapper.Unmarshal(data, v)
}

// Encode writes v to dst with the default mapper.
func Encode(dst stream.Sink, v any, opts ...EncodeOption) error {
	return defaultMapper.Encode(dst, v, opts...)
}

// Decode reads one value from src into v with the default mapper.
func Decode(src stream.Source, v any) error {
	return defaultMapper.Decode(src, v)
}

// ToIR encodes v as a document node with the default mapper.
func ToIR(v any, opts ...EncodeOption) (*ir.Node, error) {
	return defaultMapper.ToIR(v, opts...)
}

// FromIR decodes a document node into v with the default mapper.
func FromIR(node *ir.Node, v any) error {
	return defaultMapper.FromIR(node, v)
}
