package beans

import (
	"reflect"

	"go.uber.org/zap"
)

// Option configures a Mapper.
type Option func(*Mapper)

// WithAlias registers tag as the external name of t.
func WithAlias(t reflect.Type, tag string) Option {
	return func(m *Mapper) { m.AddAlias(t, tag) }
}

// Alias registers tag as the external name of T.
func Alias[T any](tag string) Option {
	return WithAlias(reflect.TypeFor[T](), tag)
}

// WithResolver replaces the default resolver, KnownType, for tags that
// have no alias.
func WithResolver(r Resolver) Option {
	return func(m *Mapper) { m.resolver = r }
}

// SkipUnknown makes decoding drop document keys that are not properties
// instead of failing.
func SkipUnknown() Option {
	return func(m *Mapper) { m.skipUnknown = true }
}

// OmitTag suppresses type tags when encoding.
func OmitTag() Option {
	return func(m *Mapper) { m.omitTag = true }
}

// Ignore hands the given types to the fallback codec in both directions.
func Ignore(types ...reflect.Type) Option {
	return func(m *Mapper) {
		for _, t := range types {
			m.ignored[baseType(t)] = true
		}
	}
}

// WithAdapter registers a scalar text adapter for t.
func WithAdapter(t reflect.Type, a Adapter) Option {
	return func(m *Mapper) { m.adapters[baseType(t)] = a }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Mapper) { m.log = l }
}

// WithFallback replaces the codec used for values that are not beans.
func WithFallback(f Fallback) Option {
	return func(m *Mapper) { m.fallback = f }
}

// WithTypes registers types.
func WithTypes(specs ...*TypeSpec) Option {
	return func(m *Mapper) { m.pending = append(m.pending, specs...) }
}

// EncodeOption configures one Encode call.
type EncodeOption func(*Encoder)

// Expect declares the type the caller expects the encoded value to have.
// A value of a different type then carries a type tag. For slice, array
// and map types the expectation covers their elements.
func Expect(t reflect.Type) EncodeOption {
	return func(e *Encoder) { e.push(t) }
}

// ExpectType is Expect for T.
func ExpectType[T any]() EncodeOption {
	return Expect(reflect.TypeFor[T]())
}
