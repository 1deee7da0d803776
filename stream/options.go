package stream

// StreamOption configures Encoder/Decoder behavior.
type StreamOption func(*streamOpts)

type streamOpts struct {
	indent string
}

// WithIndent makes the encoder write multi-line output indented by indent
// per nesting level.
func WithIndent(indent string) StreamOption {
	return func(opts *streamOpts) {
		opts.indent = indent
	}
}
