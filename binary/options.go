package binary

// DefaultMaxDepth is the default nesting budget for binding expressions.
const DefaultMaxDepth = 1024

// Option configures Decode.
type Option func(*options)

type options struct {
	maxDepth      int
	allowTrailing bool
}

func defaultOptions() options {
	return options{maxDepth: DefaultMaxDepth}
}

// WithMaxDepth bounds how deeply binding expressions may nest. A value of
// zero or less removes the bound.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// WithAllowTrailing controls whether bytes after the bind sequence are
// ignored instead of rejected.
func WithAllowTrailing(allow bool) Option {
	return func(o *options) {
		o.allowTrailing = allow
	}
}
