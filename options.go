package framegraph

// DefaultArenaBudget is the default per-frame arena budget in bytes.
const DefaultArenaBudget = 128 * 1024

// DefaultPresentName is the default name of passes added by Present.
const DefaultPresentName = "Present"

// Option configures a FrameGraph during creation.
//
// Example:
//
//	fg := framegraph.New(alloc,
//	    framegraph.WithArenaBudget(256*1024),
//	)
type Option func(*options)

type options struct {
	arenaBudget int
	presentName string
}

func defaultOptions() options {
	return options{
		arenaBudget: DefaultArenaBudget,
		presentName: DefaultPresentName,
	}
}

// WithArenaBudget sets the soft byte budget of the per-frame arena.
// Declarations that push the arena past the budget still succeed but log a
// warning once per frame. Values <= 0 select DefaultArenaBudget.
func WithArenaBudget(bytes int) Option {
	return func(o *options) {
		if bytes > 0 {
			o.arenaBudget = bytes
		}
	}
}

// WithPresentName sets the name given to passes created by the Present
// family of methods. It shows up in logs and Graphviz output.
func WithPresentName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.presentName = name
		}
	}
}
