package taskpool

import "log/slog"

// An Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger of a pool. The pool logs its life cycle at
// debug level, and panics of tasks at error level. By default, nothing
// is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}
