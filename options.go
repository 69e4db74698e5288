package framejob

import (
	"log/slog"

	"github.com/xraph/framejob/ext"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithLogger sets the structured logger for the dispatcher.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) error {
		d.logger = l
		return nil
	}
}

// WithExtensions sets the extension registry notified of job and barrier
// lifecycle events.
func WithExtensions(r *ext.Registry) Option {
	return func(d *Dispatcher) error {
		d.extensions = r
		return nil
	}
}
