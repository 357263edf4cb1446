package sync

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/teamdir/groupsync/pkg/constants"
)

// Options controls one sync pass.
type Options struct {
	// DryRun computes and counts every intended change without invoking any
	// mutating remote operation. Cosmetic pauses are skipped too, so a dry
	// run is fast as well as side-effect free.
	DryRun bool

	// Pause is the courtesy delay between consecutive mutating remote calls.
	Pause time.Duration

	// Clock drives the pause. Nil means the real clock.
	Clock clockwork.Clock
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		DryRun: false,
		Pause:  constants.MutationPause,
		Clock:  clockwork.NewRealClock(),
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithDryRun configures dry-run mode.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithPause configures the delay between mutating remote calls.
func WithPause(pause time.Duration) Option {
	return func(o *Options) {
		o.Pause = pause
	}
}

// WithClock configures the clock used for pacing.
func WithClock(clock clockwork.Clock) Option {
	return func(o *Options) {
		o.Clock = clock
	}
}
