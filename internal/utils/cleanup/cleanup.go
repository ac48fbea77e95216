package cleanup

import (
	"context"

	"github.com/sirupsen/logrus"
)

type step struct {
	name string
	fn   func(ctx context.Context) error
}

// Cleanup undoes the steps of an operation that failed half way. Steps run
// in reverse order of registration; failures are logged, not returned.
type Cleanup struct {
	log   logrus.FieldLogger
	steps []step
}

func New(log logrus.FieldLogger) *Cleanup {
	return &Cleanup{log: log}
}

// Add registers an undo step. name is used in log messages.
func (c *Cleanup) Add(name string, fn func(ctx context.Context) error) {
	c.steps = append(c.steps, step{name: name, fn: fn})
}

// Cleanup runs the registered steps, even if ctx is already cancelled.
func (c *Cleanup) Cleanup(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := len(c.steps) - 1; i >= 0; i-- {
		s := c.steps[i]
		c.logger().Debugf("cleanup: %s", s.name)
		if err := s.fn(ctx); err != nil {
			c.logger().WithError(err).Warnf("failed to %s", s.name)
		}
	}
	c.steps = nil
}

// Cancel forgets every step. Call it once the operation succeeded.
func (c *Cleanup) Cancel() {
	c.steps = nil
}

func (c *Cleanup) logger() logrus.FieldLogger {
	if c.log == nil {
		return logrus.StandardLogger()
	}
	return c.log
}
