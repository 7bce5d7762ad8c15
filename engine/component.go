package engine

import (
	"time"

	"github.com/rs/zerolog"
)

// Component wraps a named unit of work that can be started and stopped.
type Component struct {
	log  zerolog.Logger
	run  func() error
	stop func()
}

// Run executes the component's run function and reports completion or
// failure on notify.
func (c *Component) Run(notify chan error) {
	start := time.Now()

	c.log.Info().Msg("component starting")
	err := c.run()
	if err != nil {
		c.log.Error().Err(err).Msg("component failed")
		notify <- err
		return
	}

	duration := time.Since(start)
	c.log.Info().
		Str("duration", duration.Round(time.Second).String()).
		Msg("component done")

	notify <- nil
}

// Stop invokes the component's stop function.
func (c *Component) Stop() {
	if c.stop == nil {
		return
	}
	c.stop()
	c.log.Info().Msg("component stopped")
}
