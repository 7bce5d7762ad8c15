// Package engine hosts a set of long-lived components under a single
// interrupt-driven lifecycle: start them all, wait for the first failure or
// an external shutdown signal, then stop them in reverse registration order.
package engine

import (
	"os"

	"github.com/rs/zerolog"
)

// Engine composes multiple components and drives their lifecycle.
type Engine struct {
	log        zerolog.Logger
	components []*Component

	interrupt chan os.Signal
	notify    chan error
}

// New creates a new engine that reacts to the given interrupt channel.
func New(log zerolog.Logger, name string, interrupt chan os.Signal) *Engine {
	e := Engine{
		log:       log.With().Str("engine", name).Logger(),
		interrupt: interrupt,
	}
	return &e
}

// Component registers a new component for the engine. Components are
// stopped in the reverse of the order in which they were registered.
func (e *Engine) Component(name string, run func() error, stop func()) *Engine {
	c := Component{
		log:  e.log.With().Str("component", name).Logger(),
		run:  run,
		stop: stop,
	}
	e.components = append(e.components, &c)
	return e
}

// Run launches every registered component and waits for them to either
// finish, fail, or for an external signal to request shutdown.
func (e *Engine) Run() error {
	e.notify = make(chan error, len(e.components))
	for _, c := range e.components {
		go c.Run(e.notify)
	}

	select {
	case <-e.interrupt:
		e.log.Info().Msg("engine stopping")
		e.stop()
	case err := <-e.notify:
		if err != nil {
			e.log.Error().Err(err).Msg("engine stopped due to component failure")
			e.stop()
			return err
		}
		e.log.Info().Msg("engine done")
	}
	return nil
}

// stop shuts down every component, in the reverse of registration order.
func (e *Engine) stop() {
	go e.forceQuit()
	for i := len(e.components) - 1; i >= 0; i-- {
		e.components[i].Stop()
	}
}

// forceQuit waits for a second interrupt signal and forcibly exits.
func (e *Engine) forceQuit() {
	<-e.interrupt
	e.log.Warn().Msg("forcing exit")
	os.Exit(1)
}
