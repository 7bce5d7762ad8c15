package pipeline

import "github.com/tundzai001/land-slide-web/broadcast"

// Broadcaster delivers a live event to connected observers.
type Broadcaster interface {
	Publish(event broadcast.Event)
}
