// Package registry reconciles the live set of broker topic subscriptions
// against the active devices known to the config store, and caches the
// per-device processor so its state survives reconciliation.
package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tundzai001/land-slide-web/model"
	"github.com/tundzai001/land-slide-web/processor"
	"github.com/tundzai001/land-slide-web/storage"
)

// Binding is one live topic's resolved destination: which device/station it
// belongs to, and the stateful processor instance to hand its frames to.
// Processing is serialized per binding so frames for one device are always
// handled in receive order, regardless of how many goroutines call Process
// concurrently (spec §5).
type Binding struct {
	DeviceID    string
	StationID   string
	StationName string
	Type        model.DeviceType
	Config      model.StationConfig

	mu        sync.Mutex
	processor processor.Processor
}

// Process serializes one frame through the binding's processor.
func (b *Binding) Process(ctx context.Context, frame []byte, t time.Time) processor.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.processor.Process(ctx, frame, t)
}

// Bindings is an immutable snapshot of topic -> Binding, safe to read
// without synchronization once obtained.
type Bindings map[string]*Binding

// Broker is the subset of the broker client the registry drives.
type Broker interface {
	Subscribe(topic string) error
	Unsubscribe(topic string) error
}

// Store is the subset of the persistence gateway the registry reads.
type Store interface {
	ListActiveDevices(ctx context.Context) ([]storage.ActiveDevice, error)
}

// Registry periodically reconciles broker subscriptions against active
// devices (spec §4.5).
type Registry struct {
	log      zerolog.Logger
	store    Store
	broker   Broker
	origin   processor.OriginStore
	interval time.Duration

	bindings atomic.Pointer[Bindings]
	cache    map[string]processor.Processor
	cacheMu  sync.Mutex

	stop chan struct{}
	wg   sync.WaitGroup
}

// New constructs a registry with an empty binding map. It does not start
// reconciling until Run is called.
func New(log zerolog.Logger, store Store, broker Broker, origin processor.OriginStore, interval time.Duration) *Registry {
	r := &Registry{
		log:      log.With().Str("component", "registry").Logger(),
		store:    store,
		broker:   broker,
		origin:   origin,
		interval: interval,
		cache:    make(map[string]processor.Processor),
		stop:     make(chan struct{}),
	}
	empty := Bindings{}
	r.bindings.Store(&empty)
	return r
}

// Lookup returns the binding for a topic, if any, from the current
// immutable snapshot.
func (r *Registry) Lookup(topic string) (*Binding, bool) {
	snapshot := *r.bindings.Load()
	b, ok := snapshot[topic]
	return b, ok
}

// Run reconciles on the configured interval until Stop is called. It is
// shaped as an engine.Component: a blocking Run paired with a Stop that
// signals a channel and waits.
func (r *Registry) Run() error {
	r.wg.Add(1)
	defer r.wg.Done()

	if err := r.reconcile(context.Background()); err != nil {
		r.log.Error().Err(err).Msg("initial topic reconciliation failed")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return nil
		case <-ticker.C:
			if err := r.reconcile(context.Background()); err != nil {
				r.log.Error().Err(err).Msg("topic reconciliation failed")
			}
		}
	}
}

// Stop signals the reconciliation loop to exit and waits for it.
func (r *Registry) Stop() error {
	close(r.stop)
	r.wg.Wait()
	return nil
}

func (r *Registry) reconcile(ctx context.Context) error {
	active, err := r.store.ListActiveDevices(ctx)
	if err != nil {
		return err
	}

	current := *r.bindings.Load()
	next := make(Bindings, len(active))

	r.cacheMu.Lock()
	for _, d := range active {
		if d.Topic == "" {
			continue
		}
		proc, ok := r.cache[d.DeviceID]
		if !ok {
			proc = r.newProcessor(d)
			r.cache[d.DeviceID] = proc
		}
		next[d.Topic] = &Binding{
			DeviceID:    d.DeviceID,
			StationID:   d.StationID,
			StationName: d.StationName,
			Type:        d.Type,
			Config:      d.Config,
			processor:   proc,
		}
	}
	r.cacheMu.Unlock()

	toSubscribe := diffTopics(next, current)
	toUnsubscribe := diffTopics(current, next)

	for topic := range toSubscribe {
		if err := r.broker.Subscribe(topic); err != nil {
			r.log.Error().Err(err).Str("topic", topic).Msg("could not subscribe to topic")
		}
	}
	for topic := range toUnsubscribe {
		if err := r.broker.Unsubscribe(topic); err != nil {
			r.log.Error().Err(err).Str("topic", topic).Msg("could not unsubscribe from topic")
		}
	}

	r.bindings.Store(&next)
	return nil
}

func (r *Registry) newProcessor(d storage.ActiveDevice) processor.Processor {
	switch d.Type {
	case model.DeviceGNSS:
		return processor.NewGNSSProcessor(r.log, processor.DefaultGNSSConfig(), r.origin, d.DeviceID)
	case model.DeviceRain:
		return processor.NewRainProcessor(r.log)
	case model.DeviceWater:
		return processor.NewWaterProcessor(r.log, processor.DefaultWaterConfig())
	case model.DeviceIMU:
		return processor.NewIMUProcessor(r.log)
	default:
		return processor.NewRainProcessor(r.log)
	}
}

func diffTopics(a, b Bindings) map[string]struct{} {
	out := make(map[string]struct{})
	for topic := range a {
		if _, ok := b[topic]; !ok {
			out[topic] = struct{}{}
		}
	}
	return out
}
