// Package broker wraps an MQTT client with an explicit reconnect state
// machine, replacing the library's own implicit retry with one the rest of
// the system can observe and log against.
package broker

import (
	"context"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// State is one point in the client's connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// backoffSchedule is the linear reconnect delay: 5s for the first retry,
// 10s for every retry after that.
var backoffSchedule = []time.Duration{5 * time.Second, 10 * time.Second}

// Handler receives one decoded-topic frame from the broker.
type Handler func(topic string, payload []byte)

// Client drives a single MQTT connection through
// {disconnected, connecting, connected, draining} and keeps the set of
// subscribed topics so it can restore them after every reconnect.
type Client struct {
	log     zerolog.Logger
	opts    *mqtt.ClientOptions
	handler Handler

	mu       sync.Mutex
	client   mqtt.Client
	state    State
	topics   map[string]struct{}
	lostCh   chan struct{}

	stop chan struct{}
	wg   sync.WaitGroup
}

// Config holds the connection parameters needed to build a Client.
type Config struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
}

// New constructs a Client. It does not connect until Run is called.
func New(log zerolog.Logger, cfg Config, handler Handler) *Client {
	c := &Client{
		log:     log.With().Str("component", "broker").Logger(),
		handler: handler,
		topics:  make(map[string]struct{}),
		lostCh:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(false).
		SetCleanSession(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	c.opts = opts
	c.client = mqtt.NewClient(opts)

	return c
}

// State reports the client's current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run drives the connect/reconnect loop until Stop is called.
func (c *Client) Run() error {
	c.wg.Add(1)
	defer c.wg.Done()

	attempt := 0
	for {
		c.setState(StateConnecting)
		token := c.client.Connect()
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.Error().Err(err).Int("attempt", attempt).Msg("could not connect to broker")
			c.setState(StateDisconnected)
			if !c.sleepBackoff(attempt) {
				return nil
			}
			attempt++
			continue
		}

		attempt = 0

		select {
		case <-c.stop:
			c.setState(StateDraining)
			c.client.Disconnect(250)
			return nil
		case <-c.lostCh:
			c.setState(StateDisconnected)
			if !c.sleepBackoff(0) {
				return nil
			}
			continue
		}
	}
}

// Stop signals the connect loop to drain and disconnect, then waits.
func (c *Client) Stop(ctx context.Context) error {
	close(c.stop)
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Subscribe registers a topic for delivery to the handler. The subscription
// survives reconnects: it is replayed from the tracked topic set every time
// the client reconnects.
func (c *Client) Subscribe(topic string) error {
	c.mu.Lock()
	c.topics[topic] = struct{}{}
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected {
		return nil
	}
	return c.subscribeNow(topic)
}

// Unsubscribe removes a topic from the tracked set and, if connected, tells
// the broker to stop delivering it immediately.
func (c *Client) Unsubscribe(topic string) error {
	c.mu.Lock()
	delete(c.topics, topic)
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected {
		return nil
	}
	token := c.client.Unsubscribe(topic)
	token.Wait()
	return token.Error()
}

func (c *Client) subscribeNow(topic string) error {
	token := c.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		c.handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

func (c *Client) onConnect(_ mqtt.Client) {
	c.setState(StateConnected)

	c.mu.Lock()
	topics := make([]string, 0, len(c.topics))
	for topic := range c.topics {
		topics = append(topics, topic)
	}
	c.mu.Unlock()

	for _, topic := range topics {
		if err := c.subscribeNow(topic); err != nil {
			c.log.Error().Err(err).Str("topic", topic).Msg("could not restore subscription after reconnect")
		}
	}
	c.log.Info().Int("topics", len(topics)).Msg("connected to broker")
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.log.Warn().Err(err).Msg("lost connection to broker")
	select {
	case c.lostCh <- struct{}{}:
	default:
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// sleepBackoff waits for the next retry delay, or returns false immediately
// if Stop was called in the meantime.
func (c *Client) sleepBackoff(attempt int) bool {
	delay := backoffSchedule[len(backoffSchedule)-1]
	if attempt < len(backoffSchedule) {
		delay = backoffSchedule[attempt]
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-c.stop:
		return false
	case <-timer.C:
		return true
	}
}
