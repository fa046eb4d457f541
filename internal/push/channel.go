package push

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/unnati-09m/MediQ/pkg/logger"
	"github.com/unnati-09m/MediQ/pkg/monitoring"
)

// Handler consumes the data payload of one push frame for one topic
type Handler func(data json.RawMessage)

// frame is the wire format of one push message
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Config holds push channel configuration
type Config struct {
	URL            string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	PingInterval   time.Duration
}

// Channel is the process-wide push subscription: one long-lived websocket
// connection, reconnected forever with capped backoff, fanning frames out
// to per-topic handlers. Views attach and detach handlers; the connection
// outlives any single view session.
type Channel struct {
	cfg     Config
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector

	mu     sync.RWMutex
	subs   map[string]map[int]Handler
	nextID int

	connected bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Subscription is a handle to one registered topic handler
type Subscription struct {
	channel *Channel
	topic   string
	id      int
}

// NewChannel creates a push channel. Start must be called before any
// frames are delivered.
func NewChannel(cfg Config, log *logger.Logger, metrics *monitoring.MetricsCollector) *Channel {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 25 * time.Second
	}

	return &Channel{
		cfg:     cfg,
		logger:  log,
		metrics: metrics,
		subs:    make(map[string]map[int]Handler),
		done:    make(chan struct{}),
	}
}

// Start launches the connect/read loop. It returns immediately; the loop
// runs until the context is cancelled or Close is called.
func (c *Channel) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
}

// Close stops the channel and waits for the loop to exit
func (c *Channel) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
}

// Connected reports whether the websocket is currently established
func (c *Channel) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Subscribe registers a handler for one topic and returns its handle
func (c *Channel) Subscribe(topic string, handler Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subs[topic] == nil {
		c.subs[topic] = make(map[int]Handler)
	}
	c.nextID++
	c.subs[topic][c.nextID] = handler

	return &Subscription{channel: c, topic: topic, id: c.nextID}
}

// Unsubscribe removes the handler. The shared connection stays up.
func (s *Subscription) Unsubscribe() {
	s.channel.mu.Lock()
	defer s.channel.mu.Unlock()

	if handlers := s.channel.subs[s.topic]; handlers != nil {
		delete(handlers, s.id)
	}
}

// run dials the server forever, backing off between failed attempts and
// resetting the backoff after each established connection.
func (c *Channel) run(ctx context.Context) {
	defer close(c.done)

	backoff := c.cfg.InitialBackoff

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			c.metrics.RecordReconnectAttempt()
			c.logger.WithComponent("push").
				WithField("backoff", backoff.String()).
				WithError(err).
				Warn("Push channel dial failed")

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}

			backoff *= 2
			if backoff > c.cfg.MaxBackoff {
				backoff = c.cfg.MaxBackoff
			}
			continue
		}

		backoff = c.cfg.InitialBackoff
		c.setConnected(true)
		c.logger.WithComponent("push").Info("Push channel connected")

		c.serve(ctx, conn)

		c.setConnected(false)
		c.logger.WithComponent("push").Warn("Push channel disconnected")
	}
}

// serve reads frames until the connection breaks or the context ends.
// A pinger goroutine probes the server on an idle interval.
func (c *Channel) serve(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var writeMu sync.Mutex
	go c.ping(serveCtx, conn, &writeMu)

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() == nil {
				c.logger.WithComponent("push").WithError(err).Debug("Push read failed")
			}
			return
		}

		if f.Event == "pong" {
			continue
		}

		c.metrics.RecordPushEvent(f.Event)
		c.dispatch(f)
	}
}

// ping sends an application-level ping frame on each interval; the server
// answers with a pong frame that serve discards.
func (c *Channel) ping(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteJSON(frame{Event: "ping"})
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// dispatch fans one frame out to the topic's handlers. Handlers run on the
// read loop; a panicking handler must not take the connection down.
func (c *Channel) dispatch(f frame) {
	c.mu.RLock()
	handlers := make([]Handler, 0, len(c.subs[f.Event]))
	for _, h := range c.subs[f.Event] {
		handlers = append(handlers, h)
	}
	c.mu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.WithComponent("push").
						WithField("topic", f.Event).
						WithField("panic", r).
						Error("Push handler panicked")
				}
			}()
			handler(f.Data)
		}()
	}
}

func (c *Channel) setConnected(connected bool) {
	c.mu.Lock()
	c.connected = connected
	c.mu.Unlock()
	c.metrics.SetConnected(connected)
}
