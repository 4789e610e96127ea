// Package telemetry collects lightweight trace events during a swarm run.
// Collection is infallible: recording never returns an error and never blocks
// the orchestration path, so a noisy run degrades to a truncated trace rather
// than a failed query.
package telemetry

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hupe1980/expertswarm/core"
)

// DefaultPayloadLimit is the maximum payload length kept per event. Longer
// payloads are truncated with an ellipsis so traces stay readable when agents
// produce large responses.
const DefaultPayloadLimit = 100

// Options configures the collector.
type Options struct {
	// PayloadLimit caps the payload length per event; 0 disables truncation.
	PayloadLimit int

	// Clock supplies event timestamps. Overridable for tests.
	Clock func() time.Time
}

// Collector accumulates telemetry events in order. Safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	events []core.TelemetryEvent
	opts   Options
}

// NewCollector creates an empty collector.
func NewCollector(optFns ...func(o *Options)) *Collector {
	opts := Options{
		PayloadLimit: DefaultPayloadLimit,
		Clock:        time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Collector{opts: opts}
}

// Record appends an event. The payload is truncated to the configured limit.
func (c *Collector) Record(eventType, agentID, payload string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, core.TelemetryEvent{
		Type:      eventType,
		AgentID:   agentID,
		Payload:   truncate(payload, c.opts.PayloadLimit),
		Timestamp: c.opts.Clock(),
	})
}

// Len returns the number of recorded events.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.events)
}

// Drain returns all recorded events in recording order and clears the
// collector, so a collector can be reused across queries in a session.
func (c *Collector) Drain() []core.TelemetryEvent {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	events := c.events
	c.events = nil

	return events
}

// truncate caps s at limit runes so a cut never splits a multi-byte
// UTF-8 sequence.
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	end := 0
	for i := 0; i < limit; i++ {
		_, size := utf8.DecodeRuneInString(s[end:])
		end += size
	}

	return s[:end] + "..."
}
