// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package stream

import (
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/jang1563/bioteam-ai-sub001/internal/logging"
	"github.com/jang1563/bioteam-ai-sub001/internal/metrics"
	"github.com/jang1563/bioteam-ai-sub001/internal/models"
)

// Consumer receives decoded stream events. Consumers run synchronously on
// the stream session goroutine, in registration order; a slow consumer
// delays subsequent events on the same connection.
type Consumer func(models.StreamEvent)

type consumerEntry struct {
	id uint64
	fn Consumer
}

// Dispatcher routes raw frames to registered consumers. Frames whose name
// is outside the recognized allow-list are discarded and counted; frames
// whose data fails to decode are discarded and counted. Decoded events are
// delivered to every consumer registered at dispatch start, in
// registration order, with per-consumer panic recovery.
//
// Thread Safety:
//   - Subscribe and unsubscribe may be called from any goroutine,
//     including from inside a consumer during dispatch
//   - Dispatch snapshots the consumer set first, so mid-dispatch
//     registration changes take effect on the next frame only
type Dispatcher struct {
	mu        sync.RWMutex
	consumers []consumerEntry
	nextID    uint64
	logger    zerolog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		logger: logging.WithComponent("dispatcher"),
	}
}

// Subscribe registers a consumer and returns its unsubscribe function.
// Unsubscribe is idempotent; calling it more than once is a no-op.
func (d *Dispatcher) Subscribe(fn Consumer) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.consumers = append(d.consumers, consumerEntry{id: id, fn: fn})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, c := range d.consumers {
			if c.id == id {
				d.consumers = append(d.consumers[:i], d.consumers[i+1:]...)
				return
			}
		}
	}
}

// Dispatch decodes a frame and fans it out. Undeliverable frames
// (unrecognized name, undecodable data) are dropped without error: a bad
// frame must never interrupt the stream.
func (d *Dispatcher) Dispatch(frame Frame) {
	name := models.EventType(frame.Name)
	if !name.Recognized() {
		metrics.RecordEventDiscarded("unrecognized")
		d.logger.Debug().Str("event_type", frame.Name).Msg("discarding unrecognized event")
		return
	}

	var event models.StreamEvent
	if err := json.Unmarshal(frame.Data, &event); err != nil {
		metrics.RecordEventDiscarded("malformed")
		d.logger.Debug().Str("event_type", frame.Name).Err(err).Msg("discarding undecodable event")
		return
	}
	// The wire name is authoritative for routing; fill it in when the
	// payload omits its own event_type.
	if event.EventType == "" {
		event.EventType = name
	}

	d.mu.RLock()
	snapshot := make([]consumerEntry, len(d.consumers))
	copy(snapshot, d.consumers)
	d.mu.RUnlock()

	for _, c := range snapshot {
		d.invoke(c, event)
	}
	metrics.RecordEventDispatched(string(name))
}

// invoke runs one consumer with panic recovery so a failing consumer
// cannot take down the stream session or starve later consumers.
func (d *Dispatcher) invoke(c consumerEntry, e models.StreamEvent) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordConsumerPanic()
			d.logger.Error().
				Interface("panic", r).
				Str("event_type", string(e.EventType)).
				Msg("event consumer panicked")
		}
	}()
	c.fn(e)
}
