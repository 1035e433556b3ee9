package core

import (
	"sync"
	"sync/atomic"

	"pigeonflight/pkg/model"
)

// Sink receives outbound events. Emit must not block the tick loop.
type Sink interface {
	Emit(ev model.Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(model.Event)

func (f SinkFunc) Emit(ev model.Event) { f(ev) }

// ChannelSink buffers events for a separate consumer goroutine. When the
// buffer is full new events are dropped and counted.
type ChannelSink struct {
	ch      chan model.Event
	dropped atomic.Int64
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

// NewChannelSink creates a sink with the given buffer size (minimum 1).
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan model.Event, buffer)}
}

func (s *ChannelSink) Emit(ev model.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.ch <- ev:
	default:
		s.dropped.Add(1)
	}
}

// Events is the consumer side. It is closed by Close.
func (s *ChannelSink) Events() <-chan model.Event {
	return s.ch
}

// Dropped reports how many events were discarded.
func (s *ChannelSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close ends the stream. Safe to call more than once.
func (s *ChannelSink) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}
