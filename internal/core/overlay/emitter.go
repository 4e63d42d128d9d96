package overlay

import (
	"io"
	"sync"
)

// Emitter delivers events to the consumer. Emit never blocks on a slow
// consumer for long and never reports failure; undeliverable events are
// dropped.
type Emitter interface {
	Emit(ev OutputEvent)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ev OutputEvent)

func (f EmitterFunc) Emit(ev OutputEvent) {
	f(ev)
}

type flusher interface {
	Flush() error
}

// JSONLinesEmitter writes one JSON object per line and flushes after every
// event when the writer supports it.
type JSONLinesEmitter struct {
	mu     sync.Mutex
	out    io.Writer
	logger Logger
}

func NewJSONLinesEmitter(out io.Writer, logger Logger) *JSONLinesEmitter {
	return &JSONLinesEmitter{out: out, logger: logger}
}

func (e *JSONLinesEmitter) Emit(ev OutputEvent) {
	line, err := MarshalEvent(ev)
	if err != nil {
		e.logger.Debug("Dropping unencodable event", "err", err)
		return
	}
	line = append(line, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.out.Write(line); err != nil {
		e.logger.Debug("Dropping event, write failed", "type", ev.EventType(), "err", err)
		return
	}
	if f, ok := e.out.(flusher); ok {
		if err := f.Flush(); err != nil {
			e.logger.Debug("Flush failed", "err", err)
		}
	}
}

// MultiEmitter forwards each event to every emitter in order.
type MultiEmitter []Emitter

func (m MultiEmitter) Emit(ev OutputEvent) {
	for _, e := range m {
		e.Emit(ev)
	}
}
