package memstore

import (
	"context"
	"sync"

	"github.com/jhoicas/storemax-api/internal/application/events"
)

// Event evento capturado por EventLog.
type Event struct {
	Name    string
	Payload any
}

// EventLog implementa events.Publisher guardando lo publicado.
type EventLog struct {
	mu     sync.Mutex
	events []Event
	// Err, si no es nil, se devuelve en cada Publish (el evento igual se registra).
	Err error
}

var _ events.Publisher = (*EventLog)(nil)

func (l *EventLog) Publish(_ context.Context, event string, payload any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, Event{Name: event, Payload: payload})
	return l.Err
}

// Events copia de los eventos publicados.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// Names nombres de los eventos publicados, en orden.
func (l *EventLog) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Name)
	}
	return out
}
