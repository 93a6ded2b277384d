// Package realtime implementa el canal de actualizaciones en vivo: un registro de
// suscriptores en memoria con fan-out no bloqueante y un relay opcional por RabbitMQ
// para instancias múltiples.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jhoicas/storemax-api/internal/application/events"
	"github.com/jhoicas/storemax-api/pkg/logger"
)

// Frame es lo que recibe el cliente: {"event": "...", "data": ...}.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Encode serializa un evento al formato de frame.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serializar %s: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// Gauge recibe la cantidad de suscriptores activos (prometheus.Gauge lo cumple).
type Gauge interface {
	Set(float64)
}

// Subscriber conexión registrada en el hub.
type Subscriber struct {
	id   uint64
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

// C frames pendientes de enviar.
func (s *Subscriber) C() <-chan []byte { return s.ch }

// Done se cierra cuando el hub da de baja al suscriptor (Unsubscribe o buffer lleno).
func (s *Subscriber) Done() <-chan struct{} { return s.done }

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// Hub registro de suscriptores. Publish no bloquea: si el buffer de un suscriptor
// está lleno se lo desconecta y deberá pedir el estado completo al reconectar.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscriber
	nextID uint64
	buffer int
	gauge  Gauge
	log    *logger.Logger
}

var _ events.Publisher = (*Hub)(nil)

// NewHub crea el hub. buffer es la capacidad por suscriptor.
func NewHub(buffer int, log *logger.Logger) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{subs: make(map[uint64]*Subscriber), buffer: buffer, log: log}
}

// WithGauge publica la cantidad de suscriptores en g.
func (h *Hub) WithGauge(g Gauge) *Hub {
	h.gauge = g
	return h
}

// Subscribe registra una nueva conexión.
func (h *Hub) Subscribe() *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	s := &Subscriber{id: h.nextID, ch: make(chan []byte, h.buffer), done: make(chan struct{})}
	h.subs[s.id] = s
	h.reportLocked()
	return s
}

// Unsubscribe da de baja la conexión. Es seguro llamarlo más de una vez.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

// Len cantidad de suscriptores activos.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish serializa una vez y entrega a todos los suscriptores.
func (h *Hub) Publish(_ context.Context, event string, payload any) error {
	frame, err := Encode(event, payload)
	if err != nil {
		return err
	}
	h.Broadcast(frame)
	return nil
}

// Broadcast entrega un frame ya serializado.
func (h *Hub) Broadcast(frame []byte) {
	var slow []*Subscriber
	h.mu.RLock()
	for _, s := range h.subs {
		select {
		case s.ch <- frame:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, s := range slow {
		h.removeLocked(s)
	}
	h.mu.Unlock()
	h.log.Warn().Int("dropped", len(slow)).Msg("suscriptores lentos desconectados")
}

func (h *Hub) removeLocked(s *Subscriber) {
	if _, ok := h.subs[s.id]; !ok {
		return
	}
	delete(h.subs, s.id)
	s.close()
	h.reportLocked()
}

func (h *Hub) reportLocked() {
	if h.gauge != nil {
		h.gauge.Set(float64(len(h.subs)))
	}
}
