package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/storemax-api/internal/application/events"
	"github.com/jhoicas/storemax-api/pkg/logger"
)

// envelope viaja por el exchange; Origin evita re-entregar a la instancia que lo publicó.
type envelope struct {
	Origin string          `json:"origin"`
	Frame  json.RawMessage `json:"frame"`
}

// AMQPRelay entrega cada evento al hub local y lo replica a las demás instancias
// mediante un exchange topic. Los eventos de otras instancias llegan por una cola
// exclusiva y se reenvían al hub local.
type AMQPRelay struct {
	hub      *Hub
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	queue    string
	instance string
	log      *logger.Logger
}

var _ events.Publisher = (*AMQPRelay)(nil)

// NewAMQPRelay conecta a RabbitMQ, declara el exchange y una cola exclusiva ligada a todos los eventos.
func NewAMQPRelay(url, exchange string, hub *Hub, log *logger.Logger) (*AMQPRelay, error) {
	if log == nil {
		log = logger.Nop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "#", exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	return &AMQPRelay{
		hub:      hub,
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		queue:    q.Name,
		instance: uuid.New().String(),
		log:      log,
	}, nil
}

// Publish entrega localmente y luego replica. Un fallo del broker no impide la entrega local.
func (r *AMQPRelay) Publish(ctx context.Context, event string, payload any) error {
	frame, err := Encode(event, payload)
	if err != nil {
		return err
	}
	r.hub.Broadcast(frame)

	body, err := json.Marshal(envelope{Origin: r.instance, Frame: frame})
	if err != nil {
		return err
	}
	if err := r.ch.PublishWithContext(ctx, r.exchange, routingKey(event), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		return fmt.Errorf("publicar %s en rabbitmq: %w", event, err)
	}
	return nil
}

// Run consume la cola hasta que ctx termine o se cierre la conexión.
func (r *AMQPRelay) Run(ctx context.Context) error {
	deliveries, err := r.ch.ConsumeWithContext(ctx, r.queue, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("canal de rabbitmq cerrado")
			}
			r.handle(d.Body)
		}
	}
}

func (r *AMQPRelay) handle(body []byte) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		r.log.Warn().Err(err).Msg("mensaje de rabbitmq inválido")
		return
	}
	if env.Origin == r.instance || len(env.Frame) == 0 {
		return
	}
	r.hub.Broadcast(env.Frame)
}

// Close cierra canal y conexión.
func (r *AMQPRelay) Close() error {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// routingKey convierte "product:added" en "product.added" para que los patrones topic funcionen por segmento.
func routingKey(event string) string {
	return strings.ReplaceAll(event, ":", ".")
}
