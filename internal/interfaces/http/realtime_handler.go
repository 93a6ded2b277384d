package http

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/storemax-api/internal/application/events"
	"github.com/jhoicas/storemax-api/internal/application/sales"
	"github.com/jhoicas/storemax-api/internal/application/usecase"
	"github.com/jhoicas/storemax-api/internal/domain/repository"
	"github.com/jhoicas/storemax-api/internal/infrastructure/realtime"
	"github.com/jhoicas/storemax-api/pkg/logger"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsSnapshotWait = 5 * time.Second
)

// RealtimeHandler atiende el canal en vivo (/ws). Al conectar envía products:init y sales:init;
// luego reenvía los eventos del hub y responde a los pedidos de refresco del cliente.
type RealtimeHandler struct {
	hub      *realtime.Hub
	products *usecase.ProductUseCase
	sales    *sales.SaleUseCase
	log      *logger.Logger
}

// NewRealtimeHandler construye el handler.
func NewRealtimeHandler(hub *realtime.Hub, products *usecase.ProductUseCase, sales *sales.SaleUseCase, log *logger.Logger) *RealtimeHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RealtimeHandler{hub: hub, products: products, sales: sales, log: log}
}

// Upgrade rechaza con 426 las peticiones que no piden websocket.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler devuelve el handler websocket.
//
// @Summary      Canal de actualizaciones en vivo
// @Description  Websocket. Frames {"event": "...", "data": ...}. Token por header Authorization o ?token=.
// @Tags         realtime
// @Security     Bearer
// @Param        token  query  string  false  "JWT si no se envía header Authorization"
// @Success      101
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /ws [get]
func (h *RealtimeHandler) Handler() fiber.Handler {
	return websocket.New(h.serve)
}

func (h *RealtimeHandler) serve(conn *websocket.Conn) {
	userID, _ := conn.Locals(LocalUserID).(string)
	log := h.log.Component("ws")
	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)
	log.Debug().Str("user_id", userID).Int("subscribers", h.hub.Len()).Msg("cliente conectado")

	ctx, cancel := context.WithTimeout(context.Background(), wsSnapshotWait)
	for _, name := range []string{events.ProductsInit, events.SalesInit} {
		frame, err := h.snapshot(ctx, name)
		if err != nil {
			log.Error().Err(err).Str("event", name).Msg("no se pudo armar el snapshot inicial")
			continue
		}
		if err := write(conn, frame); err != nil {
			cancel()
			return
		}
	}
	cancel()

	replies := make(chan []byte, 4)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frame, err := h.reply(msg)
			if err != nil {
				log.Warn().Err(err).Msg("mensaje de cliente ignorado")
				continue
			}
			if frame == nil {
				continue
			}
			select {
			case replies <- frame:
			default:
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		var err error
		select {
		case <-closed:
			return
		case <-sub.Done():
			log.Debug().Str("user_id", userID).Msg("suscriptor lento desconectado")
			return
		case frame := <-sub.C():
			err = write(conn, frame)
		case frame := <-replies:
			err = write(conn, frame)
		case <-ping.C:
			err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
		}
		if err != nil {
			return
		}
	}
}

// reply procesa un frame del cliente. Devuelve nil si el evento no requiere respuesta.
func (h *RealtimeHandler) reply(msg []byte) ([]byte, error) {
	var in realtime.Frame
	if err := json.Unmarshal(msg, &in); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), wsSnapshotWait)
	defer cancel()
	switch in.Event {
	case events.ProductRequestUpdate:
		return h.snapshot(ctx, events.ProductsUpdate)
	case events.SalesRequestUpdate:
		return h.snapshot(ctx, events.SalesUpdate)
	}
	return nil, nil
}

// snapshot arma el frame con el estado completo de productos o ventas.
func (h *RealtimeHandler) snapshot(ctx context.Context, event string) ([]byte, error) {
	var payload any
	var err error
	switch event {
	case events.ProductsInit, events.ProductsUpdate:
		payload, err = h.products.List(ctx, repository.ProductFilter{})
	default:
		payload, err = h.sales.List(ctx, 0, 0)
	}
	if err != nil {
		return nil, err
	}
	return realtime.Encode(event, payload)
}

func write(conn *websocket.Conn, frame []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}
