package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/storemax-api/pkg/logger"
)

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "product.added", routingKey("product:added"))
	assert.Equal(t, "inventory.updated", routingKey("inventory:updated"))
}

func TestRelayHandle_IgnoraPropiosYReenviaAjenos(t *testing.T) {
	hub := NewHub(4, nil)
	sub := hub.Subscribe()
	r := &AMQPRelay{hub: hub, instance: "yo", log: logger.Nop()}

	frame, err := Encode("sale:completed", map[string]string{"id": "s1"})
	require.NoError(t, err)

	own, _ := json.Marshal(envelope{Origin: "yo", Frame: frame})
	r.handle(own)
	assert.Len(t, sub.C(), 0)

	foreign, _ := json.Marshal(envelope{Origin: "otra", Frame: frame})
	r.handle(foreign)
	f := recv(t, sub)
	assert.Equal(t, "sale:completed", f.Event)

	r.handle([]byte(`{"origin":"otra","frame":`))
	assert.Len(t, sub.C(), 0)
}
