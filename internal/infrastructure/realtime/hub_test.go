package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGauge struct {
	mu sync.Mutex
	v  float64
}

func (g *fakeGauge) Set(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.v = v
}

func (g *fakeGauge) get() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.v
}

func recv(t *testing.T, s *Subscriber) Frame {
	t.Helper()
	select {
	case b := <-s.C():
		var f Frame
		require.NoError(t, json.Unmarshal(b, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("no llegó el frame")
	}
	return Frame{}
}

func TestHub_FanOut(t *testing.T) {
	g := &fakeGauge{}
	h := NewHub(4, nil).WithGauge(g)
	a, b := h.Subscribe(), h.Subscribe()
	assert.Equal(t, 2.0, g.get())

	require.NoError(t, h.Publish(context.Background(), "product:deleted", map[string]string{"id": "abc"}))

	for _, s := range []*Subscriber{a, b} {
		f := recv(t, s)
		assert.Equal(t, "product:deleted", f.Event)
		assert.JSONEq(t, `{"id":"abc"}`, string(f.Data))
	}
}

func TestHub_UnsubscribeDejaDeRecibir(t *testing.T) {
	g := &fakeGauge{}
	h := NewHub(4, nil).WithGauge(g)
	a := h.Subscribe()
	h.Unsubscribe(a)
	h.Unsubscribe(a)

	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0.0, g.get())
	select {
	case <-a.Done():
	default:
		t.Fatal("Done debería estar cerrado")
	}

	require.NoError(t, h.Publish(context.Background(), "sale:completed", 1))
	assert.Len(t, a.C(), 0)
}

func TestHub_SuscriptorLentoSeDesconecta(t *testing.T) {
	h := NewHub(1, nil)
	slow := h.Subscribe()
	fast := h.Subscribe()
	ctx := context.Background()

	require.NoError(t, h.Publish(ctx, "product:added", 1))
	recv(t, fast)
	require.NoError(t, h.Publish(ctx, "product:added", 2))

	select {
	case <-slow.Done():
	case <-time.After(time.Second):
		t.Fatal("el suscriptor lento no fue desconectado")
	}
	assert.Equal(t, 1, h.Len())
	f := recv(t, fast)
	assert.JSONEq(t, `2`, string(f.Data))
}

func TestHub_PublishConcurrente(t *testing.T) {
	h := NewHub(256, nil)
	s := h.Subscribe()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = h.Publish(context.Background(), "inventory:updated", i)
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.C(), 100)
}
