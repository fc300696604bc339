package jobs

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/dessert-clicker/internal/api"
	"github.com/everforgeworks/dessert-clicker/internal/game"
)

type mockPublisher struct {
	clients int
	err     error
	sent    []api.Message
}

func (m *mockPublisher) ClientCount() int { return m.clients }

func (m *mockPublisher) Publish(msg api.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testEngine(t *testing.T) *game.Engine {
	t.Helper()
	cat, err := game.NewCatalog([]game.CatalogItem{
		{Key: "a", ImageRef: "a.png", UnitPrice: 1},
		{Key: "b", ImageRef: "b.png", UnitPrice: 2, ActivationThreshold: 2},
	})
	require.NoError(t, err)
	return game.NewEngine(cat)
}

func TestPulse_SendsCurrentSnapshot(t *testing.T) {
	e := testEngine(t)
	e.RecordSale()
	e.RecordSale()

	pub := &mockPublisher{clients: 2}
	hb := NewHeartbeat("@every 1m", e, pub)

	assert.True(t, hb.pulse())
	require.Len(t, pub.sent, 1)
	assert.Equal(t, api.MsgSalesPulse, pub.sent[0].Type)

	snap, ok := pub.sent[0].Payload.(game.Snapshot)
	require.True(t, ok)
	assert.Equal(t, int64(2), snap.UnitsSold)
	assert.Equal(t, "b.png", snap.CurrentImageRef)
}

func TestPulse_SkipsWithoutClients(t *testing.T) {
	pub := &mockPublisher{}
	hb := NewHeartbeat("@every 1m", testEngine(t), pub)

	assert.False(t, hb.pulse())
	assert.Empty(t, pub.sent)
}

func TestPulse_PublishError(t *testing.T) {
	pub := &mockPublisher{clients: 1, err: errors.New("stopped")}
	hb := NewHeartbeat("@every 1m", testEngine(t), pub)

	assert.False(t, hb.pulse())
}

func TestStart(t *testing.T) {
	hb := NewHeartbeat("", testEngine(t), &mockPublisher{})
	assert.NoError(t, hb.Start())
	hb.Stop()

	hb = NewHeartbeat("not a schedule", testEngine(t), &mockPublisher{})
	assert.Error(t, hb.Start())

	hb = NewHeartbeat("@every 1h", testEngine(t), &mockPublisher{})
	require.NoError(t, hb.Start())
	hb.Stop()
}

// A renderer must never see units_sold go backwards, whichever of the sale
// push and the pulse reaches the hub first.
func TestPulse_NeverOvertakesSalesUpdate(t *testing.T) {
	e := testEngine(t)
	hub := api.NewHub(1024, "*")
	server, unsubscribe := api.NewServer(e, hub, "")
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(server.Routes("*"))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	var greeting struct {
		Type string `json:"type"`
	}
	require.NoError(t, conn.ReadJSON(&greeting))
	require.Equal(t, api.MsgSalesUpdate, greeting.Type)

	hb := NewHeartbeat("@every 1h", e, hub)

	const workers, rounds = 2, 200
	var wg sync.WaitGroup
	for range workers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range rounds {
				e.RecordSale()
			}
		}()
		go func() {
			defer wg.Done()
			for range rounds {
				hb.Pulse()
			}
		}()
	}

	var last int64
	for last < workers*rounds {
		var env struct {
			Type    string        `json:"type"`
			Payload game.Snapshot `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&env))
		require.GreaterOrEqual(t, env.Payload.UnitsSold, last, "%s after units_sold=%d", env.Type, last)
		last = env.Payload.UnitsSold
	}
	wg.Wait()
}
