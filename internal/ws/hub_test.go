package ws

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotsaero/rifa-backend/internal/models"
)

func TestBroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := hub.Register("a")
	b := hub.Register("b")

	hub.BroadcastState(models.StateView{SoldNumbers: []int{1}, TotalNumbers: 350})

	for _, out := range []chan []byte{a, b} {
		select {
		case payload := <-out:
			var msg serverMessage
			require.NoError(t, json.Unmarshal(payload, &msg))
			assert.Equal(t, "state", msg.Type)
			assert.Equal(t, []int{1}, msg.State.SoldNumbers)
		default:
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	out := hub.Register("slow")

	// Fill the outbox without draining it.
	for i := 0; i < cap(out)+1; i++ {
		hub.BroadcastState(models.StateView{TotalNumbers: 350})
	}

	assert.Equal(t, 0, hub.ClientCount())
	// A closed outbox tells the session writer to shut down.
	drained := 0
	for range out {
		drained++
	}
	assert.Equal(t, cap(out), drained)
}

func TestUnregisterClosesOutbox(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	out := hub.Register("a")

	hub.Unregister("a")

	_, open := <-out
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientCount())

	// Unregistering twice is harmless.
	hub.Unregister("a")
}
