package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/athlete-sentinel/sentinel/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard may be served from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DeviceWS streams device-status updates over a websocket. The current
// state is pushed on connect, then every published change for as long as
// the client stays connected.
func (h *Handlers) DeviceWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	if h.Metrics != nil {
		h.Metrics.DeviceSubscriberConnected(1)
		defer h.Metrics.DeviceSubscriberConnected(-1)
	}

	// Publish runs handlers synchronously, so the handler must not block:
	// updates are handed off through a buffered channel and a slow client
	// drops intermediate states rather than stalling publishers.
	updates := make(chan bool, 16)
	unsubscribe := h.Device.Subscribe(func(connected bool) {
		select {
		case updates <- connected:
		default:
		}
	})
	defer unsubscribe()
	defer conn.Close()

	if err := conn.WriteJSON(models.DeviceState{Connected: h.Device.Connected()}); err != nil {
		return
	}

	// Reader goroutine: the client sends nothing meaningful, but reading
	// is how we learn the connection closed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case connected := <-updates:
			if err := conn.WriteJSON(models.DeviceState{Connected: connected}); err != nil {
				return
			}
		}
	}
}
