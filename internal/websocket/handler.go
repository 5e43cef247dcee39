package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// Handler upgrades HTTP requests to WebSocket connections and runs them
// as hub clients until they disconnect.
func Handler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // clients connect from the LAN, not a fixed origin
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}

		client := newClient(hub, conn)
		client.run(r.Context())
	}
}
