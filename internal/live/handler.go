package live

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// Handler upgrades requests to WebSocket connections and serves them as hub
// clients. originPatterns restricts cross-origin browsers; empty means same
// origin only.
func Handler(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			hub.logger.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
			return
		}

		NewClient(hub, conn, r.RemoteAddr).Run(r.Context())
	}
}
