package websocket

import (
	"log/slog"
	"net/http"
	"strconv"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/larder/internal/auth"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and runs them as Hub clients watching ?list_id. The request must
// already carry an auth context.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		listID, err := strconv.ParseInt(r.URL.Query().Get("list_id"), 10, 64)
		if err != nil || listID <= 0 {
			http.Error(w, "invalid list_id", http.StatusBadRequest)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // clients authenticate with a bearer token
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, ac.SubscriptionID, listID)
		logger.Debug("websocket connected", "client_id", client.ID(), "shopping_list_id", listID)
		client.Run(r.Context())
	}
}
