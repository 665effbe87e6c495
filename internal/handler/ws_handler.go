/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which upgrades the HTTP connection,
attaches it to the chat Manager, and runs the client lifecycle until the connection ends.
*/
package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"roomcast/internal/app/chat"
	"roomcast/internal/pkg/logx"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// The handler goroutine runs the read loop; the connection is anonymous until it sends join.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client, err := chat.NewClient(deps.Manager, conn, deps.Config.MaxMessageBytes)
		if err != nil {
			logx.Warn("WebSocket connection rejected: server is shutting down.", "error", err.Error())
			closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
			_ = conn.Close()
			return
		}

		go client.WritePump()

		logx.Info("WebSocket connection established", "conn_id", client.ID())

		client.ReadPump()
	}
}
