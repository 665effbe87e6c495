/*
Package handler provides HTTP handler functions for the read-only chat query API.
*/
package handler

import (
	"net/http"

	"roomcast/internal/pkg/resp"
)

// HandleGetMessages returns the stored broadcast history, oldest first.
func HandleGetMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history := deps.Manager.History()
		resp.RespondList(w, r, history, len(history))
	}
}

// HandleGetUsers returns the currently joined users in join order.
func HandleGetUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users := deps.Manager.OnlineUsers()
		resp.RespondList(w, r, users, len(users))
	}
}
