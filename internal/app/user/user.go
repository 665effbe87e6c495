/*
Package user contains the representation of a chat participant.

A User exists only while its connection is live: it is created when the
connection joins and removed when the connection goes away.
*/
package user

import "strings"

// PlaceholderName is used when a client joins without a usable display name.
const PlaceholderName = "Anonymous"

// User represents the presence information of a joined connection.
// Fields use JSON tags for serialization in websocket events and query responses.
type User struct {

	// ID is the server-assigned connection identity.
	ID string `json:"id"`

	// DisplayName is the name announced by the client; it need not be unique.
	DisplayName string `json:"username"`
}

// New builds a User, substituting PlaceholderName for an empty or blank display name.
func New(id, displayName string) User {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = PlaceholderName
	}
	return User{ID: id, DisplayName: name}
}
