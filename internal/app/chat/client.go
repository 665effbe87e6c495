/*
Package chat contains the core logic for realtime group messaging.

This file defines the Client struct, representing an active websocket connection. It manages
the connection's lifecycle, the read and write loops (ReadPump and WritePump), and the
translation of inbound frames into Manager operations.
*/
package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roomcast/internal/pkg/errs"
	"roomcast/internal/pkg/logx"
)

const (
	// timeout duration for writing to the websocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 16384

	// sendQueueSize is the number of outbound frames buffered per connection.
	sendQueueSize = 256
)

// Client struct represents an active websocket connection and its identity.
type Client struct {
	// the manager this connection is attached to.
	manager *Manager

	// underlying websocket connection object.
	conn *websocket.Conn

	// id is the identity assigned by the manager on Connect.
	id string

	// maxContentBytes caps the body of broadcast and private messages.
	maxContentBytes int

	// a buffered channel used to queue frames waiting to be sent to the client.
	send chan []byte

	// releaseOnce guards closing send.
	releaseOnce sync.Once

	// structured logger with client context.
	logger zerolog.Logger
}

// NewClient attaches wsConn to manager and returns the Client for it.
// It fails only when the manager is shutting down.
func NewClient(manager *Manager, wsConn *websocket.Conn, maxContentBytes int) (*Client, error) {
	client := &Client{
		manager:         manager,
		conn:            wsConn,
		maxContentBytes: maxContentBytes,
		send:            make(chan []byte, sendQueueSize),
	}

	id, err := manager.Connect(client)
	if err != nil {
		return nil, err
	}

	client.id = id
	client.logger = logx.Logger().With().
		Str("component", "Client").
		Str("conn_id", id).
		Logger()

	return client, nil
}

// ID returns the identity assigned to this connection.
func (c *Client) ID() string {
	return c.id
}

// Enqueue implements Recipient.
func (c *Client) Enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Release implements Recipient by closing the send queue; WritePump then sends a close frame.
func (c *Client) Release() {
	c.releaseOnce.Do(func() {
		close(c.send)
	})
}

// Close implements Recipient by closing the underlying connection, which ends both pumps.
// The Router may call it before NewClient has set id and logger, so it only touches conn.
func (c *Client) Close() {
	_ = c.conn.Close()
}

// ReadPump handles reading frames from the websocket connection.
// It handles heartbeats (Pong), frame decoding, and performs cleanup upon connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundFrame(frame)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.manager.Disconnect(c.id)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundFrame decodes one raw frame and dispatches it to the manager.
// Malformed frames and actions from connections that have not joined are logged and dropped.
func (c *Client) processInboundFrame(frame []byte) {
	cmd, err := DecodeCommand(frame)
	if err != nil {
		c.logger.Warn().Err(err).
			Int("frame_bytes", len(frame)).
			Msg("Client sent an invalid frame")
		return
	}

	switch cmd := cmd.(type) {
	case JoinCommand:
		c.manager.Join(c.id, cmd.DisplayName)

	case SendMessageCommand:
		if !c.checkContentLength(cmd.Body) {
			return
		}
		if _, err := c.manager.SendBroadcastMessage(c.id, cmd.Body); err != nil {
			c.logger.Debug().Err(err).Msg("Dropped message from connection that has not joined")
		}

	case PrivateMessageCommand:
		if !c.checkContentLength(cmd.Body) {
			return
		}
		if _, err := c.manager.SendPrivateMessage(c.id, cmd.TargetID, cmd.Body); err != nil {
			c.logger.Debug().Err(err).Msg("Dropped private message from connection that has not joined")
		}

	case TypingCommand:
		c.manager.SetTyping(c.id, cmd.IsTyping)
	}
}

// checkContentLength reports whether body fits the limit, notifying the client when it does not.
func (c *Client) checkContentLength(body string) bool {
	if c.maxContentBytes > 0 && len(body) > c.maxContentBytes {
		c.manager.SendError(c.id, errs.NewError(errs.ErrMessageContentTooLong, c.maxContentBytes))
		return false
	}
	return true
}

// WritePump handles writing frames from the Client.send channel to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one frame pulled from the send channel.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic websocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
