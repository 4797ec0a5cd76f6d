package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/elimdraw/internal/lottery"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents one WebSocket client: an authenticated chat member
// issuing game commands, or a relay feeding chat traffic in.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Response
	userID    string
	name      string
	chatID    int64
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	server    *Server
}

// NewConnection wraps a websocket connection.
func NewConnection(conn *websocket.Conn, logger *log.Logger, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Response, 256),
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
		server: server,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Send queues a response to the client. A full buffer drops the
// connection rather than blocking the caller.
func (c *Connection) Send(msg *Response) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during shutdown.
			c.logger.Debug("Send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// UserID returns the authenticated user, or "".
func (c *Connection) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// ChatID returns the chat this connection is bound to, or 0.
func (c *Connection) ChatID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chatID
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleCommand(&cmd)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) handleCommand(cmd *Command) {
	c.logger.Debug("Received command", "type", cmd.Type, "user", c.UserID())
	reqID := cmd.RequestID

	switch cmd.Type {
	case CommandAuth:
		var data AuthData
		if err := json.Unmarshal(cmd.Data, &data); err != nil {
			c.sendError(reqID, "invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(reqID, data)

	case CommandCreateGame:
		var data CreateGameData
		if err := json.Unmarshal(cmd.Data, &data); err != nil {
			c.sendError(reqID, "invalid_message", "Failed to parse create game data")
			return
		}
		c.handleCreateGame(reqID, data)

	case CommandJoinGame:
		c.withGameRef(cmd, func(userID string, chatID int64, gameID string) lottery.Result {
			return c.server.engine.JoinGame(chatID, gameID, userID, c.username())
		})

	case CommandStartGame:
		c.withGameRef(cmd, func(_ string, chatID int64, gameID string) lottery.Result {
			return c.server.engine.StartGame(chatID, gameID)
		})

	case CommandPauseGame:
		c.withGameRef(cmd, func(_ string, chatID int64, gameID string) lottery.Result {
			return c.server.engine.PauseGame(chatID, gameID)
		})

	case CommandResumeGame:
		c.withGameRef(cmd, func(_ string, chatID int64, gameID string) lottery.Result {
			return c.server.engine.ResumeGame(chatID, gameID)
		})

	case CommandCancelGame:
		c.withGameRef(cmd, func(userID string, chatID int64, gameID string) lottery.Result {
			return c.server.engine.CancelGame(chatID, gameID, userID)
		})

	case CommandStatus:
		if !c.authed(reqID) {
			return
		}
		c.sendResult(reqID, c.server.engine.Status(c.ChatID()))

	case CommandHistory:
		c.handleHistory(reqID)

	case CommandMessage:
		var data ChatMessageData
		if err := json.Unmarshal(cmd.Data, &data); err != nil {
			c.sendError(reqID, "invalid_message", "Failed to parse chat message data")
			return
		}
		if !c.authed(reqID) {
			return
		}
		c.server.gate.Observe(c.ChatID(), data.SenderID, data.Text)

	default:
		c.sendError(reqID, "unknown_command", "Unknown command type: "+string(cmd.Type))
	}
}

func (c *Connection) username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	// Username tracked alongside the user ID at auth time.
	return c.name
}

// authed rejects commands from unauthenticated connections.
func (c *Connection) authed(reqID string) bool {
	if c.UserID() == "" {
		c.sendError(reqID, "not_authenticated", "Must authenticate first")
		return false
	}
	return true
}

// withGameRef runs a game-scoped engine call with parsed ref data.
func (c *Connection) withGameRef(cmd *Command, fn func(userID string, chatID int64, gameID string) lottery.Result) {
	var data GameRefData
	if len(cmd.Data) > 0 {
		if err := json.Unmarshal(cmd.Data, &data); err != nil {
			c.sendError(cmd.RequestID, "invalid_message", "Failed to parse game reference")
			return
		}
	}
	if !c.authed(cmd.RequestID) {
		return
	}
	c.sendResult(cmd.RequestID, fn(c.UserID(), c.ChatID(), data.GameID))
}

func (c *Connection) sendResult(reqID string, res lottery.Result) {
	msg, err := NewResponse(ResponseResult, res)
	if err != nil {
		c.logger.Error("Failed to build result response", "error", err)
		return
	}
	msg.RequestID = reqID
	_ = c.Send(msg)
}

func (c *Connection) sendError(reqID, code, message string) {
	msg, err := NewResponse(ResponseError, ErrorData{Code: code, Message: message})
	if err != nil {
		c.logger.Error("Failed to build error response", "error", err)
		return
	}
	msg.RequestID = reqID
	_ = c.Send(msg)
}

func (c *Connection) handleAuth(reqID string, data AuthData) {
	c.logger.Info("Auth request", "user", data.UserID, "chat", data.ChatID)

	if data.UserID == "" || data.ChatID == 0 {
		c.sendError(reqID, "invalid_auth", "User ID and chat ID required")
		return
	}

	c.mu.Lock()
	c.userID = data.UserID
	c.chatID = data.ChatID
	c.name = data.Username
	if c.name == "" {
		c.name = data.UserID
	}
	c.mu.Unlock()

	msg, _ := NewResponse(ResponseAuth, AuthResponseData{
		Success: true,
		UserID:  data.UserID,
		ChatID:  data.ChatID,
	})
	msg.RequestID = reqID
	_ = c.Send(msg)
}

func (c *Connection) handleCreateGame(reqID string, data CreateGameData) {
	if !c.authed(reqID) {
		return
	}
	opts := lottery.GameOptions{
		MaxPlayers:  data.MaxPlayers,
		WinnerCount: data.WinnerCount,
		RaidEnabled: data.RaidEnabled,
		FixedPrize:  data.FixedPrize,
		StartDelay:  time.Duration(data.StartDelaySeconds) * time.Second,
	}
	c.sendResult(reqID, c.server.engine.CreateGame(c.ChatID(), c.UserID(), c.username(), opts))
}

func (c *Connection) handleHistory(reqID string) {
	if !c.authed(reqID) {
		return
	}
	msg, err := NewResponse(ResponseHistory, c.server.engine.History(c.ChatID()))
	if err != nil {
		c.logger.Error("Failed to build history response", "error", err)
		return
	}
	msg.RequestID = reqID
	_ = c.Send(msg)
}
