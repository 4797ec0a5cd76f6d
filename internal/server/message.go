package server

import "encoding/json"

// CommandType identifies a client command.
type CommandType string

const (
	CommandAuth       CommandType = "auth"
	CommandCreateGame CommandType = "create_game"
	CommandJoinGame   CommandType = "join_game"
	CommandStartGame  CommandType = "start_game"
	CommandPauseGame  CommandType = "pause_game"
	CommandResumeGame CommandType = "resume_game"
	CommandCancelGame CommandType = "cancel_game"
	CommandStatus     CommandType = "status"
	CommandHistory    CommandType = "history"
	// CommandMessage carries ordinary chat traffic; the raid gate inspects
	// it for raid announcements.
	CommandMessage CommandType = "message"
)

// ResponseType identifies a server-to-client message.
type ResponseType string

const (
	ResponseAuth    ResponseType = "auth_response"
	ResponseResult  ResponseType = "result"
	ResponseHistory ResponseType = "history"
	ResponseEvent   ResponseType = "event"
	ResponseError   ResponseType = "error"
)

// Command is the client-to-server envelope. RequestID, when set, is echoed
// on the direct reply so adapters can correlate.
type Command struct {
	Type      CommandType     `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Response is the server-to-client envelope. Broadcast events carry no
// RequestID.
type Response struct {
	Type      ResponseType    `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewResponse builds a response envelope, marshaling the payload.
func NewResponse(t ResponseType, data any) (*Response, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Response{Type: t, Data: raw}, nil
}

// AuthData authenticates a connection and binds it to a chat.
type AuthData struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	ChatID   int64  `json:"chatId"`
}

// AuthResponseData acknowledges authentication.
type AuthResponseData struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
	ChatID  int64  `json:"chatId"`
}

// CreateGameData opens a new game in the connection's chat.
type CreateGameData struct {
	MaxPlayers        int   `json:"maxPlayers,omitempty"`
	WinnerCount       int   `json:"winnerCount,omitempty"`
	RaidEnabled       bool  `json:"raidEnabled,omitempty"`
	FixedPrize        int64 `json:"fixedPrize,omitempty"`
	StartDelaySeconds int   `json:"startDelaySeconds,omitempty"`
}

// GameRefData names a game; an empty ID targets the chat's most relevant
// game (latest waiting for joins, latest overall for cancels).
type GameRefData struct {
	GameID string `json:"gameId,omitempty"`
}

// ChatMessageData is a relayed chat message for raid detection.
type ChatMessageData struct {
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
}

// ErrorData is the payload of an error response.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
