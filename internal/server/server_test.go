package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/elimdraw/internal/lottery"
)

type gatewayFixture struct {
	server *Server
	engine *lottery.Engine
	clock  *quartz.Mock
	url    string
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	logger := log.New(io.Discard)
	mockClock := quartz.NewMock(t)

	dir := t.TempDir()
	store, err := lottery.NewStore(logger, lottery.StoreOptions{
		DataDir:   dir,
		StatePath: lottery.StatePathDefault(dir),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine := lottery.NewEngine(logger, mockClock, store, lottery.DefaultConfig())
	settings := lottery.DefaultRaidSettings()
	settings.Sender = "raidbot"
	gate := lottery.NewRaidGate(logger, mockClock, engine, settings)

	srv := NewServer("127.0.0.1:0", logger, engine, gate)
	go srv.run()
	t.Cleanup(func() { _ = srv.Stop() })

	ts := httptest.NewServer(http.HandlerFunc(srv.handleWebSocket))
	t.Cleanup(ts.Close)

	return &gatewayFixture{
		server: srv,
		engine: engine,
		clock:  mockClock,
		url:    "ws" + strings.TrimPrefix(ts.URL, "http"),
	}
}

func dial(t *testing.T, fx *gatewayFixture) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(fx.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendCommand(t *testing.T, conn *websocket.Conn, cmdType CommandType, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Command{Type: cmdType, Data: raw}))
}

// readResponse reads until a message of the wanted type arrives, skipping
// broadcast events interleaved with direct replies.
func readResponse(t *testing.T, conn *websocket.Conn, want ResponseType) *Response {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var resp Response
		require.NoError(t, conn.ReadJSON(&resp))
		if resp.Type == want {
			return &resp
		}
		if resp.Type == ResponseError {
			t.Fatalf("unexpected error response: %s", resp.Data)
		}
	}
}

func authenticate(t *testing.T, conn *websocket.Conn, userID string, chatID int64) {
	t.Helper()
	sendCommand(t, conn, CommandAuth, AuthData{UserID: userID, Username: userID, ChatID: chatID})
	resp := readResponse(t, conn, ResponseAuth)
	var data AuthResponseData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.True(t, data.Success)
}

func TestGatewayAuthRequired(t *testing.T) {
	fx := newGatewayFixture(t)
	conn := dial(t, fx)

	sendCommand(t, conn, CommandCreateGame, CreateGameData{})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	require.Equal(t, ResponseError, resp.Type)

	var errData ErrorData
	require.NoError(t, json.Unmarshal(resp.Data, &errData))
	assert.Equal(t, "not_authenticated", errData.Code)
}

func TestGatewayCreateAndJoin(t *testing.T) {
	fx := newGatewayFixture(t)
	chatID := int64(300)

	creator := dial(t, fx)
	authenticate(t, creator, "alice", chatID)

	sendCommand(t, creator, CommandCreateGame, CreateGameData{MaxPlayers: 10, WinnerCount: 2})
	resp := readResponse(t, creator, ResponseResult)

	var res lottery.Result
	require.NoError(t, json.Unmarshal(resp.Data, &res))
	require.True(t, res.OK, res.Message)
	require.NotNil(t, res.Game)
	assert.Equal(t, "WAITING", res.Game.State)
	assert.Equal(t, 20, res.Game.Range.Max)

	joiner := dial(t, fx)
	authenticate(t, joiner, "bob", chatID)
	sendCommand(t, joiner, CommandJoinGame, GameRefData{GameID: res.Game.GameID})
	joinResp := readResponse(t, joiner, ResponseResult)

	var joinRes lottery.Result
	require.NoError(t, json.Unmarshal(joinResp.Data, &joinRes))
	require.True(t, joinRes.OK, joinRes.Message)
	assert.Len(t, joinRes.Game.Players, 2)
}

func TestGatewayBroadcastsEventsToChat(t *testing.T) {
	fx := newGatewayFixture(t)
	chatID := int64(301)

	watcher := dial(t, fx)
	authenticate(t, watcher, "watcher", chatID)

	outsider := dial(t, fx)
	authenticate(t, outsider, "outsider", chatID+1)

	creator := dial(t, fx)
	authenticate(t, creator, "alice", chatID)
	sendCommand(t, creator, CommandCreateGame, CreateGameData{})
	readResponse(t, creator, ResponseResult)

	evtResp := readResponse(t, watcher, ResponseEvent)
	var evt lottery.Event
	require.NoError(t, json.Unmarshal(evtResp.Data, &evt))
	assert.Equal(t, lottery.EventGameCreated, evt.Type)
	assert.Equal(t, chatID, evt.ChatID)

	// The other chat's connection must see nothing.
	require.NoError(t, outsider.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var stray Response
	err := outsider.ReadJSON(&stray)
	require.Error(t, err, "outsider received %+v", stray)
}

func TestGatewayChatMessageFeedsRaidGate(t *testing.T) {
	fx := newGatewayFixture(t)
	chatID := int64(302)

	conn := dial(t, fx)
	authenticate(t, conn, "relay", chatID)

	// A non-raid message and a raid message against a chat with no games
	// must both be harmless no-ops.
	sendCommand(t, conn, CommandMessage, ChatMessageData{SenderID: "someone", Text: "hello"})
	sendCommand(t, conn, CommandMessage, ChatMessageData{SenderID: "raidbot", Text: "raid in progress"})

	sendCommand(t, conn, CommandStatus, nil)
	resp := readResponse(t, conn, ResponseResult)
	var res lottery.Result
	require.NoError(t, json.Unmarshal(resp.Data, &res))
	assert.True(t, res.OK)
}
