package lottery

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
)

// SnapshotVersion is the schema version of the serialized registry. Loads
// reject other versions outright instead of shape-sniffing legacy formats.
const SnapshotVersion = 1

// RegistrySnapshot is the full serialized form of the active registry:
// chats and per-chat games flattened to order-irrelevant [key, value] pairs,
// timestamps as RFC 3339 strings. Timer handles are runtime state and are
// never part of a snapshot; the engine recreates them on load.
type RegistrySnapshot struct {
	Version int         `json:"version"`
	SavedAt time.Time   `json:"savedAt"`
	Chats   []ChatEntry `json:"chats"`
}

// ChatEntry marshals as a [chatID, games] pair.
type ChatEntry struct {
	ChatID int64
	Games  []GameEntry
}

func (c ChatEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.ChatID, c.Games})
}

func (c *ChatEntry) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("chat entry: %w", err)
	}
	if err := json.Unmarshal(raw[0], &c.ChatID); err != nil {
		return fmt.Errorf("chat entry key: %w", err)
	}
	if err := json.Unmarshal(raw[1], &c.Games); err != nil {
		return fmt.Errorf("chat entry games: %w", err)
	}
	return nil
}

// GameEntry marshals as a [gameID, game] pair.
type GameEntry struct {
	GameID string
	Game   GameRecord
}

func (g GameEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{g.GameID, g.Game})
}

func (g *GameEntry) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("game entry: %w", err)
	}
	if err := json.Unmarshal(raw[0], &g.GameID); err != nil {
		return fmt.Errorf("game entry key: %w", err)
	}
	if err := json.Unmarshal(raw[1], &g.Game); err != nil {
		return fmt.Errorf("game entry value: %w", err)
	}
	return nil
}

// PlayerEntry marshals as a [playerID, player] pair.
type PlayerEntry struct {
	ID     string
	Player Player
}

func (p PlayerEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.ID, p.Player})
}

func (p *PlayerEntry) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("player entry: %w", err)
	}
	if err := json.Unmarshal(raw[0], &p.ID); err != nil {
		return fmt.Errorf("player entry key: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Player); err != nil {
		return fmt.Errorf("player entry value: %w", err)
	}
	return nil
}

// GameRecord is the serialized (and externally visible) form of a Game.
type GameRecord struct {
	GameID      string        `json:"gameId"`
	ChatID      int64         `json:"chatId"`
	CreatorID   string        `json:"creatorId"`
	State       string        `json:"state"`
	Players     []PlayerEntry `json:"players"`
	Range       NumberRange   `json:"numberRange"`
	MaxPlayers  int           `json:"maxPlayers"`
	Multiplier  int           `json:"selectionMultiplier"`
	WinnerCount int           `json:"winnerCount"`
	Round       int           `json:"round"`
	Prize       PrizeInfo     `json:"prize"`
	Pool        []int         `json:"pool,omitempty"`
	Draws       []DrawRecord  `json:"draws,omitempty"`
	Raid        RaidState     `json:"raid"`
	CreatedAt   time.Time     `json:"createdAt"`
	StartAt     time.Time     `json:"startAt"`
	StartedAt   time.Time     `json:"startedAt,omitzero"`
	FinishedAt  time.Time     `json:"finishedAt,omitzero"`
	EndReason   string        `json:"endReason,omitempty"`
	PauseReason string        `json:"pauseReason,omitempty"`
	Retries     int           `json:"retries,omitempty"`
}

// record converts a live game to its serialized form.
func (g *Game) record() *GameRecord {
	players := lo.Map(g.playersByJoin(), func(p *Player, _ int) PlayerEntry {
		return PlayerEntry{ID: p.ID, Player: *p}
	})

	rec := &GameRecord{
		GameID:      g.ID,
		ChatID:      g.ChatID,
		CreatorID:   g.CreatorID,
		State:       g.State.String(),
		Players:     players,
		Range:       g.Range,
		MaxPlayers:  g.MaxPlayers,
		Multiplier:  g.Multiplier,
		WinnerCount: g.WinnerCount,
		Round:       g.Round,
		Prize:       g.Prize,
		Pool:        append([]int(nil), g.Pool...),
		Draws:       append([]DrawRecord(nil), g.Draws...),
		Raid:        g.Raid,
		CreatedAt:   g.CreatedAt,
		StartAt:     g.StartAt,
		StartedAt:   g.StartedAt,
		FinishedAt:  g.FinishedAt,
		EndReason:   g.EndReason,
		PauseReason: g.PauseReason,
		Retries:     g.Retries,
	}
	return rec
}

// gameFromRecord revives a serialized game. Timer handles are deliberately
// absent; the engine schedules fresh ones.
func gameFromRecord(gameID string, rec GameRecord) (*Game, error) {
	state, ok := stateFromString(rec.State)
	if !ok {
		return nil, fmt.Errorf("game %s: unknown state %q", gameID, rec.State)
	}

	players := make(map[string]*Player, len(rec.Players))
	for _, entry := range rec.Players {
		p := entry.Player
		p.ID = entry.ID
		players[entry.ID] = &p
	}

	return &Game{
		ID:          gameID,
		ChatID:      rec.ChatID,
		CreatorID:   rec.CreatorID,
		State:       state,
		Players:     players,
		Range:       rec.Range,
		MaxPlayers:  rec.MaxPlayers,
		Multiplier:  rec.Multiplier,
		WinnerCount: rec.WinnerCount,
		Round:       rec.Round,
		Prize:       rec.Prize,
		Pool:        append([]int(nil), rec.Pool...),
		Draws:       append([]DrawRecord(nil), rec.Draws...),
		Raid:        rec.Raid,
		CreatedAt:   rec.CreatedAt,
		StartAt:     rec.StartAt,
		StartedAt:   rec.StartedAt,
		FinishedAt:  rec.FinishedAt,
		EndReason:   rec.EndReason,
		PauseReason: rec.PauseReason,
		Retries:     rec.Retries,
	}, nil
}

// snapshotLocked flattens the active registry. Caller holds the engine lock.
func (e *Engine) snapshotLocked() *RegistrySnapshot {
	snap := &RegistrySnapshot{
		Version: SnapshotVersion,
		SavedAt: e.clock.Now(),
	}

	chatIDs := lo.Keys(e.chats)
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })

	for _, chatID := range chatIDs {
		games := lo.Values(e.chats[chatID])
		if len(games) == 0 {
			continue
		}
		sort.Slice(games, func(i, j int) bool {
			return games[i].CreatedAt.Before(games[j].CreatedAt)
		})
		entry := ChatEntry{ChatID: chatID}
		for _, g := range games {
			entry.Games = append(entry.Games, GameEntry{GameID: g.ID, Game: *g.record()})
		}
		snap.Chats = append(snap.Chats, entry)
	}
	return snap
}
