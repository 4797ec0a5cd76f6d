// Package lottery implements the elimination-lottery engine: a per-chat
// registry of timer-driven games where verifiably-random draws knock out
// players until only the configured survivors remain.
package lottery

import (
	"sort"
	"time"

	"github.com/coder/quartz"
	"github.com/samber/lo"
)

// State is the lifecycle phase of a game.
type State int

const (
	// StateWaiting is the join window before the scheduled start.
	StateWaiting State = iota
	// StateNumberSelection is the transient phase while numbers are
	// assigned from the shuffled pool. Assignment is automatic and atomic,
	// so games only observe this state mid-transition.
	StateNumberSelection
	// StateDrawing is the active elimination loop.
	StateDrawing
	// StatePaused suspends the loop awaiting a resume (raid, error, manual).
	StatePaused
	// StateFinished is terminal; finished games leave the active registry.
	StateFinished
)

var stateNames = map[State]string{
	StateWaiting:         "WAITING",
	StateNumberSelection: "NUMBER_SELECTION",
	StateDrawing:         "DRAWING",
	StatePaused:          "PAUSED",
	StateFinished:        "FINISHED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func stateFromString(name string) (State, bool) {
	for s, n := range stateNames {
		if n == name {
			return s, true
		}
	}
	return StateWaiting, false
}

// Reasons recorded when a game ends or pauses.
const (
	ReasonCompleted           = "COMPLETED"
	ReasonPoolExhausted       = "POOL_EXHAUSTED"
	ReasonInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	ReasonCancelled           = "CANCELLED_BY_OWNER"
	ReasonRaidFailure         = "RAID_FAILURE"

	PauseReasonManual = "MANUAL"
	PauseReasonRaid   = "RAID"
	pauseReasonError  = "ROUND_ERROR"
)

// Player is one entrant in a game.
type Player struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	JoinedAt        time.Time `json:"joinedAt"`
	Eliminated      bool      `json:"eliminated"`
	EliminatedRound int       `json:"eliminatedRound,omitempty"`
	Number          int       `json:"assignedNumber,omitempty"`
}

// NumberRange is the inclusive range numbers are drawn from.
type NumberRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// PrizeInfo carries the prize pool and its split.
type PrizeInfo struct {
	Total       int64  `json:"totalPrize"`
	PerSurvivor int64  `json:"prizePerSurvivor"`
	Seed        string `json:"seed,omitempty"`
	Proof       string `json:"vrfProof,omitempty"`
	Fixed       bool   `json:"fixed,omitempty"`
}

// RaidState is the raid-gate sub-state of a game.
type RaidState struct {
	Enabled       bool `json:"enabled"`
	Paused        bool `json:"paused"`
	MonitorActive bool `json:"monitorActive"`
	MessageCount  int  `json:"messageCount"`
	FailureCount  int  `json:"failureCount"`
}

// Draw is a single verifiable number draw. The realized seed is kept so the
// draw can be reproduced exactly after the fact.
type Draw struct {
	Number int    `json:"number"`
	Seed   string `json:"seed"`
	Proof  string `json:"proof"`
}

// DrawRecord is the audit log entry for one elimination round.
type DrawRecord struct {
	Round     int       `json:"round"`
	Draws     []Draw    `json:"draws"`
	Timestamp time.Time `json:"timestamp"`
}

// Game is one elimination lottery. All mutation happens inside the engine's
// lock; the struct itself carries no synchronization.
type Game struct {
	ID         string
	ChatID     int64
	CreatorID  string
	State      State
	Players    map[string]*Player
	Range      NumberRange
	MaxPlayers int
	Multiplier int
	WinnerCount int
	Round      int
	Prize      PrizeInfo
	Pool       []int // numbers not yet drawn
	Draws      []DrawRecord
	Raid       RaidState

	CreatedAt  time.Time
	StartAt    time.Time // scheduled automatic start
	StartedAt  time.Time
	FinishedAt time.Time

	EndReason   string
	PauseReason string
	Retries     int

	// Runtime-only fields; never serialized, recreated by the engine on
	// load. gen invalidates timer callbacks scheduled before a pause,
	// cancel, or finish.
	gen           int
	startTimer    *quartz.Timer
	roundTimer    *quartz.Timer
	reminderTimer *quartz.Timer
	graceTimer    *quartz.Timer
	reminderCount int
}

// playersByJoin returns players ordered by join time (ties broken by ID) so
// deterministic operations like number assignment have a stable order.
func (g *Game) playersByJoin() []*Player {
	out := lo.Values(g.Players)
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// survivors returns the players still in the game, in join order.
func (g *Game) survivors() []*Player {
	return lo.Filter(g.playersByJoin(), func(p *Player, _ int) bool {
		return !p.Eliminated
	})
}

func (g *Game) remaining() int {
	return lo.CountBy(lo.Values(g.Players), func(p *Player) bool {
		return !p.Eliminated
	})
}

func (g *Game) eliminatedCount() int {
	return len(g.Players) - g.remaining()
}

// stopTimers halts every pending timer for the game and bumps the
// generation so callbacks already in flight become no-ops. Must be called
// under the engine lock before a game is paused, cancelled, or finished.
func (g *Game) stopTimers() {
	g.gen++
	for _, t := range []*quartz.Timer{g.startTimer, g.roundTimer, g.reminderTimer, g.graceTimer} {
		if t != nil {
			t.Stop()
		}
	}
	g.startTimer = nil
	g.roundTimer = nil
	g.reminderTimer = nil
	g.graceTimer = nil
}
