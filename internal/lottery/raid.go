package lottery

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/samber/lo"
)

// RaidSettings configures the raid gate's trigger matching and timing.
type RaidSettings struct {
	// Sender is the ID of the account whose messages carry raid signals.
	// Messages from anyone else are ignored.
	Sender string

	InProgressPatterns []string
	SuccessPatterns    []string
	FailurePatterns    []string

	ReminderInterval time.Duration // between participation nags while paused
	GraceDelay       time.Duration // after success before the draw resumes
}

// DefaultRaidSettings returns the gate defaults, minus the sender, which
// has no sensible default.
func DefaultRaidSettings() RaidSettings {
	return RaidSettings{
		InProgressPatterns: []string{"raid in progress", "a raid has started"},
		SuccessPatterns:    []string{"raid successful", "raid complete"},
		FailurePatterns:    []string{"raid failed", "raid unsuccessful"},
		ReminderInterval:   30 * time.Second,
		GraceDelay:         10 * time.Second,
	}
}

// RaidGate watches chat traffic for raid lifecycle announcements and
// pauses or resumes eligible games accordingly. It drives the engine
// through its own goroutine-safe entry points and keeps no game state of
// its own beyond the per-game flags inside RaidState.
type RaidGate struct {
	logger   *log.Logger
	clock    quartz.Clock
	engine   *Engine
	settings RaidSettings
}

// NewRaidGate wires a gate to the engine.
func NewRaidGate(logger *log.Logger, clock quartz.Clock, engine *Engine, settings RaidSettings) *RaidGate {
	if settings.ReminderInterval == 0 {
		settings.ReminderInterval = 30 * time.Second
	}
	if settings.GraceDelay == 0 {
		settings.GraceDelay = 10 * time.Second
	}
	return &RaidGate{
		logger:   logger.WithPrefix("raid"),
		clock:    clock,
		engine:   engine,
		settings: settings,
	}
}

// Observe feeds one chat message through the gate. Messages from senders
// other than the configured raid account, and messages matching no
// pattern, are ignored.
func (r *RaidGate) Observe(chatID int64, sender, text string) {
	if r.settings.Sender == "" || sender != r.settings.Sender {
		return
	}
	lower := strings.ToLower(text)

	switch {
	case matchesAny(lower, r.settings.InProgressPatterns):
		r.onRaidStarted(chatID)
	case matchesAny(lower, r.settings.SuccessPatterns):
		r.onRaidEnded(chatID, true)
	case matchesAny(lower, r.settings.FailurePatterns):
		r.onRaidEnded(chatID, false)
	}
}

func matchesAny(lower string, patterns []string) bool {
	return lo.SomeBy(patterns, func(p string) bool {
		return p != "" && strings.Contains(lower, strings.ToLower(p))
	})
}

// onRaidStarted pauses every eligible game in the chat and starts its
// reminder loop. Eligibility requires an active draw past its halfway
// point with room left above the bubble, so raids cannot stall a game
// that is nearly decided.
func (r *RaidGate) onRaidStarted(chatID int64) {
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, g := range e.chats[chatID] {
		if !raidEligible(g) {
			continue
		}
		g.Raid.Paused = true
		g.Raid.MonitorActive = true
		e.pauseLocked(g, PauseReasonRaid)
		r.scheduleReminderLocked(g)
		e.persistLocked()
		r.logger.Info("raid pause", "game", g.ID, "chat", chatID)
	}
}

func raidEligible(g *Game) bool {
	if g.State != StateDrawing || !g.Raid.Enabled || g.Raid.Paused {
		return false
	}
	total := len(g.Players)
	// Past the halfway point, but with at least two eliminations left
	// before the bubble.
	return g.eliminatedCount()*2 >= total && g.remaining() >= g.WinnerCount+2
}

// onRaidEnded handles the outcome signal. Success resumes the paused games
// after a short grace period; failure cancels them.
func (r *RaidGate) onRaidEnded(chatID int64, ok bool) {
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, g := range e.chats[chatID] {
		if g.State != StatePaused || !g.Raid.MonitorActive {
			continue
		}
		r.stopReminderLocked(g)
		g.Raid.MonitorActive = false

		if ok {
			r.logger.Info("raid success, resuming after grace", "game", g.ID, "grace", r.settings.GraceDelay)
			r.scheduleGraceLocked(g)
			e.persistLocked()
			continue
		}

		g.Raid.FailureCount++
		r.logger.Info("raid failure, cancelling game", "game", g.ID)
		e.endLocked(g, ReasonRaidFailure)
	}
}

func (r *RaidGate) scheduleGraceLocked(g *Game) {
	gen := g.gen
	chatID, gameID := g.ChatID, g.ID
	g.graceTimer = r.clock.AfterFunc(r.settings.GraceDelay, func() {
		e := r.engine
		e.mu.Lock()
		defer e.mu.Unlock()
		g := e.lookupLocked(chatID, gameID)
		if g == nil || g.gen != gen || g.State != StatePaused {
			return
		}
		g.graceTimer = nil
		e.resumeLocked(g)
		e.persistLocked()
	})
}

// scheduleReminderLocked arms the recurring participation reminder. Each
// firing validates the generation, so a resume or cancel silently kills
// the chain.
func (r *RaidGate) scheduleReminderLocked(g *Game) {
	gen := g.gen
	chatID, gameID := g.ChatID, g.ID
	g.reminderTimer = r.clock.AfterFunc(r.settings.ReminderInterval, func() {
		e := r.engine
		e.mu.Lock()
		defer e.mu.Unlock()
		g := e.lookupLocked(chatID, gameID)
		if g == nil || g.gen != gen || g.State != StatePaused || !g.Raid.MonitorActive {
			return
		}
		g.reminderCount++
		e.emitLocked(Event{Type: EventRaidReminder, ChatID: chatID, GameID: gameID,
			Text: fmt.Sprintf("Raid still in progress! Join in so the draw can continue. (reminder %d)", g.reminderCount)})
		r.scheduleReminderLocked(g)
	})
}

func (r *RaidGate) stopReminderLocked(g *Game) {
	if g.reminderTimer != nil {
		g.reminderTimer.Stop()
		g.reminderTimer = nil
	}
	g.reminderCount = 0
}

// Rearm restarts the reminder loops for raid-paused games after a restore.
// Timer handles never survive a restart; the snapshot's MonitorActive flag
// tells us which games still need the nag chain.
func (r *RaidGate) Rearm() {
	e := r.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, chat := range e.chats {
		for _, g := range chat {
			if g.State == StatePaused && g.Raid.MonitorActive {
				r.scheduleReminderLocked(g)
				r.logger.Info("re-armed raid reminders", "game", g.ID)
			}
		}
	}
}
