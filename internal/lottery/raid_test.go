package lottery

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

const raidSender = "raidbot"

func newRaidFixture(t *testing.T) (*Engine, *RaidGate, *quartz.Mock) {
	t.Helper()
	mockClock := quartz.NewMock(t)
	store := newTestStore(t)
	eng := NewEngine(log.New(io.Discard), mockClock, store, DefaultConfig())

	settings := DefaultRaidSettings()
	settings.Sender = raidSender
	gate := NewRaidGate(log.New(io.Discard), mockClock, eng, settings)
	return eng, gate, mockClock
}

// drawDownTo advances the clock until the game's survivor count reaches
// want, then returns.
func drawDownTo(t *testing.T, eng *Engine, mockClock *quartz.Mock, chatID int64, want int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		games := eng.Games(chatID)
		if len(games) == 0 {
			t.Fatal("game finished before reaching target survivor count")
		}
		remaining := 0
		for _, entry := range games[0].Players {
			if !entry.Player.Eliminated {
				remaining++
			}
		}
		if remaining <= want {
			return
		}
		mockClock.Advance(5 * time.Second).MustWait(ctx)
	}
	t.Fatal("never reached target survivor count")
}

func raidGame(t *testing.T, eng *Engine, chatID int64, players int) string {
	t.Helper()
	res := eng.CreateGame(chatID, "p0", "player0", GameOptions{
		MaxPlayers:  players,
		WinnerCount: 1,
		RaidEnabled: true,
	})
	if !res.OK {
		t.Fatalf("CreateGame: %s", res.Message)
	}
	for i := 1; i < players; i++ {
		id := fmt.Sprintf("p%d", i)
		eng.JoinGame(chatID, res.Game.GameID, id, id)
	}
	if res := eng.StartGame(chatID, res.Game.GameID); !res.OK {
		t.Fatalf("StartGame: %s", res.Message)
	}
	return res.Game.GameID
}

func TestRaidPausesEligibleGame(t *testing.T) {
	t.Parallel()
	eng, gate, mockClock := newRaidFixture(t)
	chatID := int64(200)
	raidGame(t, eng, chatID, 10)

	// Before the halfway point the game is not eligible and keeps drawing.
	gate.Observe(chatID, raidSender, "A RAID IN PROGRESS against our channel!")
	if games := eng.Games(chatID); games[0].State != "DRAWING" {
		t.Fatalf("ineligible game paused: %s", games[0].State)
	}

	drawDownTo(t, eng, mockClock, chatID, 5)

	gate.Observe(chatID, raidSender, "raid in progress, defend!")
	games := eng.Games(chatID)
	if games[0].State != "PAUSED" || games[0].PauseReason != PauseReasonRaid {
		t.Fatalf("eligible game not raid-paused: %s/%s", games[0].State, games[0].PauseReason)
	}
	if !games[0].Raid.MonitorActive {
		t.Error("monitor flag not set")
	}
}

func TestRaidIgnoresOtherSenders(t *testing.T) {
	t.Parallel()
	eng, gate, mockClock := newRaidFixture(t)
	chatID := int64(201)
	raidGame(t, eng, chatID, 10)
	drawDownTo(t, eng, mockClock, chatID, 5)

	gate.Observe(chatID, "impostor", "raid in progress")
	gate.Observe(chatID, raidSender, "nothing to see here")
	if games := eng.Games(chatID); games[0].State != "DRAWING" {
		t.Fatalf("game paused by unmatched message: %s", games[0].State)
	}
}

func TestRaidSuccessResumesAfterGrace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, gate, mockClock := newRaidFixture(t)
	chatID := int64(202)
	raidGame(t, eng, chatID, 10)
	drawDownTo(t, eng, mockClock, chatID, 5)

	var mu sync.Mutex
	reminders := 0
	eng.SetNotifier(func(evt Event) {
		if evt.Type == EventRaidReminder {
			mu.Lock()
			reminders++
			mu.Unlock()
		}
	})

	gate.Observe(chatID, raidSender, "raid in progress")

	// Two reminder intervals pass while the raid runs.
	mockClock.Advance(30 * time.Second).MustWait(ctx)
	mockClock.Advance(30 * time.Second).MustWait(ctx)
	mu.Lock()
	if reminders != 2 {
		t.Fatalf("reminders = %d, want 2", reminders)
	}
	mu.Unlock()

	gate.Observe(chatID, raidSender, "Raid successful! Great work everyone")

	// Still paused through the grace window, and no further reminders.
	games := eng.Games(chatID)
	if games[0].State != "PAUSED" {
		t.Fatalf("game resumed before grace elapsed: %s", games[0].State)
	}
	mockClock.Advance(10 * time.Second).MustWait(ctx)

	games = eng.Games(chatID)
	if games[0].State != "DRAWING" {
		t.Fatalf("game not resumed after grace: %s", games[0].State)
	}
	advanceThrough(ctx, mockClock, 60*time.Second)
	mu.Lock()
	if reminders != 2 {
		t.Errorf("reminders fired after success: %d", reminders)
	}
	mu.Unlock()
}

func TestRaidFailureCancelsGame(t *testing.T) {
	t.Parallel()
	eng, gate, mockClock := newRaidFixture(t)
	chatID := int64(203)
	raidGame(t, eng, chatID, 10)
	drawDownTo(t, eng, mockClock, chatID, 5)

	gate.Observe(chatID, raidSender, "raid in progress")
	gate.Observe(chatID, raidSender, "the raid failed, sorry")

	if games := eng.Games(chatID); len(games) != 0 {
		t.Fatalf("game still active after raid failure: %+v", games)
	}
	history := eng.History(chatID)
	if len(history) != 1 || history[0].EndReason != ReasonRaidFailure {
		t.Fatalf("expected %s, got %+v", ReasonRaidFailure, history)
	}
}

func TestOperatorResumeOverridesRaid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, gate, mockClock := newRaidFixture(t)
	chatID := int64(204)
	gameID := raidGame(t, eng, chatID, 10)
	drawDownTo(t, eng, mockClock, chatID, 5)

	gate.Observe(chatID, raidSender, "raid in progress")

	if res := eng.ResumeGame(chatID, gameID); !res.OK {
		t.Fatalf("ResumeGame: %s", res.Message)
	}
	games := eng.Games(chatID)
	if games[0].State != "DRAWING" {
		t.Fatalf("override did not resume: %s", games[0].State)
	}
	if games[0].Raid.Paused || games[0].Raid.MonitorActive {
		t.Errorf("raid flags not cleared by override: %+v", games[0].Raid)
	}

	// The reminder chain must be dead after the override.
	fired := false
	eng.SetNotifier(func(evt Event) {
		if evt.Type == EventRaidReminder {
			fired = true
		}
	})
	advanceThrough(ctx, mockClock, 90*time.Second)
	if fired {
		t.Error("raid reminder fired after operator override")
	}
}

func TestRaidNotEligibleNearBubble(t *testing.T) {
	t.Parallel()
	eng, gate, mockClock := newRaidFixture(t)
	chatID := int64(205)
	raidGame(t, eng, chatID, 4)
	drawDownTo(t, eng, mockClock, chatID, 2)

	// One elimination from deciding the winner; a raid must not stall it.
	gate.Observe(chatID, raidSender, "raid in progress")
	if games := eng.Games(chatID); games[0].State != "DRAWING" {
		t.Fatalf("bubble game paused by raid: %s", games[0].State)
	}
}
