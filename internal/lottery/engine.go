package lottery

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/lox/elimdraw/internal/prize"
	"github.com/lox/elimdraw/internal/randutil"
	"github.com/lox/elimdraw/internal/vrf"
)

// Config holds engine-wide settings. Per-game options may narrow but not
// exceed these.
type Config struct {
	StartDelay          time.Duration // join window before automatic start
	MinStartDelay       time.Duration
	MaxStartDelay       time.Duration
	SelectionMultiplier int // number range = maxPlayers * multiplier
	DefaultMaxPlayers   int
	DefaultWinnerCount  int
	MaxGamesPerChat     int
	MaxRoundRetries     int // automatic resumes after a round error
	RetryDelay          time.Duration
	HistoryLimit        int // finished games retained per chat
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		StartDelay:          5 * time.Minute,
		MinStartDelay:       1 * time.Minute,
		MaxStartDelay:       30 * time.Minute,
		SelectionMultiplier: 2,
		DefaultMaxPlayers:   50,
		DefaultWinnerCount:  1,
		MaxGamesPerChat:     5,
		MaxRoundRetries:     3,
		RetryDelay:          30 * time.Second,
		HistoryLimit:        20,
	}
}

// GameOptions are the per-game settings chosen at creation.
type GameOptions struct {
	MaxPlayers  int           `json:"maxPlayers,omitempty"`
	WinnerCount int           `json:"winnerCount,omitempty"`
	RaidEnabled bool          `json:"raidEnabled,omitempty"`
	FixedPrize  int64         `json:"fixedPrize,omitempty"` // operator-set pool for special events
	StartDelay  time.Duration `json:"-"`
}

// Result is the uniform reply for every engine entry point. Validation
// failures come back as OK=false with an explanatory message and never
// mutate state.
type Result struct {
	OK      bool        `json:"ok"`
	Message string      `json:"message"`
	Game    *GameRecord `json:"game,omitempty"`
}

func failure(format string, args ...any) Result {
	return Result{OK: false, Message: fmt.Sprintf(format, args...)}
}

func success(g *Game, format string, args ...any) Result {
	res := Result{OK: true, Message: fmt.Sprintf(format, args...)}
	if g != nil {
		res.Game = g.record()
	}
	return res
}

// Event is a notification emitted on game transitions for the command
// surface to render. Handlers run under the engine lock and must not call
// back into the engine.
type Event struct {
	Type   string `json:"type"`
	ChatID int64  `json:"chatId"`
	GameID string `json:"gameId"`
	Text   string `json:"text"`
}

// Event types.
const (
	EventGameCreated  = "game_created"
	EventGameStarted  = "game_started"
	EventRoundDrawn   = "round_drawn"
	EventGamePaused   = "game_paused"
	EventGameResumed  = "game_resumed"
	EventGameFinished = "game_finished"
	EventRaidReminder = "raid_reminder"
)

// Engine owns the per-chat game registry and drives every state machine.
// All games multiplex onto timer callbacks guarded by one mutex, so a
// game's round N completes (mutation and persistence enqueue) before round
// N+1 can be scheduled.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	clock  quartz.Clock
	logger *log.Logger
	store  *Store

	chats   map[int64]map[string]*Game
	history map[int64][]*GameRecord

	notify func(Event)

	// preDraw runs before each round's draws; tests use it to inject
	// round failures.
	preDraw func(*Game) error
}

// NewEngine creates an engine. The store must be non-nil; the clock is
// injected so tests can drive rounds without real time.
func NewEngine(logger *log.Logger, clock quartz.Clock, store *Store, cfg Config) *Engine {
	return &Engine{
		cfg:     cfg,
		clock:   clock,
		logger:  logger.WithPrefix("engine"),
		store:   store,
		chats:   make(map[int64]map[string]*Game),
		history: make(map[int64][]*GameRecord),
	}
}

// SetNotifier registers the event callback. Must be set before games run.
func (e *Engine) SetNotifier(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notify = fn
}

func (e *Engine) emitLocked(evt Event) {
	if e.notify != nil {
		e.notify(evt)
	}
}

// CreateGame opens a new game in the chat, owned by its creator, with the
// start attempt scheduled after the (clamped) join window.
func (e *Engine) CreateGame(chatID int64, creatorID, username string, opts GameOptions) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	maxPlayers := opts.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = e.cfg.DefaultMaxPlayers
	}
	winnerCount := opts.WinnerCount
	if winnerCount == 0 {
		winnerCount = e.cfg.DefaultWinnerCount
	}
	if maxPlayers < 2 {
		return failure("a game needs at least 2 player slots")
	}
	if winnerCount < 1 || winnerCount >= maxPlayers {
		return failure("winner count must be between 1 and %d", maxPlayers-1)
	}
	if opts.FixedPrize < 0 {
		return failure("fixed prize cannot be negative")
	}

	chat := e.chats[chatID]
	if chat == nil {
		chat = make(map[string]*Game)
		e.chats[chatID] = chat
	}
	if len(chat) >= e.cfg.MaxGamesPerChat {
		return failure("this chat already has %d games running", len(chat))
	}

	now := e.clock.Now()
	delay := clampDelay(opts.StartDelay, e.cfg)

	g := &Game{
		ID:          uuid.Must(uuid.NewV7()).String(),
		ChatID:      chatID,
		CreatorID:   creatorID,
		State:       StateWaiting,
		Players:     make(map[string]*Player),
		Range:       NumberRange{Min: 1, Max: maxPlayers * e.cfg.SelectionMultiplier},
		MaxPlayers:  maxPlayers,
		Multiplier:  e.cfg.SelectionMultiplier,
		WinnerCount: winnerCount,
		Raid:        RaidState{Enabled: opts.RaidEnabled},
		CreatedAt:   now,
		StartAt:     now.Add(delay),
	}
	if opts.FixedPrize > 0 {
		g.Prize = PrizeInfo{Total: opts.FixedPrize, Fixed: true}
	}
	g.Players[creatorID] = &Player{ID: creatorID, Username: username, JoinedAt: now}

	chat[g.ID] = g
	e.scheduleStartLocked(g, delay)
	e.persistLocked()

	e.logger.Info("game created", "game", g.ID, "chat", chatID,
		"max_players", maxPlayers, "winners", winnerCount, "starts_in", delay)
	e.emitLocked(Event{Type: EventGameCreated, ChatID: chatID, GameID: g.ID,
		Text: fmt.Sprintf("Game open! Drawing numbers 1-%d, %d will survive. Starting in %s.",
			g.Range.Max, winnerCount, delay)})

	return success(g, "game created, starting in %s", delay)
}

// JoinGame adds a player to a waiting game. With an empty gameID the most
// recently created joinable game in the chat is used.
func (e *Engine) JoinGame(chatID int64, gameID, playerID, username string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.resolveLocked(chatID, gameID)
	if g == nil {
		return failure("no game to join in this chat")
	}
	if g.State != StateWaiting {
		return failure("the game has already started")
	}
	if _, joined := g.Players[playerID]; joined {
		return failure("you already joined this game")
	}
	if len(g.Players) >= g.MaxPlayers {
		return failure("the game is full (%d players)", g.MaxPlayers)
	}

	g.Players[playerID] = &Player{ID: playerID, Username: username, JoinedAt: e.clock.Now()}
	e.persistLocked()

	e.logger.Debug("player joined", "game", g.ID, "player", playerID, "count", len(g.Players))
	return success(g, "joined, %d players in", len(g.Players))
}

// StartGame force-starts a waiting game ahead of its scheduled time.
func (e *Engine) StartGame(chatID int64, gameID string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.resolveLocked(chatID, gameID)
	if g == nil {
		return failure("no game to start in this chat")
	}
	if g.State != StateWaiting {
		return failure("the game is not waiting to start")
	}
	if g.startTimer != nil {
		g.startTimer.Stop()
		g.startTimer = nil
	}
	return e.startLocked(g)
}

// PauseGame manually suspends a drawing game.
func (e *Engine) PauseGame(chatID int64, gameID string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.lookupLocked(chatID, gameID)
	if g == nil {
		return failure("no such game")
	}
	if g.State != StateDrawing {
		return failure("only a drawing game can be paused")
	}
	e.pauseLocked(g, PauseReasonManual)
	e.persistLocked()
	return success(g, "game paused")
}

// ResumeGame resumes a paused game. For raid pauses this is the operator
// override: it force-clears the monitoring flags without waiting for the
// external signal.
func (e *Engine) ResumeGame(chatID int64, gameID string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.lookupLocked(chatID, gameID)
	if g == nil {
		return failure("no such game")
	}
	if g.State != StatePaused {
		return failure("the game is not paused")
	}
	e.resumeLocked(g)
	e.persistLocked()
	return success(g, "game resumed")
}

// CancelGame ends a game before completion. Only the creator (or an
// operator, passing an empty byID) may cancel.
func (e *Engine) CancelGame(chatID int64, gameID, byID string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.resolveAnyLocked(chatID, gameID)
	if g == nil {
		return failure("no active game in this chat")
	}
	if byID != "" && byID != g.CreatorID {
		return failure("only the game creator can cancel it")
	}

	rec := e.endLocked(g, ReasonCancelled)
	return Result{OK: true, Message: "game cancelled", Game: rec}
}

// Status reports the chat's active games.
func (e *Engine) Status(chatID int64) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	games := lo.Values(e.chats[chatID])
	if len(games) == 0 {
		return Result{OK: true, Message: "no active games in this chat"}
	}

	latest := games[0]
	for _, g := range games[1:] {
		if g.CreatedAt.After(latest.CreatedAt) {
			latest = g
		}
	}
	return success(latest, "%d active game(s); latest is %s with %d/%d players, round %d",
		len(games), latest.State, len(latest.Players), latest.MaxPlayers, latest.Round)
}

// Games returns records of the chat's active games, newest first.
func (e *Engine) Games(chatID int64) []*GameRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	records := lo.Map(lo.Values(e.chats[chatID]), func(g *Game, _ int) *GameRecord {
		return g.record()
	})
	return records
}

// History returns the chat's finished games, newest first.
func (e *Engine) History(chatID int64) []*GameRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*GameRecord(nil), e.history[chatID]...)
}

// Restore loads the persisted registry and recreates the timers the
// snapshot stripped: waiting games get their start attempt rescheduled,
// drawing games a fresh round timer, paused games stay paused.
func (e *Engine) Restore() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.store.Load()
	if err != nil {
		return fmt.Errorf("restore registry: %w", err)
	}

	now := e.clock.Now()
	restored := 0
	for _, chat := range snap.Chats {
		for _, entry := range chat.Games {
			g, err := gameFromRecord(entry.GameID, entry.Game)
			if err != nil {
				e.logger.Error("skipping unrevivable game", "game", entry.GameID, "error", err)
				continue
			}
			if g.State == StateFinished {
				continue
			}
			if e.chats[chat.ChatID] == nil {
				e.chats[chat.ChatID] = make(map[string]*Game)
			}
			e.chats[chat.ChatID][g.ID] = g
			restored++

			switch g.State {
			case StateWaiting, StateNumberSelection:
				g.State = StateWaiting
				delay := g.StartAt.Sub(now)
				if delay < 5*time.Second {
					delay = 5 * time.Second
				}
				e.scheduleStartLocked(g, delay)
			case StateDrawing:
				e.scheduleRoundLocked(g, speedProfile(g.remaining(), g.WinnerCount).Delay)
			case StatePaused:
				// Awaits a signal or a manual resume. Raid reminder
				// loops are re-armed by the raid gate.
			}
		}
	}

	e.logger.Info("registry restored", "games", restored)
	return nil
}

// --- internals ---

func clampDelay(d time.Duration, cfg Config) time.Duration {
	if d == 0 {
		d = cfg.StartDelay
	}
	if d < cfg.MinStartDelay {
		return cfg.MinStartDelay
	}
	if d > cfg.MaxStartDelay {
		return cfg.MaxStartDelay
	}
	return d
}

func (e *Engine) lookupLocked(chatID int64, gameID string) *Game {
	return e.chats[chatID][gameID]
}

// resolveLocked finds the named game, or with an empty ID the most recently
// created waiting game in the chat.
func (e *Engine) resolveLocked(chatID int64, gameID string) *Game {
	if gameID != "" {
		return e.lookupLocked(chatID, gameID)
	}
	var latest *Game
	for _, g := range e.chats[chatID] {
		if g.State != StateWaiting {
			continue
		}
		if latest == nil || g.CreatedAt.After(latest.CreatedAt) {
			latest = g
		}
	}
	return latest
}

// resolveAnyLocked is resolveLocked without the waiting-state restriction.
func (e *Engine) resolveAnyLocked(chatID int64, gameID string) *Game {
	if gameID != "" {
		return e.lookupLocked(chatID, gameID)
	}
	var latest *Game
	for _, g := range e.chats[chatID] {
		if latest == nil || g.CreatedAt.After(latest.CreatedAt) {
			latest = g
		}
	}
	return latest
}

func (e *Engine) scheduleStartLocked(g *Game, delay time.Duration) {
	gen := g.gen
	chatID, gameID := g.ChatID, g.ID
	g.startTimer = e.clock.AfterFunc(delay, func() {
		e.startFromTimer(chatID, gameID, gen)
	})
}

func (e *Engine) startFromTimer(chatID int64, gameID string, gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.lookupLocked(chatID, gameID)
	if g == nil || g.gen != gen || g.State != StateWaiting {
		return
	}
	g.startTimer = nil
	e.startLocked(g)
}

// startLocked runs the WAITING -> NUMBER_SELECTION -> DRAWING transition:
// number assignment, prize derivation, and the first round schedule.
func (e *Engine) startLocked(g *Game) Result {
	if len(g.Players) < 2 {
		e.logger.Info("cancelling game with too few players", "game", g.ID, "players", len(g.Players))
		rec := e.endLocked(g, ReasonInsufficientPlayers)
		return Result{OK: false, Message: "not enough players to start, game cancelled", Game: rec}
	}

	now := e.clock.Now()
	g.State = StateNumberSelection

	// One number per player, drawn without replacement from a shuffled
	// pool covering the whole range.
	assignSeed := fmt.Sprintf("%s:assign:%d", g.ID, now.UnixNano())
	perm := randutil.Perm(assignSeed, g.Range.Max)
	for i, p := range g.playersByJoin() {
		p.Number = perm[i]
	}

	g.Pool = make([]int, 0, g.Range.Max)
	for n := g.Range.Min; n <= g.Range.Max; n++ {
		g.Pool = append(g.Pool, n)
	}

	if !g.Prize.Fixed {
		alloc := prize.Allocate(g.ID, len(g.Players), now)
		g.Prize = PrizeInfo{Total: alloc.Amount, Seed: alloc.Seed, Proof: alloc.Proof}
	}

	g.State = StateDrawing
	g.StartedAt = now

	profile := speedProfile(g.remaining(), g.WinnerCount)
	e.scheduleRoundLocked(g, profile.Delay)
	e.persistLocked()

	e.logger.Info("game started", "game", g.ID, "players", len(g.Players),
		"range_max", g.Range.Max, "prize", g.Prize.Total, "fixed_prize", g.Prize.Fixed)
	e.emitLocked(Event{Type: EventGameStarted, ChatID: g.ChatID, GameID: g.ID,
		Text: fmt.Sprintf("Numbers assigned to %d players. Prize pool: %d. First draw in %s!",
			len(g.Players), g.Prize.Total, profile.Delay)})

	return success(g, "game started with %d players", len(g.Players))
}

func (e *Engine) scheduleRoundLocked(g *Game, delay time.Duration) {
	gen := g.gen
	chatID, gameID := g.ChatID, g.ID
	g.roundTimer = e.clock.AfterFunc(delay, func() {
		e.runRound(chatID, gameID, gen)
	})
}

func (e *Engine) runRound(chatID int64, gameID string, gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.lookupLocked(chatID, gameID)
	if g == nil || g.gen != gen || g.State != StateDrawing {
		// Stale callback: the game was cancelled, paused, or finished
		// after this timer was set.
		return
	}
	g.roundTimer = nil

	delay, done, err := e.executeRoundLocked(g)
	if err != nil {
		e.pauseForErrorLocked(g, err)
		return
	}
	if done {
		reason := ReasonCompleted
		if g.remaining() > g.WinnerCount {
			reason = ReasonPoolExhausted
		}
		e.endLocked(g, reason)
		return
	}
	// Round N's mutation reaches the store before round N+1 exists.
	e.persistLocked()
	e.scheduleRoundLocked(g, delay)
}

// executeRoundLocked draws one round's numbers, eliminates matching players
// as a single batch, and reports the delay until the next round. A panic
// inside the round is converted to an error so one bad draw can never take
// the process down.
func (e *Engine) executeRoundLocked(g *Game) (next time.Duration, done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("round %d: %v", g.Round+1, r)
		}
	}()

	if e.preDraw != nil {
		if err := e.preDraw(g); err != nil {
			return 0, false, err
		}
	}

	round := g.Round + 1
	profile := speedProfile(g.remaining(), g.WinnerCount)
	count := profile.Numbers
	if count > len(g.Pool) {
		count = len(g.Pool)
	}

	now := e.clock.Now()
	draws := make([]Draw, 0, count)
	drawnSet := make(map[int]bool, count)
	for i := 0; i < count; i++ {
		seed := fmt.Sprintf("%s:%d:%d:%d", g.ID, round, i, now.UnixNano())
		r := vrf.Generate(seed, now)
		idx := r.Int(0, len(g.Pool)-1)
		number := g.Pool[idx]
		g.Pool = append(g.Pool[:idx], g.Pool[idx+1:]...)
		draws = append(draws, Draw{Number: number, Seed: seed, Proof: r.Proof})
		drawnSet[number] = true
	}

	var eliminated []string
	for _, p := range g.playersByJoin() {
		if !p.Eliminated && drawnSet[p.Number] {
			p.Eliminated = true
			p.EliminatedRound = round
			eliminated = append(eliminated, p.Username)
		}
	}

	g.Round = round
	g.Draws = append(g.Draws, DrawRecord{Round: round, Draws: draws, Timestamp: now})

	remaining := g.remaining()
	e.logger.Debug("round complete", "game", g.ID, "round", round,
		"drawn", len(draws), "eliminated", len(eliminated), "remaining", remaining)
	e.emitLocked(Event{Type: EventRoundDrawn, ChatID: g.ChatID, GameID: g.ID,
		Text: fmt.Sprintf("Round %d: drew %d number(s), %d eliminated, %d remain.",
			round, len(draws), len(eliminated), remaining)})

	if remaining <= g.WinnerCount || len(g.Pool) == 0 {
		return 0, true, nil
	}
	return speedProfile(remaining, g.WinnerCount).Delay, false, nil
}

// pauseLocked suspends the round loop. Pending round timers are invalidated
// via the generation bump inside stopTimers.
func (e *Engine) pauseLocked(g *Game, reason string) {
	g.stopTimers()
	g.State = StatePaused
	g.PauseReason = reason

	e.logger.Info("game paused", "game", g.ID, "reason", reason)
	e.emitLocked(Event{Type: EventGamePaused, ChatID: g.ChatID, GameID: g.ID,
		Text: "The draw is paused. Please wait."})
}

// pauseForErrorLocked handles a failed round: pause, persist, and schedule
// a capped automatic resume.
func (e *Engine) pauseForErrorLocked(g *Game, cause error) {
	e.logger.Error("round failed, pausing game", "game", g.ID, "round", g.Round+1, "error", cause)
	e.pauseLocked(g, fmt.Sprintf("%s: %v", pauseReasonError, cause))

	if g.Retries >= e.cfg.MaxRoundRetries {
		e.persistLocked()
		e.logger.Warn("retry budget exhausted, awaiting manual resume", "game", g.ID)
		return
	}
	g.Retries++
	e.persistLocked()
	gen := g.gen
	chatID, gameID := g.ChatID, g.ID
	g.graceTimer = e.clock.AfterFunc(e.cfg.RetryDelay, func() {
		e.autoResume(chatID, gameID, gen)
	})
}

func (e *Engine) autoResume(chatID int64, gameID string, gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.lookupLocked(chatID, gameID)
	if g == nil || g.gen != gen || g.State != StatePaused {
		return
	}
	g.graceTimer = nil
	e.resumeLocked(g)
	e.persistLocked()
}

// resumeLocked puts a paused game back into DRAWING, force-clearing any
// raid monitoring flags, and continues the loop from the surviving pool
// state (already-drawn numbers stay drawn).
func (e *Engine) resumeLocked(g *Game) {
	g.stopTimers()
	g.State = StateDrawing
	g.PauseReason = ""
	g.Raid.Paused = false
	g.Raid.MonitorActive = false
	g.reminderCount = 0

	delay := speedProfile(g.remaining(), g.WinnerCount).Delay
	e.scheduleRoundLocked(g, delay)

	e.logger.Info("game resumed", "game", g.ID, "next_round_in", delay)
	e.emitLocked(Event{Type: EventGameResumed, ChatID: g.ChatID, GameID: g.ID,
		Text: fmt.Sprintf("The draw resumes! Next round in %s.", delay)})
}

// endLocked finishes a game for any reason, splits the prize among the
// survivors, clears every pending timer, and moves the game out of the
// active registry into the chat history.
func (e *Engine) endLocked(g *Game, reason string) *GameRecord {
	g.stopTimers()
	g.State = StateFinished
	g.EndReason = reason
	g.FinishedAt = e.clock.Now()

	survivors := g.survivors()
	completed := reason == ReasonCompleted || reason == ReasonPoolExhausted
	if completed && len(survivors) > 0 {
		g.Prize.PerSurvivor = prize.Split(g.Prize.Total, len(survivors))
	}

	rec := g.record()
	delete(e.chats[g.ChatID], g.ID)
	e.history[g.ChatID] = append([]*GameRecord{rec}, e.history[g.ChatID]...)
	if len(e.history[g.ChatID]) > e.cfg.HistoryLimit {
		e.history[g.ChatID] = e.history[g.ChatID][:e.cfg.HistoryLimit]
	}

	if completed && len(survivors) > 0 {
		record := PrizeRecord{
			GameID:           g.ID,
			PrizeAmount:      g.Prize.Total,
			TotalSurvivors:   len(survivors),
			PrizePerSurvivor: g.Prize.PerSurvivor,
			Winners: lo.Map(survivors, func(p *Player, _ int) string {
				return p.Username
			}),
			VRFProof:  g.Prize.Proof,
			Timestamp: g.FinishedAt,
		}
		if err := e.store.AppendPrizeRecord(record); err != nil {
			// Reporting data only; gameplay already concluded.
			e.logger.Error("prize record append failed", "game", g.ID, "error", err)
		}
	}

	e.persistLocked()

	text := fmt.Sprintf("Game over (%s).", reason)
	if completed && len(survivors) > 0 {
		text = fmt.Sprintf("Game over! %d survivor(s) split %d (%d each).",
			len(survivors), g.Prize.Total, g.Prize.PerSurvivor)
	}
	e.logger.Info("game finished", "game", g.ID, "reason", reason,
		"survivors", len(survivors), "rounds", g.Round)
	e.emitLocked(Event{Type: EventGameFinished, ChatID: g.ChatID, GameID: g.ID, Text: text})

	return rec
}

// persistLocked snapshots the registry and hands it to the store. The fast
// tier is written synchronously; durable writes happen off the game path.
func (e *Engine) persistLocked() {
	e.store.Save(e.snapshotLocked())
}
