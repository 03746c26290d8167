package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/registry"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/simulator"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/sports/american_football_nfl"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
)

const nfl = american_football_nfl.SportKey

var errSink = errors.New("sink unavailable")

// MockCache implements GameCache for testing
type MockCache struct {
	mu        sync.Mutex
	summaries []models.Game
	boxScores []models.BoxScore
	plays     []models.Play
	active    map[string][]string
	err       error
}

func (m *MockCache) WriteGameSummary(ctx context.Context, game *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, *game)
	return m.err
}

func (m *MockCache) WriteBoxScore(ctx context.Context, box *models.BoxScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boxScores = append(m.boxScores, *box)
	return m.err
}

func (m *MockCache) AppendPlay(ctx context.Context, play *models.Play) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays = append(m.plays, *play)
	return m.err
}

func (m *MockCache) WriteActiveGames(ctx context.Context, sportKey string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		m.active = map[string][]string{}
	}
	m.active[sportKey] = ids
	return m.err
}

// MockPublisher implements StreamPublisher for testing
type MockPublisher struct {
	mu    sync.Mutex
	games int
	plays int
	err   error
}

func (m *MockPublisher) PublishGameUpdate(ctx context.Context, game *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games++
	return m.err
}

func (m *MockPublisher) PublishPlay(ctx context.Context, play *models.Play) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays++
	return m.err
}

// MockHub implements Broadcaster for testing
type MockHub struct {
	mu     sync.Mutex
	events []models.GameEvent
}

func (m *MockHub) Broadcast(event models.GameEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockHub) countType(messageType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Type == messageType {
			n++
		}
	}
	return n
}

// MockArchive implements Archiver for testing
type MockArchive struct {
	mu    sync.Mutex
	saved   []models.BoxScore
	plays   [][]models.Play
	ctxErrs []error
	err     error
}

func (m *MockArchive) SaveGame(ctx context.Context, box *models.BoxScore, plays []models.Play) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, *box)
	m.plays = append(m.plays, plays)
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	return m.err
}

type testSinks struct {
	cache     *MockCache
	publisher *MockPublisher
	hub       *MockHub
	archive   *MockArchive
}

func (s testSinks) all() Sinks {
	return Sinks{Cache: s.cache, Publisher: s.publisher, Hub: s.hub, Archive: s.archive}
}

func newTestOrchestrator(t *testing.T, opts Options) (*Orchestrator, testSinks) {
	t.Helper()

	sinks := testSinks{
		cache:     &MockCache{},
		publisher: &MockPublisher{},
		hub:       &MockHub{},
		archive:   &MockArchive{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := NewOrchestrator(ctx, registry.New(), sinks.all(), opts)

	t.Cleanup(func() {
		cancel()
		waitForRunners(t, o)
	})
	return o, sinks
}

func waitForRunners(t *testing.T, o *Orchestrator) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		o.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("runners did not finish in time")
	}
}

func fixedSeed(seed int64) func() int64 {
	return func() int64 { return seed }
}

func TestOrchestrator_PlaysGameToCompletion(t *testing.T) {
	o, sinks := newTestOrchestrator(t, Options{
		PlayInterval:       time.Millisecond,
		MaxConcurrentGames: 2,
		Seed:               fixedSeed(42),
	})

	game, err := o.StartGame(context.Background(), nfl, "GB", "CHI")
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if game.Status != models.StatusLive || game.Period != 1 || game.TimeRemaining != "15:00" {
		t.Errorf("unexpected initial game %+v", game)
	}
	if game.HomeTeam != "Green Bay Packers" || game.AwayTeam != "Chicago Bears" {
		t.Errorf("unexpected team names %s / %s", game.HomeTeam, game.AwayTeam)
	}

	waitForRunners(t, o)

	if len(o.ActiveGames()) != 0 {
		t.Error("expected no active games after completion")
	}
	if _, err := o.Game(game.GameID); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound, got %v", err)
	}

	if len(sinks.archive.saved) != 1 {
		t.Fatalf("expected 1 archived game, got %d", len(sinks.archive.saved))
	}
	final := sinks.archive.saved[0]
	plays := sinks.archive.plays[0]

	if final.Game.Status != models.StatusFinal || final.Game.PeriodLabel != "Final" {
		t.Errorf("expected final game, got %+v", final.Game)
	}
	if final.Game.PlayCount != len(plays) || len(sinks.cache.plays) != len(plays) {
		t.Errorf("play counts disagree: summary %d, archive %d, cache %d",
			final.Game.PlayCount, len(plays), len(sinks.cache.plays))
	}
	for i, p := range plays {
		if p.Number != i+1 {
			t.Fatalf("play %d numbered %d", i, p.Number)
		}
	}

	var home, away int
	for _, q := range final.PeriodScores {
		home += q.HomeScore
		away += q.AwayScore
	}
	if home != final.Game.HomeScore || away != final.Game.AwayScore {
		t.Errorf("period scores %d-%d disagree with final %d-%d", home, away, final.Game.HomeScore, final.Game.AwayScore)
	}

	if n := sinks.hub.countType(models.MessageTypePlay); n != len(plays) {
		t.Errorf("expected %d play events, got %d", len(plays), n)
	}
	if n := sinks.hub.countType(models.MessageTypeGameFinal); n != 1 {
		t.Errorf("expected 1 game_final event, got %d", n)
	}
	if last := sinks.hub.events[len(sinks.hub.events)-1]; last.Type != models.MessageTypeGameFinal {
		t.Errorf("expected game_final last, got %s", last.Type)
	}
	if sinks.publisher.plays != len(plays) {
		t.Errorf("expected %d published plays, got %d", len(plays), sinks.publisher.plays)
	}

	lastSummary := sinks.cache.summaries[len(sinks.cache.summaries)-1]
	if lastSummary.Status != models.StatusFinal {
		t.Errorf("expected final summary cached last, got %s", lastSummary.Status)
	}
	if ids := sinks.cache.active[nfl]; len(ids) != 0 {
		t.Errorf("expected empty active list, got %v", ids)
	}

	// the same seed replays the same game offline
	sim := simulator.New(american_football_nfl.New(), simulator.NewRandomSource(42))
	if err := sim.InitializeGame("GB", "CHI"); err != nil {
		t.Fatalf("InitializeGame: %v", err)
	}
	for sim.Status() == simulator.StatusInProgress {
		if _, err := sim.SimulatePlay(); err != nil {
			t.Fatalf("SimulatePlay: %v", err)
		}
	}
	replay := sim.Snapshot()
	if replay.HomeScore != final.Game.HomeScore || replay.AwayScore != final.Game.AwayScore {
		t.Errorf("replay %d-%d differs from live %d-%d",
			replay.HomeScore, replay.AwayScore, final.Game.HomeScore, final.Game.AwayScore)
	}
	if final.Game.Seed != 42 {
		t.Errorf("expected seed 42 recorded, got %d", final.Game.Seed)
	}
}

func TestOrchestrator_SinkErrorsDoNotStopGame(t *testing.T) {
	o, sinks := newTestOrchestrator(t, Options{
		PlayInterval:       time.Millisecond,
		MaxConcurrentGames: 1,
		Seed:               fixedSeed(7),
	})
	sinks.cache.err = errSink
	sinks.publisher.err = errSink
	sinks.archive.err = errSink

	if _, err := o.StartGame(context.Background(), nfl, "KC", "BUF"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	waitForRunners(t, o)

	if len(sinks.archive.saved) != 1 {
		t.Fatalf("expected the game to reach the archive, got %d saves", len(sinks.archive.saved))
	}
	if sinks.archive.saved[0].Game.Status != models.StatusFinal {
		t.Errorf("expected final status, got %s", sinks.archive.saved[0].Game.Status)
	}
}

func TestOrchestrator_CapacityAndStop(t *testing.T) {
	o, sinks := newTestOrchestrator(t, Options{
		PlayInterval:       time.Hour,
		MaxConcurrentGames: 1,
		Seed:               fixedSeed(3),
	})
	ctx := context.Background()

	game, err := o.StartGame(ctx, nfl, "packers", "Chicago Bears")
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if game.HomeTeamAbbr != "GB" || game.AwayTeamAbbr != "CHI" {
		t.Errorf("expected normalized GB vs CHI, got %s vs %s", game.HomeTeamAbbr, game.AwayTeamAbbr)
	}

	if _, err := o.StartGame(ctx, nfl, "KC", "BUF"); !errors.Is(err, ErrTooManyGames) {
		t.Fatalf("expected ErrTooManyGames, got %v", err)
	}

	live, err := o.Game(game.GameID)
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if live.Drive == nil || live.Drive.FieldPosition != 20 || live.Drive.Down != 1 {
		t.Errorf("unexpected opening drive %+v", live.Drive)
	}
	if plays, err := o.Plays(game.GameID, 10); err != nil || len(plays) != 0 {
		t.Errorf("expected no plays yet, got %v, %v", plays, err)
	}
	if box, err := o.BoxScore(game.GameID); err != nil || len(box.PeriodScores) != 4 {
		t.Errorf("unexpected box score %+v, %v", box, err)
	}
	if ids := sinks.cache.active[nfl]; len(ids) != 1 || ids[0] != game.GameID {
		t.Errorf("expected active list [%s], got %v", game.GameID, ids)
	}

	stopped, err := o.StopGame(ctx, game.GameID)
	if err != nil {
		t.Fatalf("StopGame: %v", err)
	}
	if stopped.Status != models.StatusStopped || stopped.Drive != nil {
		t.Errorf("expected stopped game without drive, got %+v", stopped)
	}
	if len(sinks.archive.saved) != 0 {
		t.Error("stopped games must not be archived")
	}

	waitForRunners(t, o)

	if _, err := o.StopGame(ctx, game.GameID); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound, got %v", err)
	}
	if _, err := o.StartGame(ctx, nfl, "KC", "BUF"); err != nil {
		t.Errorf("expected capacity to be released, got %v", err)
	}
}

func TestOrchestrator_InvalidMatchups(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{PlayInterval: time.Hour, MaxConcurrentGames: 4})
	ctx := context.Background()

	tests := []struct {
		name    string
		sport   string
		home    string
		away    string
		wantErr error
	}{
		{"unknown team", nfl, "GB", "London Monarchs", simulator.ErrUnknownTeam},
		{"same team", nfl, "GB", "Packers", simulator.ErrSameTeam},
		{"unknown sport", "curling", "GB", "CHI", registry.ErrSportNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.StartGame(ctx, tt.sport, tt.home, tt.away)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if len(o.ActiveGames()) != 0 {
		t.Error("rejected matchups must not start games")
	}
}

func TestGameRunner_ArchivesAfterCancel(t *testing.T) {
	module := american_football_nfl.New()
	sim := simulator.New(module, simulator.NewRandomSource(5))
	if err := sim.InitializeGame("DAL", "PHI"); err != nil {
		t.Fatalf("InitializeGame: %v", err)
	}

	store := &MockArchive{}
	r := newGameRunner("g1", module, sim, 5, time.Hour, Sinks{Archive: store})

	ctx, cancel := context.WithCancel(context.Background())
	for !r.step(ctx) {
	}

	// the game is over but its run was cancelled before the archive write
	cancel()
	r.finish(ctx)

	if len(store.saved) != 1 {
		t.Fatalf("expected 1 archived game, got %d", len(store.saved))
	}
	if store.ctxErrs[0] != nil {
		t.Errorf("archive write saw a cancelled context: %v", store.ctxErrs[0])
	}
	if store.saved[0].Game.Status != models.StatusFinal {
		t.Errorf("expected final status, got %s", store.saved[0].Game.Status)
	}
}

func TestGameRunner_SnapshotsAreCopies(t *testing.T) {
	module := american_football_nfl.New()
	sim := simulator.New(module, simulator.NewRandomSource(11))
	if err := sim.InitializeGame("SEA", "SF"); err != nil {
		t.Fatalf("InitializeGame: %v", err)
	}

	r := newGameRunner("g1", module, sim, 11, time.Hour, Sinks{})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if r.step(ctx) {
			t.Fatal("game ended after a handful of plays")
		}
	}

	last := r.Plays(2)
	if len(last) != 2 || last[0].Number != 4 || last[1].Number != 5 {
		t.Fatalf("expected plays 4 and 5, got %+v", last)
	}
	last[0].Description = "changed"
	if r.Plays(0)[3].Description == "changed" {
		t.Error("Plays exposed the runner's log")
	}

	box := r.BoxScore()
	box.Game.HomeScore = 99
	box.PeriodScores[0].HomeScore = 99
	if r.Game().HomeScore == 99 || r.BoxScore().PeriodScores[0].HomeScore == 99 {
		t.Error("BoxScore exposed the runner's state")
	}

	if g := r.Game(); g.PlayCount != 5 || g.Status != models.StatusLive {
		t.Errorf("unexpected summary %+v", g)
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{900, "15:00"},
		{875, "14:35"},
		{59, "00:59"},
		{0, "00:00"},
		{-3, "00:00"},
	}

	for _, tt := range tests {
		if got := formatClock(tt.seconds); got != tt.want {
			t.Errorf("formatClock(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}

	if got := periodLabel(3, models.StatusLive); got != "Q3" {
		t.Errorf("periodLabel = %q, want Q3", got)
	}
	if got := periodLabel(4, models.StatusFinal); got != "Final" {
		t.Errorf("periodLabel = %q, want Final", got)
	}
}
