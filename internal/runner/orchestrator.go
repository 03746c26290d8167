package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/simulator"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
	"github.com/google/uuid"
)

var (
	// ErrTooManyGames is returned when MaxConcurrentGames games are live
	ErrTooManyGames = errors.New("too many concurrent games")

	// ErrGameNotFound is returned for a game ID that is not live
	ErrGameNotFound = errors.New("game not found")
)

// GameCache stores summaries, box scores and play-by-play for readers
type GameCache interface {
	WriteGameSummary(ctx context.Context, game *models.Game) error
	WriteBoxScore(ctx context.Context, boxscore *models.BoxScore) error
	AppendPlay(ctx context.Context, play *models.Play) error
	WriteActiveGames(ctx context.Context, sportKey string, gameIDs []string) error
}

// StreamPublisher fans updates out to downstream services
type StreamPublisher interface {
	PublishGameUpdate(ctx context.Context, game *models.Game) error
	PublishPlay(ctx context.Context, play *models.Play) error
}

// Broadcaster pushes events to websocket subscribers
type Broadcaster interface {
	Broadcast(event models.GameEvent)
}

// Archiver persists finished games
type Archiver interface {
	SaveGame(ctx context.Context, box *models.BoxScore, plays []models.Play) error
}

// SportRegistry resolves sport modules by key
type SportRegistry interface {
	GetModule(sportKey string) (contracts.SportModule, error)
}

// Sinks are the destinations of a running game. Nil sinks are skipped.
type Sinks struct {
	Cache     GameCache
	Publisher StreamPublisher
	Hub       Broadcaster
	Archive   Archiver
}

// Options tune the orchestrator
type Options struct {
	// PlayInterval overrides the sport's own pacing when positive
	PlayInterval time.Duration

	MaxConcurrentGames int

	// Seed returns the random seed of a new game
	Seed func() int64
}

// Orchestrator starts, tracks and stops live games
type Orchestrator struct {
	ctx      context.Context
	registry SportRegistry
	sinks    Sinks
	opts     Options

	mu    sync.RWMutex
	games map[string]*GameRunner
	wg    sync.WaitGroup
}

// NewOrchestrator creates an orchestrator whose games live until ctx is done
func NewOrchestrator(ctx context.Context, reg SportRegistry, sinks Sinks, opts Options) *Orchestrator {
	if opts.MaxConcurrentGames <= 0 {
		opts.MaxConcurrentGames = 1
	}
	if opts.Seed == nil {
		opts.Seed = func() int64 { return rand.Int63() + 1 }
	}

	return &Orchestrator{
		ctx:      ctx,
		registry: reg,
		sinks:    sinks,
		opts:     opts,
		games:    make(map[string]*GameRunner),
	}
}

// StartGame validates the matchup and launches a live game. Team names may
// be abbreviations, full names or nicknames.
func (o *Orchestrator) StartGame(ctx context.Context, sportKey, homeTeam, awayTeam string) (*models.Game, error) {
	module, err := o.registry.GetModule(sportKey)
	if err != nil {
		return nil, err
	}

	home := module.NormalizeTeam(homeTeam)
	away := module.NormalizeTeam(awayTeam)

	seed := o.opts.Seed()
	sim := simulator.New(module, simulator.NewRandomSource(seed))
	if err := sim.InitializeGame(home, away); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}

	interval := o.opts.PlayInterval
	if interval <= 0 {
		interval = module.GetSimulationConfig().PlayInterval
	}

	r := newGameRunner(uuid.NewString(), module, sim, seed, interval, o.sinks)

	o.mu.Lock()
	if len(o.games) >= o.opts.MaxConcurrentGames {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w (max %d)", ErrTooManyGames, o.opts.MaxConcurrentGames)
	}
	runCtx, cancel := context.WithCancel(o.ctx)
	r.cancel = cancel
	o.games[r.ID()] = r
	o.wg.Add(1)
	o.mu.Unlock()

	o.syncActiveGames(ctx, sportKey)

	go func() {
		defer o.wg.Done()
		defer cancel()
		r.Run(runCtx)
		o.remove(r)
	}()

	game := r.Game()
	return &game, nil
}

// remove drops a finished runner and refreshes the cached active list
func (o *Orchestrator) remove(r *GameRunner) {
	o.mu.Lock()
	delete(o.games, r.ID())
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	o.syncActiveGames(ctx, r.module.GetSportKey())
}

func (o *Orchestrator) syncActiveGames(ctx context.Context, sportKey string) {
	if o.sinks.Cache == nil {
		return
	}

	var ids []string
	for _, game := range o.ActiveGames() {
		if game.SportKey == sportKey {
			ids = append(ids, game.GameID)
		}
	}

	if err := o.sinks.Cache.WriteActiveGames(ctx, sportKey, ids); err != nil {
		log.Printf("[%s] Error caching active games list: %v", sportKey, err)
	}
}

func (o *Orchestrator) runner(gameID string) (*GameRunner, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	r, ok := o.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return r, nil
}

// Game returns the latest summary of a live game
func (o *Orchestrator) Game(gameID string) (*models.Game, error) {
	r, err := o.runner(gameID)
	if err != nil {
		return nil, err
	}
	game := r.Game()
	return &game, nil
}

// BoxScore returns the latest box score of a live game
func (o *Orchestrator) BoxScore(gameID string) (*models.BoxScore, error) {
	r, err := o.runner(gameID)
	if err != nil {
		return nil, err
	}
	box := r.BoxScore()
	return &box, nil
}

// Plays returns the last limit plays of a live game
func (o *Orchestrator) Plays(gameID string, limit int) ([]models.Play, error) {
	r, err := o.runner(gameID)
	if err != nil {
		return nil, err
	}
	return r.Plays(limit), nil
}

// ActiveGames returns the summaries of all live games, oldest first
func (o *Orchestrator) ActiveGames() []models.Game {
	o.mu.RLock()
	games := make([]models.Game, 0, len(o.games))
	for _, r := range o.games {
		games = append(games, r.Game())
	}
	o.mu.RUnlock()

	sort.Slice(games, func(i, j int) bool {
		if games[i].CommenceTime.Equal(games[j].CommenceTime) {
			return games[i].GameID < games[j].GameID
		}
		return games[i].CommenceTime.Before(games[j].CommenceTime)
	})
	return games
}

// StopGame cancels a live game and waits for its runner to wind down
func (o *Orchestrator) StopGame(ctx context.Context, gameID string) (*models.Game, error) {
	r, err := o.runner(gameID)
	if err != nil {
		return nil, err
	}

	r.cancel()

	select {
	case <-r.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	game := r.Game()
	return &game, nil
}

// Wait blocks until every runner has returned
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
