package runner

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/simulator"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
)

// sinkTimeout bounds the cache, stream and archive writes made after a game
// has been cancelled
const sinkTimeout = 5 * time.Second

// GameRunner drives a single simulated game, one play per tick. Only the
// Run goroutine touches the simulator; readers get copies of the latest
// snapshot.
type GameRunner struct {
	id        string
	module    contracts.SportModule
	sim       *simulator.Simulator
	seed      int64
	interval  time.Duration
	sinks     Sinks
	commenced time.Time

	mu    sync.RWMutex
	game  models.Game
	box   models.BoxScore
	plays []models.Play

	cancel context.CancelFunc
	done   chan struct{}
}

func newGameRunner(id string, module contracts.SportModule, sim *simulator.Simulator, seed int64, interval time.Duration, sinks Sinks) *GameRunner {
	r := &GameRunner{
		id:        id,
		module:    module,
		sim:       sim,
		seed:      seed,
		interval:  interval,
		sinks:     sinks,
		commenced: time.Now().UTC(),
		done:      make(chan struct{}),
	}
	r.record(sim.Snapshot(), sim.Stats(), models.StatusLive, nil)
	return r
}

// ID returns the game ID
func (r *GameRunner) ID() string {
	return r.id
}

// Done is closed once the runner has stopped
func (r *GameRunner) Done() <-chan struct{} {
	return r.done
}

// Run plays the game until it ends or ctx is cancelled
func (r *GameRunner) Run(ctx context.Context) {
	defer close(r.done)

	sportKey := r.module.GetSportKey()
	game := r.Game()
	log.Printf("[%s] Starting game %s: %s at %s (seed %d)",
		sportKey, r.id, game.AwayTeamAbbr, game.HomeTeamAbbr, r.seed)

	r.publishGame(ctx, game, models.MessageTypeGameUpdate)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.stop()
			return
		case <-ticker.C:
			if over := r.step(ctx); over {
				r.finish(ctx)
				return
			}
		}
	}
}

// step simulates one play and fans it out. It reports whether the game is
// over.
func (r *GameRunner) step(ctx context.Context) bool {
	res, err := r.sim.SimulatePlay()
	if err != nil {
		log.Printf("[%s] Game %s cannot continue: %v", r.module.GetSportKey(), r.id, err)
		return true
	}

	play := r.playFromResult(res)
	status := models.StatusLive
	if res.State.Status == simulator.StatusGameOver {
		status = models.StatusFinal
	}
	game := r.record(res.State, res.Stats, status, &play)

	sportKey := r.module.GetSportKey()
	if r.sinks.Cache != nil {
		if err := r.sinks.Cache.AppendPlay(ctx, &play); err != nil {
			log.Printf("[%s] Error caching play %d of %s: %v", sportKey, play.Number, r.id, err)
		}
	}
	if r.sinks.Publisher != nil {
		if err := r.sinks.Publisher.PublishPlay(ctx, &play); err != nil {
			log.Printf("[%s] Error publishing play %d of %s: %v", sportKey, play.Number, r.id, err)
		}
	}
	r.broadcast(models.MessageTypePlay, play)

	if status == models.StatusLive {
		r.publishGame(ctx, game, models.MessageTypeGameUpdate)
	}
	return status == models.StatusFinal
}

// finish publishes the final summary and archives the game
func (r *GameRunner) finish(ctx context.Context) {
	game := r.Game()
	r.publishGame(ctx, game, models.MessageTypeGameFinal)

	// a finished game is archived even if the run is cancelled meanwhile
	if r.sinks.Archive != nil {
		archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
		defer cancel()

		box := r.BoxScore()
		if err := r.sinks.Archive.SaveGame(archiveCtx, &box, r.Plays(0)); err != nil {
			log.Printf("[%s] Error archiving game %s: %v", r.module.GetSportKey(), r.id, err)
		}
	}

	log.Printf("[%s] Final %s: %s %d, %s %d after %d plays",
		r.module.GetSportKey(), r.id,
		game.AwayTeamAbbr, game.AwayScore, game.HomeTeamAbbr, game.HomeScore, game.PlayCount)
}

// stop marks a cancelled game as stopped. The run context is already done,
// so the final writes get their own deadline.
func (r *GameRunner) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	r.mu.Lock()
	r.game.Status = models.StatusStopped
	r.game.Drive = nil
	r.game.UpdatedAt = time.Now().UTC()
	r.box.Game = &r.game
	game := r.game
	r.mu.Unlock()

	r.publishGame(ctx, game, models.MessageTypeGameFinal)
	log.Printf("[%s] Stopped game %s after %d plays", r.module.GetSportKey(), r.id, game.PlayCount)
}

// record stores the latest snapshot and returns the new summary
func (r *GameRunner) record(st simulator.GameState, stats simulator.Stats, status models.GameStatus, play *models.Play) models.Game {
	r.mu.Lock()
	defer r.mu.Unlock()

	if play != nil {
		r.plays = append(r.plays, *play)
	}

	r.game = r.summarize(st, status, len(r.plays))
	gs := gameStats(stats)
	r.box = models.BoxScore{
		Game:         &r.game,
		Stats:        gs,
		DisplayStats: gs.Display(),
		PeriodScores: periodScores(st),
	}
	return r.game
}

// publishGame writes the summary and box score to the cache, the stream and
// the hub. Failures are logged and never stop the game.
func (r *GameRunner) publishGame(ctx context.Context, game models.Game, messageType string) {
	sportKey := r.module.GetSportKey()

	if r.sinks.Cache != nil {
		if err := r.sinks.Cache.WriteGameSummary(ctx, &game); err != nil {
			log.Printf("[%s] Error caching game %s: %v", sportKey, r.id, err)
		}
		box := r.BoxScore()
		if err := r.sinks.Cache.WriteBoxScore(ctx, &box); err != nil {
			log.Printf("[%s] Error caching box score %s: %v", sportKey, r.id, err)
		}
	}

	if r.sinks.Publisher != nil {
		if err := r.sinks.Publisher.PublishGameUpdate(ctx, &game); err != nil {
			log.Printf("[%s] Error publishing game %s: %v", sportKey, r.id, err)
		}
	}

	r.broadcast(messageType, game)
}

func (r *GameRunner) broadcast(messageType string, payload interface{}) {
	if r.sinks.Hub == nil {
		return
	}

	r.mu.RLock()
	teams := []string{r.game.HomeTeamAbbr, r.game.AwayTeamAbbr}
	r.mu.RUnlock()

	r.sinks.Hub.Broadcast(models.GameEvent{
		Type:     messageType,
		GameID:   r.id,
		SportKey: r.module.GetSportKey(),
		Teams:    teams,
		Payload:  payload,
	})
}

// Game returns a copy of the latest game summary
func (r *GameRunner) Game() models.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.game
}

// BoxScore returns a copy of the latest box score
func (r *GameRunner) BoxScore() models.BoxScore {
	r.mu.RLock()
	defer r.mu.RUnlock()

	box := r.box
	game := r.game
	box.Game = &game
	box.DisplayStats = append([]models.DisplayStat(nil), r.box.DisplayStats...)
	box.PeriodScores = append([]models.PeriodScore(nil), r.box.PeriodScores...)
	return box
}

// Plays returns a copy of the last limit plays, oldest first. A limit of
// zero or less returns every play.
func (r *GameRunner) Plays(limit int) []models.Play {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := 0
	if limit > 0 && limit < len(r.plays) {
		start = len(r.plays) - limit
	}
	return append([]models.Play{}, r.plays[start:]...)
}
