package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
	"github.com/redis/go-redis/v9"
)

// TTL constants
const (
	ActiveGamesListTTL = 24 * time.Hour
	LiveGameTTL        = 2 * time.Hour
	FinalGameTTL       = 6 * time.Hour
)

// ErrNotFound is returned when a key has expired or was never written
var ErrNotFound = errors.New("not found in cache")

// RedisWriter handles reading and writing game data in Redis
type RedisWriter struct {
	client redis.Cmdable
}

// NewRedisWriter creates a new Redis writer
func NewRedisWriter(client redis.Cmdable) *RedisWriter {
	return &RedisWriter{
		client: client,
	}
}

func summaryKey(gameID string) string  { return fmt.Sprintf("game:%s:summary", gameID) }
func boxScoreKey(gameID string) string { return fmt.Sprintf("game:%s:boxscore", gameID) }
func playsKey(gameID string) string    { return fmt.Sprintf("game:%s:plays", gameID) }
func activeKey(sportKey string) string { return fmt.Sprintf("games:active:%s", sportKey) }

// WriteActiveGames replaces the list of live game IDs for a sport
func (w *RedisWriter) WriteActiveGames(ctx context.Context, sportKey string, gameIDs []string) error {
	key := activeKey(sportKey)

	values := make([]interface{}, len(gameIDs))
	for i, id := range gameIDs {
		values[i] = id
	}

	pipe := w.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(values) > 0 {
		pipe.RPush(ctx, key, values...)
	}
	pipe.Expire(ctx, key, ActiveGamesListTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing active games: %w", err)
	}
	return nil
}

// WriteGameSummary stores game summary data. Finishing a game also extends
// the play-by-play to the final TTL.
func (w *RedisWriter) WriteGameSummary(ctx context.Context, game *models.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshaling game: %w", err)
	}

	ttl := getTTLForGame(game)

	pipe := w.client.TxPipeline()
	pipe.Set(ctx, summaryKey(game.GameID), data, ttl)
	if game.IsOver() {
		pipe.Expire(ctx, playsKey(game.GameID), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing game summary: %w", err)
	}
	return nil
}

// WriteBoxScore stores full box score data
func (w *RedisWriter) WriteBoxScore(ctx context.Context, boxscore *models.BoxScore) error {
	if boxscore.Game == nil {
		return errors.New("boxscore has no game")
	}

	data, err := json.Marshal(boxscore)
	if err != nil {
		return fmt.Errorf("marshaling boxscore: %w", err)
	}

	return w.client.Set(ctx, boxScoreKey(boxscore.Game.GameID), data, getTTLForGame(boxscore.Game)).Err()
}

// AppendPlay adds a play to the end of the game's play-by-play list
func (w *RedisWriter) AppendPlay(ctx context.Context, play *models.Play) error {
	data, err := json.Marshal(play)
	if err != nil {
		return fmt.Errorf("marshaling play: %w", err)
	}

	key := playsKey(play.GameID)
	pipe := w.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, LiveGameTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending play: %w", err)
	}
	return nil
}

// getTTLForGame returns appropriate TTL based on game status
func getTTLForGame(game *models.Game) time.Duration {
	if game.IsOver() {
		return FinalGameTTL
	}
	return LiveGameTTL
}

// ReadGameSummary retrieves game summary from Redis
func (w *RedisWriter) ReadGameSummary(ctx context.Context, gameID string) (*models.Game, error) {
	var game models.Game
	if err := w.readJSON(ctx, summaryKey(gameID), &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// ReadBoxScore retrieves a box score from Redis
func (w *RedisWriter) ReadBoxScore(ctx context.Context, gameID string) (*models.BoxScore, error) {
	var boxscore models.BoxScore
	if err := w.readJSON(ctx, boxScoreKey(gameID), &boxscore); err != nil {
		return nil, err
	}
	return &boxscore, nil
}

// ReadPlays retrieves the last limit plays of a game, oldest first.
// A limit of zero or less returns every play.
func (w *RedisWriter) ReadPlays(ctx context.Context, gameID string, limit int) ([]models.Play, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}

	raw, err := w.client.LRange(ctx, playsKey(gameID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading plays: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	plays := make([]models.Play, 0, len(raw))
	for _, item := range raw {
		var play models.Play
		if err := json.Unmarshal([]byte(item), &play); err != nil {
			return nil, fmt.Errorf("unmarshaling play: %w", err)
		}
		plays = append(plays, play)
	}
	return plays, nil
}

// ReadActiveGames retrieves the list of live game IDs for a sport
func (w *RedisWriter) ReadActiveGames(ctx context.Context, sportKey string) ([]string, error) {
	return w.client.LRange(ctx, activeKey(sportKey), 0, -1).Result()
}

func (w *RedisWriter) readJSON(ctx context.Context, key string, target interface{}) error {
	data, err := w.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", key, err)
	}
	return nil
}
