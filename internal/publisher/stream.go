package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
	"github.com/redis/go-redis/v9"
)

// streamMaxLen bounds each stream with approximate trimming
const streamMaxLen = 10000

// GameUpdatesStream is the stream carrying game summaries for a sport
func GameUpdatesStream(sportKey string) string {
	return fmt.Sprintf("games.updates.%s", sportKey)
}

// PlaysStream is the stream carrying play-by-play for a sport
func PlaysStream(sportKey string) string {
	return fmt.Sprintf("games.plays.%s", sportKey)
}

// StreamPublisher publishes game updates to Redis streams
type StreamPublisher struct {
	client redis.Cmdable
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client redis.Cmdable) *StreamPublisher {
	return &StreamPublisher{
		client: client,
	}
}

// PublishGameUpdate publishes a game update to the sport-specific stream
func (p *StreamPublisher) PublishGameUpdate(ctx context.Context, game *models.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshaling game update: %w", err)
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: GameUpdatesStream(game.SportKey),
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":    string(data),
			"game_id": game.GameID,
			"status":  string(game.Status),
		},
	}).Err()
}

// PublishPlay publishes a single play
func (p *StreamPublisher) PublishPlay(ctx context.Context, play *models.Play) error {
	data, err := json.Marshal(play)
	if err != nil {
		return fmt.Errorf("marshaling play: %w", err)
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: PlaysStream(play.SportKey),
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":    string(data),
			"game_id": play.GameID,
			"type":    play.Type,
		},
	}).Err()
}
