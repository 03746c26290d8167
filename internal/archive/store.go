package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/retry"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
	"github.com/lib/pq"
)

// ErrNotFound is returned when no archived game has the requested ID
var ErrNotFound = errors.New("game not archived")

// Store persists completed games in Postgres
type Store struct {
	db    *sql.DB
	retry *retry.RetryPolicy
}

// NewStore opens a connection pool to dsn and verifies it
func NewStore(dsn string, policy *retry.RetryPolicy) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, retry: policy}, nil
}

// EnsureSchema creates the results tables if needed
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveGame archives a finished game and its play-by-play in one
// transaction. Saving the same game twice is a no-op.
func (s *Store) SaveGame(ctx context.Context, box *models.BoxScore, plays []models.Play) error {
	if box == nil || box.Game == nil {
		return errors.New("save game: boxscore has no game")
	}

	periodScores, err := json.Marshal(box.PeriodScores)
	if err != nil {
		return fmt.Errorf("marshaling period scores: %w", err)
	}
	stats, err := json.Marshal(box.Stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}

	return s.retry.Execute(ctx, func(ctx context.Context) error {
		err := s.saveGameTx(ctx, box.Game, periodScores, stats, plays)
		if isIntegrityViolation(err) {
			return retry.Permanent(err)
		}
		return err
	})
}

func (s *Store) saveGameTx(ctx context.Context, game *models.Game, periodScores, stats []byte, plays []models.Play) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO simulated_games (
			game_id, sport_key, status, home_team, home_team_abbr,
			away_team, away_team_abbr, home_score, away_score, winner,
			play_count, seed, period_scores, stats, commence_time, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (game_id) DO NOTHING
	`,
		game.GameID, game.SportKey, string(game.Status), game.HomeTeam, game.HomeTeamAbbr,
		game.AwayTeam, game.AwayTeamAbbr, game.HomeScore, game.AwayScore, game.Winner,
		game.PlayCount, game.Seed, periodScores, stats, game.CommenceTime, game.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// already archived
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("simulated_plays",
		"game_id", "play_number", "period", "clock", "play_type", "offense",
		"situation", "description", "yards", "points", "scoring_team", "turnover",
		"home_score", "away_score", "possession", "field_position", "down",
		"yards_to_go", "created_at",
	))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}

	for _, p := range plays {
		if _, err := stmt.ExecContext(ctx,
			game.GameID, p.Number, p.Period, p.Clock, p.Type, p.Offense,
			p.Situation, p.Description, p.Yards, p.Points, p.ScoringTeam, p.Turnover,
			p.HomeScore, p.AwayScore, p.Possession, p.FieldPosition, p.Down,
			p.YardsToGo, p.CreatedAt,
		); err != nil {
			stmt.Close()
			return fmt.Errorf("copy play %d: %w", p.Number, err)
		}
	}

	// flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flush plays: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const gameColumns = `
	game_id, sport_key, status, home_team, home_team_abbr,
	away_team, away_team_abbr, home_score, away_score, winner,
	play_count, seed, period_scores, stats, commence_time, finished_at
`

// GetGame retrieves an archived game's box score
func (s *Store) GetGame(ctx context.Context, gameID string) (*models.BoxScore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM simulated_games WHERE game_id = $1`, gameID)

	box, err := scanBoxScore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query game: %w", err)
	}
	return box, nil
}

// ListRecentGames returns the most recently finished games, newest first
func (s *Store) ListRecentGames(ctx context.Context, limit int) ([]models.Game, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM simulated_games ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		box, err := scanBoxScore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *box.Game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

// GetPlays retrieves the archived play-by-play of a game in order
func (s *Store) GetPlays(ctx context.Context, gameID string) ([]models.Play, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT play_number, period, clock, play_type, offense, situation,
		       description, yards, points, scoring_team, turnover, home_score,
		       away_score, possession, field_position, down, yards_to_go, created_at
		FROM simulated_plays
		WHERE game_id = $1
		ORDER BY play_number ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query plays: %w", err)
	}
	defer rows.Close()

	plays := []models.Play{}
	for rows.Next() {
		p := models.Play{GameID: gameID}
		if err := rows.Scan(
			&p.Number, &p.Period, &p.Clock, &p.Type, &p.Offense, &p.Situation,
			&p.Description, &p.Yards, &p.Points, &p.ScoringTeam, &p.Turnover, &p.HomeScore,
			&p.AwayScore, &p.Possession, &p.FieldPosition, &p.Down, &p.YardsToGo, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan play: %w", err)
		}
		plays = append(plays, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plays: %w", err)
	}
	return plays, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBoxScore(row scanner) (*models.BoxScore, error) {
	var (
		game         models.Game
		status       string
		periodScores []byte
		stats        []byte
		box          models.BoxScore
	)

	if err := row.Scan(
		&game.GameID, &game.SportKey, &status, &game.HomeTeam, &game.HomeTeamAbbr,
		&game.AwayTeam, &game.AwayTeamAbbr, &game.HomeScore, &game.AwayScore, &game.Winner,
		&game.PlayCount, &game.Seed, &periodScores, &stats, &game.CommenceTime, &game.UpdatedAt,
	); err != nil {
		return nil, err
	}

	game.Status = models.GameStatus(status)

	if err := json.Unmarshal(periodScores, &box.PeriodScores); err != nil {
		return nil, fmt.Errorf("unmarshaling period scores: %w", err)
	}
	if err := json.Unmarshal(stats, &box.Stats); err != nil {
		return nil, fmt.Errorf("unmarshaling stats: %w", err)
	}

	game.Period = len(box.PeriodScores)
	game.PeriodLabel = "Final"
	box.Game = &game
	box.DisplayStats = box.Stats.Display()
	return &box, nil
}

// isIntegrityViolation reports constraint failures (SQLSTATE class 23)
func isIntegrityViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Class() == "23"
}
