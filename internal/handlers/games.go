package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/archive"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/cache"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/registry"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/runner"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/simulator"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
	"github.com/go-chi/chi/v5"
)

const (
	defaultPlaysLimit   = 20
	maxPlaysLimit       = 500
	defaultResultsLimit = 20
	maxResultsLimit     = 100
)

// GameService starts, stops and reads live games
type GameService interface {
	StartGame(ctx context.Context, sportKey, homeTeam, awayTeam string) (*models.Game, error)
	StopGame(ctx context.Context, gameID string) (*models.Game, error)
	Game(gameID string) (*models.Game, error)
	BoxScore(gameID string) (*models.BoxScore, error)
	Plays(gameID string, limit int) ([]models.Play, error)
	ActiveGames() []models.Game
}

// GameReader reads recently finished games back from the cache
type GameReader interface {
	ReadGameSummary(ctx context.Context, gameID string) (*models.Game, error)
	ReadBoxScore(ctx context.Context, gameID string) (*models.BoxScore, error)
	ReadPlays(ctx context.Context, gameID string, limit int) ([]models.Play, error)
}

// ResultStore reads archived games
type ResultStore interface {
	GetGame(ctx context.Context, gameID string) (*models.BoxScore, error)
	ListRecentGames(ctx context.Context, limit int) ([]models.Game, error)
	GetPlays(ctx context.Context, gameID string) ([]models.Play, error)
}

// StartGameRequest is the body of POST /api/v1/games
type StartGameRequest struct {
	SportKey string `json:"sport_key"`
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
}

// GamesHandler handles games-related API endpoints. Reads fall through
// from live games to the cache and then the archive; cache and results
// may be nil.
type GamesHandler struct {
	games        GameService
	cache        GameReader
	results      ResultStore
	defaultSport string
}

// NewGamesHandler creates a new games handler
func NewGamesHandler(games GameService, cache GameReader, results ResultStore, defaultSport string) *GamesHandler {
	return &GamesHandler{
		games:        games,
		cache:        cache,
		results:      results,
		defaultSport: defaultSport,
	}
}

// StartGame launches a live game
// POST /api/v1/games
func (h *GamesHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	var req StartGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if strings.TrimSpace(req.HomeTeam) == "" || strings.TrimSpace(req.AwayTeam) == "" {
		respondError(w, http.StatusBadRequest, "home_team and away_team are required", nil)
		return
	}
	if req.SportKey == "" {
		req.SportKey = h.defaultSport
	}

	game, err := h.games.StartGame(r.Context(), req.SportKey, req.HomeTeam, req.AwayTeam)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, game)
	case errors.Is(err, simulator.ErrUnknownTeam), errors.Is(err, simulator.ErrSameTeam):
		respondError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, registry.ErrSportNotFound), errors.Is(err, registry.ErrSportDisabled):
		respondError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, runner.ErrTooManyGames):
		respondError(w, http.StatusTooManyRequests, err.Error(), nil)
	default:
		respondError(w, http.StatusInternalServerError, "failed to start game", err)
	}
}

// GetActiveGames lists live games
// GET /api/v1/games?sport={sport_key}
func (h *GamesHandler) GetActiveGames(w http.ResponseWriter, r *http.Request) {
	sportKey := r.URL.Query().Get("sport")

	games := []models.Game{}
	for _, game := range h.games.ActiveGames() {
		if sportKey == "" || game.SportKey == sportKey {
			games = append(games, game)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
	})
}

// GetGame returns a single game summary
// GET /api/v1/games/{game_id}
func (h *GamesHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if gameID == "" {
		respondError(w, http.StatusBadRequest, "game_id is required", nil)
		return
	}

	if game, err := h.games.Game(gameID); err == nil {
		respondJSON(w, http.StatusOK, game)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.cache != nil {
		game, err := h.cache.ReadGameSummary(ctx, gameID)
		if err == nil {
			respondJSON(w, http.StatusOK, game)
			return
		}
		if !errors.Is(err, cache.ErrNotFound) {
			respondError(w, http.StatusInternalServerError, "failed to retrieve game", err)
			return
		}
	}

	box, ok := h.archivedBoxScore(ctx, w, gameID)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, box.Game)
}

// GetBoxScore returns the box score of a game
// GET /api/v1/games/{game_id}/boxscore
func (h *GamesHandler) GetBoxScore(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if gameID == "" {
		respondError(w, http.StatusBadRequest, "game_id is required", nil)
		return
	}

	if box, err := h.games.BoxScore(gameID); err == nil {
		respondJSON(w, http.StatusOK, box)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.cache != nil {
		box, err := h.cache.ReadBoxScore(ctx, gameID)
		if err == nil {
			respondJSON(w, http.StatusOK, box)
			return
		}
		if !errors.Is(err, cache.ErrNotFound) {
			respondError(w, http.StatusInternalServerError, "failed to retrieve box score", err)
			return
		}
	}

	box, ok := h.archivedBoxScore(ctx, w, gameID)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, box)
}

// GetPlays returns the latest plays of a game, oldest first
// GET /api/v1/games/{game_id}/plays?limit=20
func (h *GamesHandler) GetPlays(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if gameID == "" {
		respondError(w, http.StatusBadRequest, "game_id is required", nil)
		return
	}

	limit := parseIntParam(r, "limit", defaultPlaysLimit)
	if limit <= 0 {
		limit = defaultPlaysLimit
	}
	if limit > maxPlaysLimit {
		limit = maxPlaysLimit
	}

	plays, err := h.findPlays(r.Context(), gameID, limit)
	if err != nil {
		if errors.Is(err, runner.ErrGameNotFound) {
			respondError(w, http.StatusNotFound, "game not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to retrieve plays", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id": gameID,
		"plays":   plays,
		"count":   len(plays),
		"limit":   limit,
	})
}

func (h *GamesHandler) findPlays(ctx context.Context, gameID string, limit int) ([]models.Play, error) {
	if plays, err := h.games.Plays(gameID, limit); err == nil {
		return plays, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if h.cache != nil {
		plays, err := h.cache.ReadPlays(ctx, gameID, limit)
		if err == nil {
			return plays, nil
		}
		if !errors.Is(err, cache.ErrNotFound) {
			return nil, err
		}
	}

	if h.results != nil {
		plays, err := h.results.GetPlays(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if len(plays) > 0 {
			if len(plays) > limit {
				plays = plays[len(plays)-limit:]
			}
			return plays, nil
		}
	}

	return nil, runner.ErrGameNotFound
}

// StopGame stops a live game
// DELETE /api/v1/games/{game_id}
func (h *GamesHandler) StopGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if gameID == "" {
		respondError(w, http.StatusBadRequest, "game_id is required", nil)
		return
	}

	game, err := h.games.StopGame(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, runner.ErrGameNotFound) {
			respondError(w, http.StatusNotFound, "game not live", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to stop game", err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

// GetResults lists recently archived games, newest first
// GET /api/v1/results?limit=20
func (h *GamesHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		respondError(w, http.StatusServiceUnavailable, "results archive not configured", nil)
		return
	}

	limit := parseIntParam(r, "limit", defaultResultsLimit)
	if limit <= 0 {
		limit = defaultResultsLimit
	}
	if limit > maxResultsLimit {
		limit = maxResultsLimit
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	games, err := h.results.ListRecentGames(ctx, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve results", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
		"limit": limit,
	})
}

// GetResult returns an archived game with its full play-by-play
// GET /api/v1/results/{game_id}
func (h *GamesHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "game_id")
	if gameID == "" {
		respondError(w, http.StatusBadRequest, "game_id is required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	box, ok := h.archivedBoxScore(ctx, w, gameID)
	if !ok {
		return
	}

	plays, err := h.results.GetPlays(ctx, gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve plays", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"boxscore": box,
		"plays":    plays,
	})
}

// archivedBoxScore loads a game from the archive, writing the error
// response itself when it cannot
func (h *GamesHandler) archivedBoxScore(ctx context.Context, w http.ResponseWriter, gameID string) (*models.BoxScore, bool) {
	if h.results == nil {
		respondError(w, http.StatusNotFound, "game not found", nil)
		return nil, false
	}

	box, err := h.results.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			respondError(w, http.StatusNotFound, "game not found", nil)
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, "failed to retrieve game", err)
		return nil, false
	}
	return box, true
}
