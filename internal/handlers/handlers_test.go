package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/archive"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/cache"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/client"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/registry"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/runner"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/simulator"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const nfl = "american_football_nfl"

// MockGames implements handlers.GameService for testing
type MockGames struct {
	live     map[string]models.BoxScore
	plays    map[string][]models.Play
	startErr error
	started  []handlers.StartGameRequest
}

func (m *MockGames) StartGame(ctx context.Context, sportKey, homeTeam, awayTeam string) (*models.Game, error) {
	m.started = append(m.started, handlers.StartGameRequest{SportKey: sportKey, HomeTeam: homeTeam, AwayTeam: awayTeam})
	if m.startErr != nil {
		return nil, m.startErr
	}
	return &models.Game{GameID: "new-game", SportKey: sportKey, HomeTeamAbbr: homeTeam, AwayTeamAbbr: awayTeam, Status: models.StatusLive}, nil
}

func (m *MockGames) StopGame(ctx context.Context, gameID string) (*models.Game, error) {
	box, ok := m.live[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", runner.ErrGameNotFound, gameID)
	}
	game := *box.Game
	game.Status = models.StatusStopped
	return &game, nil
}

func (m *MockGames) Game(gameID string) (*models.Game, error) {
	box, ok := m.live[gameID]
	if !ok {
		return nil, runner.ErrGameNotFound
	}
	return box.Game, nil
}

func (m *MockGames) BoxScore(gameID string) (*models.BoxScore, error) {
	box, ok := m.live[gameID]
	if !ok {
		return nil, runner.ErrGameNotFound
	}
	return &box, nil
}

func (m *MockGames) Plays(gameID string, limit int) ([]models.Play, error) {
	if _, ok := m.live[gameID]; !ok {
		return nil, runner.ErrGameNotFound
	}
	return lastPlays(m.plays[gameID], limit), nil
}

func (m *MockGames) ActiveGames() []models.Game {
	games := []models.Game{}
	for _, box := range m.live {
		games = append(games, *box.Game)
	}
	return games
}

// MockCache implements handlers.GameReader for testing
type MockCache struct {
	games       map[string]models.BoxScore
	plays       map[string][]models.Play
	shouldError bool
}

func (m *MockCache) ReadGameSummary(ctx context.Context, gameID string) (*models.Game, error) {
	if m.shouldError {
		return nil, context.DeadlineExceeded
	}
	box, ok := m.games[gameID]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return box.Game, nil
}

func (m *MockCache) ReadBoxScore(ctx context.Context, gameID string) (*models.BoxScore, error) {
	if m.shouldError {
		return nil, context.DeadlineExceeded
	}
	box, ok := m.games[gameID]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return &box, nil
}

func (m *MockCache) ReadPlays(ctx context.Context, gameID string, limit int) ([]models.Play, error) {
	if m.shouldError {
		return nil, context.DeadlineExceeded
	}
	plays, ok := m.plays[gameID]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return lastPlays(plays, limit), nil
}

// MockResults implements handlers.ResultStore and handlers.Pinger for testing
type MockResults struct {
	games       map[string]models.BoxScore
	plays       map[string][]models.Play
	shouldError bool
	lastLimit   int
}

func (m *MockResults) GetGame(ctx context.Context, gameID string) (*models.BoxScore, error) {
	if m.shouldError {
		return nil, context.DeadlineExceeded
	}
	box, ok := m.games[gameID]
	if !ok {
		return nil, archive.ErrNotFound
	}
	return &box, nil
}

func (m *MockResults) ListRecentGames(ctx context.Context, limit int) ([]models.Game, error) {
	m.lastLimit = limit
	if m.shouldError {
		return nil, context.DeadlineExceeded
	}
	games := []models.Game{}
	for _, box := range m.games {
		games = append(games, *box.Game)
	}
	return games, nil
}

func (m *MockResults) GetPlays(ctx context.Context, gameID string) ([]models.Play, error) {
	if m.shouldError {
		return nil, context.DeadlineExceeded
	}
	return m.plays[gameID], nil
}

func (m *MockResults) Ping(ctx context.Context) error {
	if m.shouldError {
		return context.DeadlineExceeded
	}
	return nil
}

// MockHub implements handlers.ClientHub for testing
type MockHub struct {
	registered chan string
}

func (m *MockHub) Register(c *client.Client) bool {
	if m.registered != nil {
		m.registered <- c.ID
	}
	return true
}

func (m *MockHub) Unregister(c *client.Client) {}

func (m *MockHub) GetClientCount() int { return 3 }

func (m *MockHub) GetMetrics() map[string]interface{} {
	return map[string]interface{}{"active_clients": 3, "dropped_events": 0}
}

func lastPlays(plays []models.Play, limit int) []models.Play {
	if limit > 0 && limit < len(plays) {
		return plays[len(plays)-limit:]
	}
	return plays
}

func testBoxScore(gameID string, status models.GameStatus) models.BoxScore {
	return models.BoxScore{
		Game: &models.Game{
			GameID:       gameID,
			SportKey:     nfl,
			Status:       status,
			HomeTeamAbbr: "GB",
			AwayTeamAbbr: "CHI",
			HomeScore:    17,
			AwayScore:    10,
			CommenceTime: time.Now().UTC(),
		},
		PeriodScores: []models.PeriodScore{{Period: 1, Label: "Q1", HomeScore: 7}},
	}
}

func testPlays(gameID string, n int) []models.Play {
	plays := make([]models.Play, n)
	for i := range plays {
		plays[i] = models.Play{GameID: gameID, Number: i + 1, Type: "run", Offense: "GB"}
	}
	return plays
}

type fixture struct {
	games   *MockGames
	cache   *MockCache
	results *MockResults
	router  http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		games: &MockGames{
			live:  map[string]models.BoxScore{"live-1": testBoxScore("live-1", models.StatusLive)},
			plays: map[string][]models.Play{"live-1": testPlays("live-1", 30)},
		},
		cache: &MockCache{
			games: map[string]models.BoxScore{"cached-1": testBoxScore("cached-1", models.StatusFinal)},
			plays: map[string][]models.Play{"cached-1": testPlays("cached-1", 12)},
		},
		results: &MockResults{
			games: map[string]models.BoxScore{"archived-1": testBoxScore("archived-1", models.StatusFinal)},
			plays: map[string][]models.Play{"archived-1": testPlays("archived-1", 150)},
		},
	}
	f.router = f.routes(f.cache, f.results)
	return f
}

func (f *fixture) routes(reader handlers.GameReader, results handlers.ResultStore) http.Handler {
	gamesHandler := handlers.NewGamesHandler(f.games, reader, results, nfl)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/games", gamesHandler.StartGame)
		r.Get("/games", gamesHandler.GetActiveGames)
		r.Get("/games/{game_id}", gamesHandler.GetGame)
		r.Delete("/games/{game_id}", gamesHandler.StopGame)
		r.Get("/games/{game_id}/boxscore", gamesHandler.GetBoxScore)
		r.Get("/games/{game_id}/plays", gamesHandler.GetPlays)
		r.Get("/results", gamesHandler.GetResults)
		r.Get("/results/{game_id}", gamesHandler.GetResult)
	})
	return r
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealthCheck_Success(t *testing.T) {
	f := newFixture()
	handler := handlers.NewHandler(context.Background(), &MockHub{}, registry.New(), f.games, f.results)

	w := serve(t, http.HandlerFunc(handler.HealthCheck), "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	decode(t, w, &response)

	if response["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got %v", response["status"])
	}
	if response["active_games"] != float64(1) || response["active_clients"] != float64(3) {
		t.Errorf("unexpected counts in %v", response)
	}
}

func TestHealthCheck_ArchiveUnhealthy(t *testing.T) {
	f := newFixture()
	f.results.shouldError = true
	handler := handlers.NewHandler(context.Background(), &MockHub{}, registry.New(), f.games, f.results)

	w := serve(t, http.HandlerFunc(handler.HealthCheck), "GET", "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestHandleMetrics(t *testing.T) {
	f := newFixture()
	handler := handlers.NewHandler(context.Background(), &MockHub{}, registry.New(), f.games, nil)

	w := serve(t, http.HandlerFunc(handler.HandleMetrics), "GET", "/metrics", "")

	var metrics map[string]interface{}
	decode(t, w, &metrics)

	if metrics["active_games"] != float64(1) || metrics["active_clients"] != float64(3) {
		t.Errorf("unexpected metrics %v", metrics)
	}
}

func TestGetTeams(t *testing.T) {
	f := newFixture()
	handler := handlers.NewHandler(context.Background(), &MockHub{}, registry.New(), f.games, nil)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCount  float64
	}{
		{"default sport", "/api/v1/teams", http.StatusOK, 32},
		{"explicit sport", "/api/v1/teams?sport=" + nfl, http.StatusOK, 32},
		{"unknown sport", "/api/v1/teams?sport=curling", http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, http.HandlerFunc(handler.GetTeams), "GET", tt.target, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var response map[string]interface{}
			decode(t, w, &response)
			if response["count"] != tt.wantCount || response["sport"] != nfl {
				t.Errorf("unexpected response %v", response)
			}
		})
	}
}

func TestStartGame(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		startErr   error
		wantStatus int
	}{
		{"created", `{"home_team":"GB","away_team":"CHI"}`, nil, http.StatusCreated},
		{"malformed body", `{"home_team":`, nil, http.StatusBadRequest},
		{"missing team", `{"home_team":"GB"}`, nil, http.StatusBadRequest},
		{"unknown team", `{"home_team":"GB","away_team":"XYZ"}`, fmt.Errorf("start game: %w: XYZ", simulator.ErrUnknownTeam), http.StatusBadRequest},
		{"same team", `{"home_team":"GB","away_team":"GB"}`, fmt.Errorf("start game: %w: GB", simulator.ErrSameTeam), http.StatusBadRequest},
		{"unknown sport", `{"sport_key":"curling","home_team":"GB","away_team":"CHI"}`, registry.ErrSportNotFound, http.StatusBadRequest},
		{"at capacity", `{"home_team":"GB","away_team":"CHI"}`, fmt.Errorf("%w (max 1)", runner.ErrTooManyGames), http.StatusTooManyRequests},
		{"unexpected failure", `{"home_team":"GB","away_team":"CHI"}`, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.games.startErr = tt.startErr

			w := serve(t, f.router, "POST", "/api/v1/games", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.wantStatus >= 400 {
				var errResp models.ErrorResponse
				decode(t, w, &errResp)
				if errResp.Code != tt.wantStatus || errResp.Message == "" {
					t.Errorf("unexpected error body %+v", errResp)
				}
			}
		})
	}
}

func TestStartGame_DefaultsSport(t *testing.T) {
	f := newFixture()

	w := serve(t, f.router, "POST", "/api/v1/games", `{"home_team":"packers","away_team":"bears"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}
	if len(f.games.started) != 1 || f.games.started[0].SportKey != nfl {
		t.Errorf("expected the default sport, got %+v", f.games.started)
	}
}

func TestGetActiveGames(t *testing.T) {
	f := newFixture()

	w := serve(t, f.router, "GET", "/api/v1/games", "")
	var response map[string]interface{}
	decode(t, w, &response)
	if response["count"] != float64(1) {
		t.Errorf("expected 1 game, got %v", response["count"])
	}

	w = serve(t, f.router, "GET", "/api/v1/games?sport=basketball_nba", "")
	decode(t, w, &response)
	if response["count"] != float64(0) {
		t.Errorf("expected no games for another sport, got %v", response["count"])
	}
}

func TestGetGame_FallsThroughSources(t *testing.T) {
	f := newFixture()

	tests := []struct {
		gameID     string
		wantStatus int
		wantGame   models.GameStatus
	}{
		{"live-1", http.StatusOK, models.StatusLive},
		{"cached-1", http.StatusOK, models.StatusFinal},
		{"archived-1", http.StatusOK, models.StatusFinal},
		{"missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.gameID, func(t *testing.T) {
			w := serve(t, f.router, "GET", "/api/v1/games/"+tt.gameID, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var game models.Game
			decode(t, w, &game)
			if game.GameID != tt.gameID || game.Status != tt.wantGame {
				t.Errorf("unexpected game %+v", game)
			}
		})
	}
}

func TestGetGame_CacheError(t *testing.T) {
	f := newFixture()
	f.cache.shouldError = true

	w := serve(t, f.router, "GET", "/api/v1/games/cached-1", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}

func TestGetGame_NoBackingStores(t *testing.T) {
	f := newFixture()
	router := f.routes(nil, nil)

	if w := serve(t, router, "GET", "/api/v1/games/live-1", ""); w.Code != http.StatusOK {
		t.Errorf("expected live game, got %d", w.Code)
	}
	if w := serve(t, router, "GET", "/api/v1/games/archived-1", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestGetBoxScore(t *testing.T) {
	f := newFixture()

	for _, gameID := range []string{"live-1", "cached-1", "archived-1"} {
		w := serve(t, f.router, "GET", "/api/v1/games/"+gameID+"/boxscore", "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", gameID, w.Code)
		}

		var box models.BoxScore
		decode(t, w, &box)
		if box.Game == nil || box.Game.GameID != gameID || len(box.PeriodScores) != 1 {
			t.Errorf("%s: unexpected box score %+v", gameID, box)
		}
	}

	if w := serve(t, f.router, "GET", "/api/v1/games/missing/boxscore", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestGetPlays(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name      string
		target    string
		wantCount int
		wantFirst int
	}{
		{"live default limit", "/api/v1/games/live-1/plays", 20, 11},
		{"live explicit limit", "/api/v1/games/live-1/plays?limit=5", 5, 26},
		{"invalid limit", "/api/v1/games/live-1/plays?limit=abc", 20, 11},
		{"cached", "/api/v1/games/cached-1/plays?limit=50", 12, 1},
		{"archived", "/api/v1/games/archived-1/plays?limit=100", 100, 51},
		{"archived capped", "/api/v1/games/archived-1/plays?limit=9999", 150, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, f.router, "GET", tt.target, "")
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}

			var response struct {
				Plays []models.Play `json:"plays"`
				Count int           `json:"count"`
			}
			decode(t, w, &response)

			if response.Count != tt.wantCount || len(response.Plays) != tt.wantCount {
				t.Fatalf("expected %d plays, got %d", tt.wantCount, response.Count)
			}
			if response.Plays[0].Number != tt.wantFirst {
				t.Errorf("expected first play %d, got %d", tt.wantFirst, response.Plays[0].Number)
			}
		})
	}

	if w := serve(t, f.router, "GET", "/api/v1/games/missing/plays", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestStopGame(t *testing.T) {
	f := newFixture()

	w := serve(t, f.router, "DELETE", "/api/v1/games/live-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var game models.Game
	decode(t, w, &game)
	if game.Status != models.StatusStopped {
		t.Errorf("expected stopped game, got %s", game.Status)
	}

	if w := serve(t, f.router, "DELETE", "/api/v1/games/cached-1", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for a finished game, got %d", w.Code)
	}
}

func TestGetResults(t *testing.T) {
	f := newFixture()

	w := serve(t, f.router, "GET", "/api/v1/results?limit=1000", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if f.results.lastLimit != 100 {
		t.Errorf("expected limit capped at 100, got %d", f.results.lastLimit)
	}

	var response map[string]interface{}
	decode(t, w, &response)
	if response["count"] != float64(1) {
		t.Errorf("expected 1 result, got %v", response["count"])
	}

	f.results.shouldError = true
	if w := serve(t, f.router, "GET", "/api/v1/results", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}

func TestGetResults_ArchiveNotConfigured(t *testing.T) {
	f := newFixture()
	router := f.routes(f.cache, nil)

	if w := serve(t, router, "GET", "/api/v1/results", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestGetResult(t *testing.T) {
	f := newFixture()

	w := serve(t, f.router, "GET", "/api/v1/results/archived-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		BoxScore models.BoxScore `json:"boxscore"`
		Plays    []models.Play   `json:"plays"`
	}
	decode(t, w, &response)
	if response.BoxScore.Game.GameID != "archived-1" || len(response.Plays) != 150 {
		t.Errorf("unexpected result %+v with %d plays", response.BoxScore.Game, len(response.Plays))
	}

	if w := serve(t, f.router, "GET", "/api/v1/results/live-1", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for a game not yet archived, got %d", w.Code)
	}
}

func TestHandleWebSocket_RegistersClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := &MockHub{registered: make(chan string, 1)}
	handler := handlers.NewHandler(ctx, hub, registry.New(), newFixture().games, nil)

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	select {
	case id := <-hub.registered:
		if id == "" {
			t.Error("expected a client id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client was not registered")
	}
}
