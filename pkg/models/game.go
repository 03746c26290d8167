package models

import "time"

// GameStatus represents the current state of a simulated game
type GameStatus string

const (
	StatusLive    GameStatus = "live"
	StatusFinal   GameStatus = "final"
	StatusStopped GameStatus = "stopped"
)

// Game is the summary of one simulated game, shared by the cache, the
// stream, the websocket feed and the API
type Game struct {
	GameID        string     `json:"game_id"`
	SportKey      string     `json:"sport_key"`      // "american_football_nfl"
	Status        GameStatus `json:"status"`         // "live", "final", "stopped"
	HomeTeam      string     `json:"home_team"`      // Full team name
	HomeTeamAbbr  string     `json:"home_team_abbr"` // "GB"
	AwayTeam      string     `json:"away_team"`      // Full team name
	AwayTeamAbbr  string     `json:"away_team_abbr"` // "CHI"
	HomeScore     int        `json:"home_score"`
	AwayScore     int        `json:"away_score"`
	Period        int        `json:"period"`           // Quarter
	PeriodLabel   string     `json:"period_label"`     // "Q1".."Q4", "Final"
	TimeRemaining string     `json:"time_remaining"`   // "14:35"
	Drive         *Drive     `json:"drive,omitempty"`  // nil once the game is over
	Winner        string     `json:"winner,omitempty"` // abbreviation, empty on a tie
	PlayCount     int        `json:"play_count"`
	Seed          int64      `json:"seed"`
	CommenceTime  time.Time  `json:"commence_time"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Drive is the ball situation of a live game
type Drive struct {
	Possession    string  `json:"possession"`     // abbreviation
	FieldPosition int     `json:"field_position"` // yards from the offense's own goal line
	Down          int     `json:"down"`
	YardsToGo     int     `json:"yards_to_go"`
	Momentum      float64 `json:"momentum"`
}

// IsOver reports whether the game will receive no more plays
func (g *Game) IsOver() bool {
	return g.Status == StatusFinal || g.Status == StatusStopped
}
