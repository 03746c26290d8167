package models

import "time"

// Play is one entry of a game's play-by-play
type Play struct {
	GameID        string    `json:"game_id"`
	SportKey      string    `json:"sport_key"`
	Number        int       `json:"number"`
	Period        int       `json:"period"`
	Clock         string    `json:"clock"` // game clock after the play
	Type          string    `json:"type"`  // "run", "pass", "field_goal", "punt", "no_gain"
	Offense       string    `json:"offense"`
	Situation     string    `json:"situation"`
	Description   string    `json:"description"`
	Yards         int       `json:"yards"`
	Points        int       `json:"points,omitempty"`
	ScoringTeam   string    `json:"scoring_team,omitempty"`
	Turnover      string    `json:"turnover,omitempty"`
	HomeScore     int       `json:"home_score"`
	AwayScore     int       `json:"away_score"`
	Possession    string    `json:"possession"` // team with the ball after the play
	FieldPosition int       `json:"field_position"`
	Down          int       `json:"down"`
	YardsToGo     int       `json:"yards_to_go"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsScoring reports whether the play put points on the board
func (p *Play) IsScoring() bool {
	return p.Points > 0
}
