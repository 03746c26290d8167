package models

import (
	"fmt"
	"strconv"
)

// BoxScore contains full game statistics
type BoxScore struct {
	Game         *Game         `json:"game"`
	Stats        GameStats     `json:"stats"`
	DisplayStats []DisplayStat `json:"display_stats"` // Formatted for UI
	PeriodScores []PeriodScore `json:"period_scores"` // Quarter-by-quarter
}

// GameStats are the accumulated totals of a simulated game
type GameStats struct {
	TotalYards          int `json:"total_yards"`
	PassingYards        int `json:"passing_yards"`
	RushingYards        int `json:"rushing_yards"`
	Sacks               int `json:"sacks"`
	Interceptions       int `json:"interceptions"`
	Fumbles             int `json:"fumbles"`
	FieldGoalsMade      int `json:"field_goals_made"`
	FieldGoalsAttempted int `json:"field_goals_attempted"`
	Punts               int `json:"punts"`
	ReturnYards         int `json:"return_yards"`
}

// PeriodScore represents scoring by period
type PeriodScore struct {
	Period    int    `json:"period"`
	Label     string `json:"label"` // "Q1"
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

// DisplayStat provides formatted stat display info
// Frontend uses this to render stats without knowing sport semantics
type DisplayStat struct {
	Label    string `json:"label"`    // "Passing Yards"
	Value    string `json:"value"`    // "212"
	Category string `json:"category"` // "Offense", "Special Teams"
}

// Display formats the totals for the box score UI
func (s GameStats) Display() []DisplayStat {
	return []DisplayStat{
		{Label: "Total Yards", Value: strconv.Itoa(s.TotalYards), Category: "Offense"},
		{Label: "Passing Yards", Value: strconv.Itoa(s.PassingYards), Category: "Offense"},
		{Label: "Rushing Yards", Value: strconv.Itoa(s.RushingYards), Category: "Offense"},
		{Label: "Interceptions", Value: strconv.Itoa(s.Interceptions), Category: "Turnovers"},
		{Label: "Fumbles", Value: strconv.Itoa(s.Fumbles), Category: "Turnovers"},
		{Label: "Sacks", Value: strconv.Itoa(s.Sacks), Category: "Defense"},
		{Label: "Field Goals", Value: fmt.Sprintf("%d/%d", s.FieldGoalsMade, s.FieldGoalsAttempted), Category: "Special Teams"},
		{Label: "Punts", Value: strconv.Itoa(s.Punts), Category: "Special Teams"},
		{Label: "Return Yards", Value: strconv.Itoa(s.ReturnYards), Category: "Special Teams"},
	}
}
