package runner

import (
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/simulator"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
)

// formatClock renders seconds left in the quarter as "MM:SS"
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func periodLabel(quarter int, status models.GameStatus) string {
	if status == models.StatusFinal {
		return "Final"
	}
	return fmt.Sprintf("Q%d", quarter)
}

// summarize builds the game summary from a simulator snapshot
func (r *GameRunner) summarize(st simulator.GameState, status models.GameStatus, playCount int) models.Game {
	game := models.Game{
		GameID:        r.id,
		SportKey:      r.module.GetSportKey(),
		Status:        status,
		HomeTeam:      r.teamName(st.HomeTeam),
		HomeTeamAbbr:  st.HomeTeam,
		AwayTeam:      r.teamName(st.AwayTeam),
		AwayTeamAbbr:  st.AwayTeam,
		HomeScore:     st.HomeScore,
		AwayScore:     st.AwayScore,
		Period:        st.Quarter,
		PeriodLabel:   periodLabel(st.Quarter, status),
		TimeRemaining: formatClock(st.TimeRemaining),
		Winner:        st.Winner,
		PlayCount:     playCount,
		Seed:          r.seed,
		CommenceTime:  r.commenced,
		UpdatedAt:     time.Now().UTC(),
	}

	if status == models.StatusLive {
		game.Drive = &models.Drive{
			Possession:    st.Possession,
			FieldPosition: st.FieldPosition,
			Down:          st.Down,
			YardsToGo:     st.YardsToGo,
			Momentum:      st.Momentum,
		}
	}
	return game
}

func (r *GameRunner) teamName(abbr string) string {
	if team, ok := r.module.Team(abbr); ok {
		return team.Name
	}
	return abbr
}

// playFromResult flattens a simulated play into its play-by-play entry
func (r *GameRunner) playFromResult(res simulator.PlayResult) models.Play {
	st := res.State
	play := models.Play{
		GameID:        r.id,
		SportKey:      r.module.GetSportKey(),
		Number:        res.Number,
		Period:        st.Quarter,
		Clock:         formatClock(st.TimeRemaining),
		Type:          string(res.Type),
		Offense:       res.Offense,
		Situation:     string(res.Situation),
		Description:   res.Description,
		Yards:         res.Yards,
		Turnover:      string(res.Turnover),
		HomeScore:     st.HomeScore,
		AwayScore:     st.AwayScore,
		Possession:    st.Possession,
		FieldPosition: st.FieldPosition,
		Down:          st.Down,
		YardsToGo:     st.YardsToGo,
		CreatedAt:     time.Now().UTC(),
	}

	if res.Scoring != nil {
		play.Points = res.Scoring.Points
		play.ScoringTeam = res.Scoring.Team
	}
	return play
}

func gameStats(s simulator.Stats) models.GameStats {
	return models.GameStats{
		TotalYards:          s.TotalYards,
		PassingYards:        s.PassingYards,
		RushingYards:        s.RushingYards,
		Sacks:               s.Sacks,
		Interceptions:       s.Interceptions,
		Fumbles:             s.Fumbles,
		FieldGoalsMade:      s.FieldGoals.Made,
		FieldGoalsAttempted: s.FieldGoals.Attempted,
		Punts:               s.Punts,
		ReturnYards:         s.ReturnYards,
	}
}

func periodScores(st simulator.GameState) []models.PeriodScore {
	scores := make([]models.PeriodScore, 0, simulator.Quarters)
	for i, q := range st.QuarterScores {
		scores = append(scores, models.PeriodScore{
			Period:    i + 1,
			Label:     fmt.Sprintf("Q%d", i+1),
			HomeScore: q.Home,
			AwayScore: q.Away,
		})
	}
	return scores
}
