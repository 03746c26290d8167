// Package main plays a single simulated NFL game in the terminal, with no
// Redis or Postgres involved.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/simulator"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/sports/american_football_nfl"
)

func main() {
	var home, away string
	var seed int64
	var quiet bool

	flag.StringVar(&home, "home", "GB", "home team (abbreviation, name or nickname)")
	flag.StringVar(&away, "away", "CHI", "away team (abbreviation, name or nickname)")
	flag.Int64Var(&seed, "seed", 0, "random seed for reproducibility (0 = random)")
	flag.BoolVar(&quiet, "quiet", false, "print only the final score and stats")
	flag.Parse()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	if err := run(os.Stdout, home, away, seed, quiet); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, home, away string, seed int64, quiet bool) error {
	module := american_football_nfl.New()
	sim := simulator.New(module, simulator.NewRandomSource(seed))

	if err := sim.InitializeGame(module.NormalizeTeam(home), module.NormalizeTeam(away)); err != nil {
		return err
	}

	st := sim.Snapshot()
	fmt.Fprintf(w, "%s at %s (seed %d)\n", teamName(module, st.AwayTeam), teamName(module, st.HomeTeam), seed)
	fmt.Fprintf(w, "%s wins the toss and receives\n\n", st.Possession)

	for sim.Status() == simulator.StatusInProgress {
		res, err := sim.SimulatePlay()
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintln(w, formatPlay(res))
		}
	}

	writeSummary(w, sim.Snapshot(), sim.Stats())
	return nil
}

func teamName(module *american_football_nfl.NFLModule, abbr string) string {
	if team, ok := module.Team(abbr); ok {
		return team.Name
	}
	return abbr
}

// formatPlay renders one line of play-by-play. The clock is the time left
// after the play.
func formatPlay(res simulator.PlayResult) string {
	st := res.State
	line := fmt.Sprintf("Q%d %02d:%02d  %-3s  %s",
		st.Quarter, st.TimeRemaining/60, st.TimeRemaining%60, res.Offense, res.Description)

	if res.Scoring != nil {
		line += fmt.Sprintf("  [%s %d, %s %d]", st.AwayTeam, st.AwayScore, st.HomeTeam, st.HomeScore)
	}
	return line
}

func writeSummary(w io.Writer, st simulator.GameState, stats simulator.Stats) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-5s", "")
	for q := 1; q <= simulator.Quarters; q++ {
		fmt.Fprintf(w, "%4s", fmt.Sprintf("Q%d", q))
	}
	fmt.Fprintf(w, "%6s\n", "T")

	for _, side := range []struct {
		team  string
		total int
		home  bool
	}{
		{st.AwayTeam, st.AwayScore, false},
		{st.HomeTeam, st.HomeScore, true},
	} {
		fmt.Fprintf(w, "%-5s", side.team)
		for _, q := range st.QuarterScores {
			points := q.Away
			if side.home {
				points = q.Home
			}
			fmt.Fprintf(w, "%4d", points)
		}
		fmt.Fprintf(w, "%6d\n", side.total)
	}

	fmt.Fprintln(w)
	if st.Winner == "" {
		fmt.Fprintln(w, "Final: tie")
	} else {
		fmt.Fprintf(w, "Final: %s wins\n", st.Winner)
	}

	fmt.Fprintln(w, strings.Repeat("-", 30))
	fmt.Fprintf(w, "%-20s %9d\n", "Total yards", stats.TotalYards)
	fmt.Fprintf(w, "%-20s %9d\n", "Passing yards", stats.PassingYards)
	fmt.Fprintf(w, "%-20s %9d\n", "Rushing yards", stats.RushingYards)
	fmt.Fprintf(w, "%-20s %9d\n", "Interceptions", stats.Interceptions)
	fmt.Fprintf(w, "%-20s %9s\n", "Field goals", fmt.Sprintf("%d/%d", stats.FieldGoals.Made, stats.FieldGoals.Attempted))
	fmt.Fprintf(w, "%-20s %9d\n", "Punts", stats.Punts)
	fmt.Fprintf(w, "%-20s %9d\n", "Return yards", stats.ReturnYards)
}
