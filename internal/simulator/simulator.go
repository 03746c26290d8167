package simulator

import (
	"errors"
	"fmt"
)

// Game constants
const (
	Quarters        = 4
	QuarterLength   = 900 // seconds
	KickoffSpot     = 20
	FirstDownYards  = 10
	NeutralMomentum = 0.5
	TouchdownPoints = 7
	FieldGoalPoints = 3

	fieldLength      = 100
	fieldGoalRange   = 65 // field goals are only tried beyond this spot
	kickDepth        = 17 // end zone plus snap distance added to a kick
	ratingBaseline   = 0.8
	probabilityNoise = 0.1
	twoMinuteWarning = 120
)

var (
	// ErrUnknownTeam is returned when a team is missing from the registry
	ErrUnknownTeam = errors.New("unknown team")

	// ErrSameTeam is returned when a team is asked to play itself
	ErrSameTeam = errors.New("home and away teams must differ")

	// ErrGameNotStarted is returned by SimulatePlay before InitializeGame
	ErrGameNotStarted = errors.New("game not started")

	// ErrGameOver is returned by SimulatePlay once the fourth quarter expires
	ErrGameOver = errors.New("game is over")
)

// TeamRatings resolves a team identifier to its strength rating in [0,1]
type TeamRatings interface {
	Rating(team string) (float64, bool)
}

// Simulator owns the state of a single game and advances it one play at a
// time. It is not safe for concurrent use; exactly one caller may drive it.
type Simulator struct {
	teams TeamRatings
	rng   RandomSource

	state   GameState
	stats   Stats
	ratings map[string]float64
	plays   int

	// spot the next offense starts from once a finished drive hands over
	nextSpot int
}

// New creates a simulator that looks up ratings in teams and draws every
// random value from rng.
func New(teams TeamRatings, rng RandomSource) *Simulator {
	return &Simulator{
		teams: teams,
		rng:   rng,
		state: GameState{Status: StatusNotStarted},
	}
}

// InitializeGame validates the matchup and resets the simulator to a fresh
// game with a coin-toss possession. Nothing changes when validation fails.
func (s *Simulator) InitializeGame(homeTeam, awayTeam string) error {
	if homeTeam == awayTeam {
		return fmt.Errorf("%w: %s", ErrSameTeam, homeTeam)
	}

	homeRating, ok := s.teams.Rating(homeTeam)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, homeTeam)
	}
	awayRating, ok := s.teams.Rating(awayTeam)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, awayTeam)
	}

	possession := awayTeam
	if s.rng.Intn(2) == 0 {
		possession = homeTeam
	}

	s.state = GameState{
		HomeTeam:      homeTeam,
		AwayTeam:      awayTeam,
		Quarter:       1,
		TimeRemaining: QuarterLength,
		Possession:    possession,
		FieldPosition: KickoffSpot,
		Down:          1,
		YardsToGo:     FirstDownYards,
		Momentum:      NeutralMomentum,
		Status:        StatusInProgress,
	}
	s.stats = Stats{}
	s.ratings = map[string]float64{homeTeam: homeRating, awayTeam: awayRating}
	s.plays = 0
	s.nextSpot = 0

	return nil
}

// Snapshot returns a copy of the current game state
func (s *Simulator) Snapshot() GameState {
	return s.state
}

// Stats returns a copy of the accumulated game stats
func (s *Simulator) Stats() Stats {
	return s.stats
}

// Status reports where the game is in its lifecycle
func (s *Simulator) Status() Status {
	return s.state.Status
}

// outcome is the resolved result of a play before the state update
type outcome struct {
	playType    PlayType
	description string
	yards       int
	momentum    float64
	scoring     *ScoringEvent
	turnover    Turnover

	// advance applies yardage to the down-and-distance chain
	advance bool
}

// SimulatePlay advances the game by exactly one play
func (s *Simulator) SimulatePlay() (PlayResult, error) {
	switch s.state.Status {
	case StatusNotStarted:
		return PlayResult{}, ErrGameNotStarted
	case StatusGameOver:
		return PlayResult{}, ErrGameOver
	}

	if s.state.DriveOver {
		s.startNextDrive()
	}

	s.plays++
	offense := s.state.Possession
	situation := s.situation()

	out := s.resolvePlay()

	s.state.Momentum = clamp(s.state.Momentum+out.momentum, 0, 1)

	if out.advance {
		s.advance(&out)
	}

	s.runClock()

	return PlayResult{
		Number:      s.plays,
		Type:        out.playType,
		Offense:     offense,
		Situation:   situation,
		Description: out.description,
		Yards:       out.yards,
		Scoring:     out.scoring,
		Turnover:    out.turnover,
		Stats:       s.stats,
		State:       s.state,
	}, nil
}

// resolvePlay walks the weighted decision tree: run, pass, then special teams
func (s *Simulator) resolvePlay() outcome {
	r := s.rng.Float64()
	runThreshold := s.adjustedProbability(0.4)
	passThreshold := s.adjustedProbability(0.9)

	switch {
	case r < runThreshold:
		return s.runPlay()
	case r < passThreshold:
		return s.passPlay()
	case s.state.Down == 4 && s.state.FieldPosition > fieldGoalRange:
		return s.fieldGoal()
	case s.state.Down == 4:
		return s.punt()
	default:
		return outcome{
			playType:    PlayNoGain,
			description: "No gain on the play",
			advance:     true,
		}
	}
}

func (s *Simulator) runPlay() outcome {
	out := outcome{playType: PlayRun, advance: true}

	if s.rng.Float64() < s.adjustedProbability(0.6) {
		out.yards = uniformInt(s.rng, 2, 9)
		out.momentum = 0.05
	} else {
		out.yards = uniformInt(s.rng, -1, 0)
		out.momentum = -0.05
	}

	// no safeties: a loss can't push the ball behind the goal line
	if s.state.FieldPosition+out.yards < 0 {
		out.yards = -s.state.FieldPosition
	}

	s.stats.RushingYards += out.yards
	s.stats.TotalYards += out.yards

	switch {
	case out.yards == 0:
		out.description = "Run for no gain"
	default:
		out.description = fmt.Sprintf("Run for %s", yardsText(out.yards))
	}
	return out
}

func (s *Simulator) passPlay() outcome {
	if s.rng.Float64() < s.adjustedProbability(0.65) {
		yards := uniformInt(s.rng, 5, 24)
		s.stats.PassingYards += yards
		s.stats.TotalYards += yards

		desc := fmt.Sprintf("Pass complete for %s", yardsText(yards))
		if yards >= 20 {
			desc = "Deep pass complete for " + yardsText(yards)
		}
		return outcome{
			playType:    PlayPass,
			description: desc,
			yards:       yards,
			momentum:    0.1,
			advance:     true,
		}
	}

	if s.rng.Float64() < s.adjustedProbability(0.1) {
		defense := s.state.Defending()
		s.stats.Interceptions++
		s.changePossession(fieldLength - s.state.FieldPosition)
		return outcome{
			playType:    PlayPass,
			description: fmt.Sprintf("Pass INTERCEPTED by %s!", defense),
			momentum:    -0.2,
			turnover:    TurnoverInterception,
		}
	}

	return outcome{
		playType:    PlayPass,
		description: "Incomplete pass",
		momentum:    -0.05,
		advance:     true,
	}
}

// fieldGoal ends the drive either way; the ball changes hands on the next
// play so the kicking team keeps the momentum it earned on the kick.
func (s *Simulator) fieldGoal() outcome {
	distance := fieldLength - s.state.FieldPosition + kickDepth
	s.stats.FieldGoals.Attempted++

	s.state.DriveOver = true

	if s.rng.Float64() < s.adjustedProbability(1-float64(distance)/100) {
		s.stats.FieldGoals.Made++
		scoring := s.score(s.state.Possession, FieldGoalPoints, "field_goal")
		s.nextSpot = KickoffSpot
		return outcome{
			playType:    PlayFieldGoal,
			description: fmt.Sprintf("%d yard field goal is GOOD!", distance),
			momentum:    0.15,
			scoring:     scoring,
		}
	}

	s.nextSpot = fieldLength - s.state.FieldPosition
	return outcome{
		playType:    PlayFieldGoal,
		description: fmt.Sprintf("%d yard field goal is NO GOOD", distance),
		momentum:    -0.1,
		turnover:    TurnoverMissedFG,
	}
}

func (s *Simulator) punt() outcome {
	distance := uniformInt(s.rng, 30, 49)
	returned := uniformInt(s.rng, 0, 14)
	s.stats.Punts++

	landing := s.state.FieldPosition + distance
	if landing >= fieldLength {
		s.changePossession(KickoffSpot)
		return outcome{
			playType:    PlayPunt,
			description: fmt.Sprintf("Punt for %d yards, touchback", distance),
			yards:       -distance,
			turnover:    TurnoverPunt,
		}
	}

	s.stats.ReturnYards += returned
	s.changePossession(fieldLength - landing + returned)

	desc := fmt.Sprintf("Punt for %d yards", distance)
	if returned > 0 {
		desc += fmt.Sprintf(", returned for %s", yardsText(returned))
	}
	return outcome{
		playType:    PlayPunt,
		description: desc,
		yards:       returned - distance,
		turnover:    TurnoverPunt,
	}
}

// advance applies a gain to the ball and the chain: touchdown, first down,
// next down, or turnover on downs.
func (s *Simulator) advance(out *outcome) {
	s.state.FieldPosition += out.yards

	if s.state.FieldPosition >= fieldLength {
		scorer := s.state.Possession
		out.scoring = s.score(scorer, TouchdownPoints, "touchdown")
		out.description += fmt.Sprintf(" TOUCHDOWN %s!", scorer)
		s.changePossession(KickoffSpot)
		return
	}

	if out.yards >= s.state.YardsToGo {
		s.state.Down = 1
		s.state.YardsToGo = FirstDownYards
		return
	}

	s.state.Down++
	s.state.YardsToGo -= out.yards

	if s.state.Down > 4 {
		s.changePossession(fieldLength - s.state.FieldPosition)
		out.turnover = TurnoverDowns
		out.description += ", turnover on downs"
	}
}

// runClock burns play time and rolls the quarter over when it expires
func (s *Simulator) runClock() {
	s.state.TimeRemaining -= uniformInt(s.rng, 25, 44)
	if s.state.TimeRemaining > 0 {
		return
	}

	if s.state.Quarter < Quarters {
		s.state.Quarter++
		s.state.TimeRemaining = QuarterLength
		return
	}

	s.state.TimeRemaining = 0
	s.state.Status = StatusGameOver
	switch {
	case s.state.HomeScore > s.state.AwayScore:
		s.state.Winner = s.state.HomeTeam
	case s.state.AwayScore > s.state.HomeScore:
		s.state.Winner = s.state.AwayTeam
	}
}

// adjustedProbability biases a base probability by noise, the offense's
// rating and the current momentum.
func (s *Simulator) adjustedProbability(base float64) float64 {
	noise := (s.rng.Float64()*2 - 1) * probabilityNoise
	rating := s.ratings[s.state.Possession]
	return clamp(base+noise+(rating-ratingBaseline)+(s.state.Momentum-NeutralMomentum), 0, 1)
}

// changePossession hands the ball to the other team at spot, 1st and 10.
// The spot stays short of the goal line so a touchdown always needs a gain.
func (s *Simulator) changePossession(spot int) {
	s.state.Possession = s.state.Defending()
	s.state.FieldPosition = min(max(spot, 0), fieldLength-1)
	s.state.Down = 1
	s.state.YardsToGo = FirstDownYards
	s.state.Momentum = NeutralMomentum
	s.state.DriveOver = false
}

func (s *Simulator) startNextDrive() {
	s.changePossession(s.nextSpot)
	s.nextSpot = 0
}

func (s *Simulator) score(team string, points int, kind string) *ScoringEvent {
	q := &s.state.QuarterScores[s.state.Quarter-1]
	if team == s.state.HomeTeam {
		s.state.HomeScore += points
		q.Home += points
	} else {
		s.state.AwayScore += points
		q.Away += points
	}
	return &ScoringEvent{Team: team, Points: points, Kind: kind}
}

func (s *Simulator) situation() Situation {
	st := s.state
	switch {
	case (st.Quarter == 2 || st.Quarter == Quarters) && st.TimeRemaining <= twoMinuteWarning:
		return SituationTwoMinute
	case st.FieldPosition >= 80:
		return SituationRedZone
	case st.Down == 4:
		return SituationFourthDown
	case st.Down == 3:
		return SituationThirdDown
	default:
		return SituationNormal
	}
}

func yardsText(yards int) string {
	if yards == 1 || yards == -1 {
		return fmt.Sprintf("%d yard", yards)
	}
	return fmt.Sprintf("%d yards", yards)
}
