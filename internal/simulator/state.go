package simulator

// Status is the lifecycle stage of a simulated game
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusGameOver   Status = "game_over"
)

// PlayType categorizes a resolved play
type PlayType string

const (
	PlayRun       PlayType = "run"
	PlayPass      PlayType = "pass"
	PlayFieldGoal PlayType = "field_goal"
	PlayPunt      PlayType = "punt"
	PlayNoGain    PlayType = "no_gain"
)

// Turnover names how possession changed hands on a play, if it did
type Turnover string

const (
	TurnoverNone         Turnover = ""
	TurnoverInterception Turnover = "interception"
	TurnoverDowns        Turnover = "downs"
	TurnoverPunt         Turnover = "punt"
	TurnoverMissedFG     Turnover = "missed_field_goal"
)

// Situation labels the down-and-distance context a play started in.
// Purely descriptive.
type Situation string

const (
	SituationNormal     Situation = "normal"
	SituationRedZone    Situation = "redzone"
	SituationThirdDown  Situation = "thirddown"
	SituationFourthDown Situation = "fourthdown"
	SituationTwoMinute  Situation = "twominute"
)

// QuarterScore is the points each side scored in one quarter
type QuarterScore struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// GameState is the full mutable record of one game.
// Field position is measured from the possessing team's own goal line.
type GameState struct {
	HomeTeam      string                 `json:"home_team"`
	AwayTeam      string                 `json:"away_team"`
	Quarter       int                    `json:"quarter"`
	TimeRemaining int                    `json:"time_remaining"` // seconds left in the quarter
	HomeScore     int                    `json:"home_score"`
	AwayScore     int                    `json:"away_score"`
	Possession    string                 `json:"possession"`
	FieldPosition int                    `json:"field_position"`
	Down          int                    `json:"down"`
	YardsToGo     int                    `json:"yards_to_go"`
	Momentum      float64                `json:"momentum"`
	QuarterScores [Quarters]QuarterScore `json:"quarter_scores"`
	DriveOver     bool                   `json:"drive_over"` // possession changes before the next snap
	Status        Status                 `json:"status"`
	Winner        string                 `json:"winner,omitempty"`
}

// Defending returns the team not in possession
func (g GameState) Defending() string {
	if g.Possession == g.HomeTeam {
		return g.AwayTeam
	}
	return g.HomeTeam
}

// FieldGoalStats tracks kicking accuracy
type FieldGoalStats struct {
	Made      int `json:"made"`
	Attempted int `json:"attempted"`
}

// Stats are per-game accumulators. The simulation never reads them.
type Stats struct {
	TotalYards    int            `json:"total_yards"`
	PassingYards  int            `json:"passing_yards"`
	RushingYards  int            `json:"rushing_yards"`
	Sacks         int            `json:"sacks"`
	Interceptions int            `json:"interceptions"`
	Fumbles       int            `json:"fumbles"`
	FieldGoals    FieldGoalStats `json:"field_goals"`
	Punts         int            `json:"punts"`
	ReturnYards   int            `json:"return_yards"`
}

// ScoringEvent is attached to a play that put points on the board
type ScoringEvent struct {
	Team   string `json:"team"`
	Points int    `json:"points"`
	Kind   string `json:"kind"` // "touchdown", "field_goal"
}

// PlayResult summarizes one simulated play for presentation layers
type PlayResult struct {
	Number      int           `json:"number"`
	Type        PlayType      `json:"type"`
	Offense     string        `json:"offense"`
	Situation   Situation     `json:"situation"`
	Description string        `json:"description"`
	Yards       int           `json:"yards"`
	Scoring     *ScoringEvent `json:"scoring,omitempty"`
	Turnover    Turnover      `json:"turnover,omitempty"`
	Stats       Stats         `json:"stats"`
	State       GameState     `json:"state"`
}
