package american_football_nfl

import (
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/simulator"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
)

// SportKey identifies the NFL module in the registry, streams and cache keys
const SportKey = "american_football_nfl"

// NFLModule implements SportModule for simulated NFL football
type NFLModule struct {
	enabled      bool
	playInterval time.Duration
}

// New creates a new NFL sport module
func New() *NFLModule {
	return &NFLModule{enabled: true, playInterval: 2 * time.Second}
}

func (m *NFLModule) GetSportKey() string {
	return SportKey
}

func (m *NFLModule) GetDisplayName() string {
	return "NFL"
}

func (m *NFLModule) GetSimulationConfig() contracts.SimulationConfig {
	return contracts.SimulationConfig{
		PlayInterval: m.playInterval,
		Periods:      simulator.Quarters,
		PeriodLength: simulator.QuarterLength * time.Second,
		Enabled:      m.enabled,
	}
}

func (m *NFLModule) IsEnabled() bool {
	return m.enabled
}

// SetEnabled toggles the module's feature flag
func (m *NFLModule) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// Team looks up a team by abbreviation, case-insensitively
func (m *NFLModule) Team(abbr string) (models.Team, bool) {
	team, ok := nflTeamsByAbbr[strings.ToUpper(strings.TrimSpace(abbr))]
	return team, ok
}

// Teams returns every team ordered by club name
func (m *NFLModule) Teams() []models.Team {
	teams := make([]models.Team, len(nflTeams))
	copy(teams, nflTeams)
	return teams
}

// Rating implements simulator.TeamRatings
func (m *NFLModule) Rating(team string) (float64, bool) {
	t, ok := nflTeamsByAbbr[team]
	if !ok {
		return 0, false
	}
	return t.Rating, true
}

// NormalizeTeam accepts "GB", "gb", "Green Bay Packers" or "Packers" and
// returns "GB". Unrecognized input is returned uppercased so that lookups
// fail on it.
func (m *NFLModule) NormalizeTeam(name string) string {
	name = strings.TrimSpace(name)
	if abbr, ok := nflNameToAbbr[strings.ToLower(name)]; ok {
		return abbr
	}
	return strings.ToUpper(name)
}
