package contracts

import (
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
)

// SportModule is the pluggable interface for adding simulated sports
type SportModule interface {
	// Identification
	GetSportKey() string    // "american_football_nfl"
	GetDisplayName() string // "NFL"

	// Configuration
	GetSimulationConfig() SimulationConfig
	IsEnabled() bool

	// Team registry
	Team(abbr string) (models.Team, bool)
	Teams() []models.Team
	Rating(team string) (float64, bool)

	// NormalizeTeam maps a full name, nickname or abbreviation to the
	// registry abbreviation
	NormalizeTeam(name string) string
}

// SimulationConfig defines sport-specific game pacing
type SimulationConfig struct {
	PlayInterval time.Duration // wall time between plays of a live game
	Periods      int           // 4 quarters
	PeriodLength time.Duration // 15 minutes of game clock
	Enabled      bool          // Feature flag per sport
}
