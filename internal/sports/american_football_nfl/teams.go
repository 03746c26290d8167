package american_football_nfl

import (
	"strings"

	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
)

// nflTeams lists the 32 clubs with their simulation strength ratings
var nflTeams = []models.Team{
	{Abbreviation: "ARI", Name: "Arizona Cardinals", Rating: 0.82},
	{Abbreviation: "ATL", Name: "Atlanta Falcons", Rating: 0.81},
	{Abbreviation: "BAL", Name: "Baltimore Ravens", Rating: 0.88},
	{Abbreviation: "BUF", Name: "Buffalo Bills", Rating: 0.89},
	{Abbreviation: "CAR", Name: "Carolina Panthers", Rating: 0.80},
	{Abbreviation: "CHI", Name: "Chicago Bears", Rating: 0.83},
	{Abbreviation: "CIN", Name: "Cincinnati Bengals", Rating: 0.85},
	{Abbreviation: "CLE", Name: "Cleveland Browns", Rating: 0.82},
	{Abbreviation: "DAL", Name: "Dallas Cowboys", Rating: 0.87},
	{Abbreviation: "DEN", Name: "Denver Broncos", Rating: 0.81},
	{Abbreviation: "DET", Name: "Detroit Lions", Rating: 0.84},
	{Abbreviation: "GB", Name: "Green Bay Packers", Rating: 0.89},
	{Abbreviation: "HOU", Name: "Houston Texans", Rating: 0.80},
	{Abbreviation: "IND", Name: "Indianapolis Colts", Rating: 0.83},
	{Abbreviation: "JAX", Name: "Jacksonville Jaguars", Rating: 0.82},
	{Abbreviation: "KC", Name: "Kansas City Chiefs", Rating: 0.91},
	{Abbreviation: "LV", Name: "Las Vegas Raiders", Rating: 0.84},
	{Abbreviation: "LAC", Name: "Los Angeles Chargers", Rating: 0.86},
	{Abbreviation: "LAR", Name: "Los Angeles Rams", Rating: 0.85},
	{Abbreviation: "MIA", Name: "Miami Dolphins", Rating: 0.86},
	{Abbreviation: "MIN", Name: "Minnesota Vikings", Rating: 0.85},
	{Abbreviation: "NE", Name: "New England Patriots", Rating: 0.86},
	{Abbreviation: "NO", Name: "New Orleans Saints", Rating: 0.85},
	{Abbreviation: "NYG", Name: "New York Giants", Rating: 0.83},
	{Abbreviation: "NYJ", Name: "New York Jets", Rating: 0.81},
	{Abbreviation: "PHI", Name: "Philadelphia Eagles", Rating: 0.88},
	{Abbreviation: "PIT", Name: "Pittsburgh Steelers", Rating: 0.87},
	{Abbreviation: "SF", Name: "San Francisco 49ers", Rating: 0.90},
	{Abbreviation: "SEA", Name: "Seattle Seahawks", Rating: 0.86},
	{Abbreviation: "TB", Name: "Tampa Bay Buccaneers", Rating: 0.84},
	{Abbreviation: "TEN", Name: "Tennessee Titans", Rating: 0.83},
	{Abbreviation: "WAS", Name: "Washington Commanders", Rating: 0.82},
}

// Lookup tables keyed by abbreviation and by lowercased name/nickname
var (
	nflTeamsByAbbr = map[string]models.Team{}
	nflNameToAbbr  = map[string]string{}
)

func init() {
	for _, team := range nflTeams {
		nflTeamsByAbbr[team.Abbreviation] = team
		nflNameToAbbr[strings.ToLower(team.Name)] = team.Abbreviation
		nflNameToAbbr[strings.ToLower(nickname(team.Name))] = team.Abbreviation
	}
}

// nickname is the last word of a club name ("Green Bay Packers" -> "Packers")
func nickname(fullName string) string {
	if i := strings.LastIndex(fullName, " "); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}

// GetTeamAbbreviation returns the abbreviation for a full team name
func GetTeamAbbreviation(fullName string) string {
	if abbr, ok := nflNameToAbbr[strings.ToLower(strings.TrimSpace(fullName))]; ok {
		return abbr
	}
	return fullName // Return original if not found
}

// GetTeamName returns the full name for an abbreviation
func GetTeamName(abbr string) string {
	if team, ok := nflTeamsByAbbr[strings.ToUpper(abbr)]; ok {
		return team.Name
	}
	return abbr // Return original if not found
}
