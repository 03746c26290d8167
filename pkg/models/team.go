package models

// Team is a registry entry for a simulated team
type Team struct {
	Abbreviation string  `json:"abbreviation"`
	Name         string  `json:"name"`
	Rating       float64 `json:"rating"` // strength in [0,1]
}
