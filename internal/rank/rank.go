// Package rank maps a cumulative score to a display tier.
package rank

// Tier is one score band. Accent is the display attribute the front end styles the label with.
type Tier struct {
	Name     string `json:"name"`
	MinScore int    `json:"minScore"`
	Accent   string `json:"accent"`
}

// Tiers is ordered by ascending threshold; the first entry is the zero floor.
var Tiers = []Tier{
	{Name: "Script Kiddie", MinScore: 0, Accent: "muted-foreground"},
	{Name: "Operator", MinScore: 200, Accent: "terminal-amber"},
	{Name: "Exploit Architect", MinScore: 500, Accent: "primary"},
	{Name: "Root", MinScore: 1000, Accent: "terminal-green"},
}

// For returns the highest tier whose threshold does not exceed score.
func For(score int) Tier {
	for i := len(Tiers) - 1; i >= 0; i-- {
		if score >= Tiers[i].MinScore {
			return Tiers[i]
		}
	}
	return Tiers[0]
}
