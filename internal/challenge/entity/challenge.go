package entity

type Category string

const (
	CategoryCryptography       Category = "cryptography"
	CategoryReverseEngineering Category = "reverse-engineering"
	CategoryOSINT              Category = "osint"
	CategorySteganography      Category = "steganography"
)

// Categories lists the fixed enumeration in display order.
var Categories = []Category{
	CategoryCryptography,
	CategoryReverseEngineering,
	CategoryOSINT,
	CategorySteganography,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryCryptography, CategoryReverseEngineering, CategoryOSINT, CategorySteganography:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyInsane Difficulty = "insane"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyInsane:
		return true
	}
	return false
}

// Challenge is one puzzle of the board. Flag is compared case-sensitively.
// SolveCount equals the number of distinct users that have the ID in their solves.
type Challenge struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	Points      int        `json:"points"`
	Flag        string     `json:"flag"`
	SolveCount  int        `json:"solveCount"`
	Enabled     bool       `json:"enabled"`
	Hints       []string   `json:"hints"`
}

// Public is the participant-facing view without the flag.
type Public struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	Points      int        `json:"points"`
	SolveCount  int        `json:"solveCount"`
	Hints       []string   `json:"hints"`
	Solved      bool       `json:"solved"`
}

func (c Challenge) Public() Public {
	return Public{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Difficulty:  c.Difficulty,
		Points:      c.Points,
		SolveCount:  c.SolveCount,
		Hints:       c.Hints,
	}
}

// NewChallenge is the admin input for a board addition.
type NewChallenge struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Category    Category   `json:"category" validate:"required"`
	Difficulty  Difficulty `json:"difficulty" validate:"required"`
	Points      int        `json:"points" validate:"gte=0"`
	Flag        string     `json:"flag" validate:"required"`
	Hints       []string   `json:"hints"`
}

// CategoryStats summarises one category of the board.
type CategoryStats struct {
	Category    Category `json:"category"`
	Count       int      `json:"count"`
	MinPoints   int      `json:"minPoints"`
	MaxPoints   int      `json:"maxPoints"`
	TotalPoints int      `json:"totalPoints"`
}
