package entity

import (
	"slices"
	"time"
)

type Role string

const (
	RoleParticipant Role = "participant"
	RoleAdmin       Role = "admin"
)

// User is a competitor or administrator account as persisted under ctf_users.
// Score always equals the sum of points over Solves; Solves holds no duplicates.
type User struct {
	ID           string    `json:"id"`
	Alias        string    `json:"alias"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	PasswordAlgo string    `json:"passwordAlgo,omitempty"`
	Role         Role      `json:"role"`
	Score        int       `json:"score"`
	Solves       []string  `json:"solves"`
	Badges       []string  `json:"badges"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasSolved reports whether challengeID is already credited to the user.
func (u *User) HasSolved(challengeID string) bool {
	return slices.Contains(u.Solves, challengeID)
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Profile is the projection handed to clients; it never carries credentials.
type Profile struct {
	ID        string    `json:"id"`
	Alias     string    `json:"alias"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Score     int       `json:"score"`
	Solves    []string  `json:"solves"`
	Badges    []string  `json:"badges"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Alias:     u.Alias,
		Email:     u.Email,
		Role:      u.Role,
		Score:     u.Score,
		Solves:    u.Solves,
		Badges:    u.Badges,
		CreatedAt: u.CreatedAt,
	}
}
