package entity

import "time"

// Submission is an immutable audit record of one flag attempt.
type Submission struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ChallengeID string    `json:"challengeId"`
	Flag        string    `json:"flag"`
	Correct     bool      `json:"correct"`
	Timestamp   time.Time `json:"timestamp"`
}

// Outcome classifies a submission for metrics and the HTTP response.
type Outcome string

const (
	OutcomeCorrect          Outcome = "correct"
	OutcomeIncorrect        Outcome = "incorrect"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeUnknownChallenge Outcome = "unknown_challenge"
)

// Result is returned by the scoring engine.
type Result struct {
	Correct  bool    `json:"correct"`
	Credited bool    `json:"credited"`
	Outcome  Outcome `json:"outcome"`
	Points   int     `json:"points,omitempty"`
	Score    int     `json:"score,omitempty"`
}

// Solve announces a first correct submission of a challenge by a user.
type Solve struct {
	UserID         string    `json:"userId"`
	Alias          string    `json:"alias"`
	ChallengeID    string    `json:"challengeId"`
	ChallengeTitle string    `json:"challengeTitle"`
	Points         int       `json:"points"`
	Score          int       `json:"score"`
	Timestamp      time.Time `json:"timestamp"`
}

// Filter narrows a submission listing; empty fields match everything.
type Filter struct {
	UserID      string
	ChallengeID string
}

func (f Filter) Match(s Submission) bool {
	return (f.UserID == "" || s.UserID == f.UserID) &&
		(f.ChallengeID == "" || s.ChallengeID == f.ChallengeID)
}
