package entity

import "time"

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusEnded    Status = "ended"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusLive, StatusEnded:
		return true
	}
	return false
}

// Event is the singleton competition configuration stored under ctf_event.
// Start and End are descriptive; only Status gates challenge access.
type Event struct {
	Status    Status    `json:"status"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Title     string    `json:"title"`
}

// Patch carries a partial update; nil fields keep their current value.
type Patch struct {
	Status    *Status    `json:"status,omitempty"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Title     *string    `json:"title,omitempty"`
}

// Apply returns ev with the non-nil fields of p copied over.
func (p Patch) Apply(ev Event) Event {
	if p.Status != nil {
		ev.Status = *p.Status
	}
	if p.StartTime != nil {
		ev.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		ev.EndTime = *p.EndTime
	}
	if p.Title != nil {
		ev.Title = *p.Title
	}
	return ev
}
