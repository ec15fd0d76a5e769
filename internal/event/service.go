package event

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
)

// sentinel errors for rejected updates
var (
	ErrInvalidStatus = errors.New("invalid event status")
	ErrInvalidWindow = errors.New("event ends before it starts")
)

// IsLocked reports whether challenges are hidden. Only an upcoming event locks;
// an ended event stays open.
func IsLocked(ev entity.Event) bool {
	return ev.Status == entity.StatusUpcoming
}

// Remaining is the time left until the event starts.
type Remaining struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Started bool `json:"started"`
}

// Countdown splits the time from now until ev starts; once reached every field is zero.
func Countdown(ev entity.Event, now time.Time) Remaining {
	left := ev.StartTime.Sub(now)
	if left <= 0 {
		return Remaining{Started: true}
	}
	secs := int(left / time.Second)
	return Remaining{
		Days:    secs / 86400,
		Hours:   secs % 86400 / 3600,
		Minutes: secs % 3600 / 60,
		Seconds: secs % 60,
	}
}

// Service reads and updates the singleton event configuration.
type Service struct {
	store  *store.Store
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(st *store.Store, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: st, logger: logger, now: time.Now}
}

func (s *Service) Get(ctx context.Context) entity.Event {
	return s.store.Event(ctx)
}

func (s *Service) Locked(ctx context.Context) bool {
	return IsLocked(s.Get(ctx))
}

func (s *Service) Countdown(ctx context.Context) Remaining {
	return Countdown(s.Get(ctx), s.now())
}

// Update applies a partial patch under the store's compare-and-set.
func (s *Service) Update(ctx context.Context, p entity.Patch) (entity.Event, error) {
	if p.Status != nil && !p.Status.Valid() {
		return entity.Event{}, ErrInvalidStatus
	}
	var before entity.Status
	ev, err := s.store.MutateEvent(ctx, func(cur entity.Event) (entity.Event, error) {
		before = cur.Status
		next := p.Apply(cur)
		if next.EndTime.Before(next.StartTime) {
			return entity.Event{}, ErrInvalidWindow
		}
		next.StartTime = next.StartTime.UTC()
		next.EndTime = next.EndTime.UTC()
		return next, nil
	})
	if err != nil {
		return entity.Event{}, err
	}
	if before != ev.Status {
		s.logger.Infow("event status changed", "from", before, "to", ev.Status)
	}
	return ev, nil
}
