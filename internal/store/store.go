package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	challengeentity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/challenge/entity"
	evententity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/metrics"
	scoringentity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/scoring/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store/repo"
	userentity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/user/entity"
)

// Fixed keys of the persisted layout.
const (
	KeyUsers       = "ctf_users"
	KeyChallenges  = "ctf_challenges"
	KeySubmissions = "ctf_submissions"
	KeyEvent       = "ctf_event"
	KeyCurrentUser = "ctf_current_user"
)

// MaxRetries bounds compare-and-set attempts per write.
const MaxRetries = 8

// ErrNoChange may be returned from a mutate callback to skip the write.
var ErrNoChange = errors.New("no change")

// Repo is the versioned key-value backend. See package repo for implementations.
type Repo interface {
	Get(ctx context.Context, key string) ([]byte, int64, error)
	Put(ctx context.Context, key string, value []byte, expected int64) (int64, error)
	Delete(ctx context.Context, key string) error
}

// Store owns every collection and session slot. Reads never fail: absent or
// corrupt data decodes to the default. Writes replace the full value under a
// compare-and-set on the key's version.
type Store struct {
	repo   Repo
	logger *zap.SugaredLogger
	// fallback for an absent or invalid ctf_event, fixed at construction
	defaultEv evententity.Event
}

func New(r Repo, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{repo: r, logger: logger, defaultEv: DefaultEvent(time.Now())}
}

// SlotKey returns the session slot key for a client session id; "" is the default client.
func SlotKey(sid string) string {
	if sid == "" {
		return KeyCurrentUser
	}
	return KeyCurrentUser + ":" + sid
}

func metricKey(key string) string {
	if strings.HasPrefix(key, KeyCurrentUser) {
		return KeyCurrentUser
	}
	return key
}

// read decodes key into dst. ok is false when the key is absent, unreadable or corrupt;
// version is still reported for corrupt values so a writer can replace them.
func (s *Store) read(ctx context.Context, key string, dst any) (version int64, ok bool) {
	defer metrics.RecordStoreOperation("get", metricKey(key), time.Now())
	raw, version, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.logger.Warnw("store read failed, using default", "key", key, "err", err)
		}
		return 0, false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warnw("corrupt store value, using default", "key", key, "err", err)
		return version, false
	}
	return version, true
}

func load[T any](ctx context.Context, s *Store, key string, fallback func() T) T {
	var v T
	if _, ok := s.read(ctx, key, &v); !ok {
		return fallback()
	}
	return v
}

// mutate runs fn against the current value and writes the result with compare-and-set,
// re-reading and calling fn again on conflict. fn must not leak state between calls.
func mutate[T any](ctx context.Context, s *Store, key string, fallback func() T, fn func(T) (T, error)) (T, error) {
	var zero T
	for attempt := 0; attempt < MaxRetries; attempt++ {
		var cur T
		version, ok := s.read(ctx, key, &cur)
		if !ok {
			cur = fallback()
		}
		next, err := fn(cur)
		if errors.Is(err, ErrNoChange) {
			return cur, nil
		}
		if err != nil {
			return zero, err
		}
		b, err := json.Marshal(next)
		if err != nil {
			return zero, fmt.Errorf("encode %s: %w", key, err)
		}
		start := time.Now()
		_, err = s.repo.Put(ctx, key, b, version)
		metrics.RecordStoreOperation("put", metricKey(key), start)
		if errors.Is(err, repo.ErrVersionConflict) {
			metrics.StoreConflicts.WithLabelValues(metricKey(key)).Inc()
			s.logger.Debugw("store write conflict, retrying", "key", key, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return zero, fmt.Errorf("write %s: %w", key, err)
		}
		return next, nil
	}
	return zero, fmt.Errorf("write %s: %w", key, repo.ErrVersionConflict)
}

func noUsers() []userentity.User                { return []userentity.User{} }
func noChallenges() []challengeentity.Challenge { return []challengeentity.Challenge{} }
func noSubmissions() []scoringentity.Submission { return []scoringentity.Submission{} }

// Users returns the user collection in insertion order.
func (s *Store) Users(ctx context.Context) []userentity.User {
	return load(ctx, s, KeyUsers, noUsers)
}

// User returns the stored record for id, or nil.
func (s *Store) User(ctx context.Context, id string) *userentity.User {
	for _, u := range s.Users(ctx) {
		if u.ID == id {
			return &u
		}
	}
	return nil
}

func (s *Store) SetUsers(ctx context.Context, users []userentity.User) error {
	_, err := s.MutateUsers(ctx, func([]userentity.User) ([]userentity.User, error) { return users, nil })
	return err
}

func (s *Store) MutateUsers(ctx context.Context, fn func([]userentity.User) ([]userentity.User, error)) ([]userentity.User, error) {
	return mutate(ctx, s, KeyUsers, noUsers, fn)
}

// Challenges returns the challenge collection in board order.
func (s *Store) Challenges(ctx context.Context) []challengeentity.Challenge {
	return load(ctx, s, KeyChallenges, noChallenges)
}

func (s *Store) SetChallenges(ctx context.Context, challenges []challengeentity.Challenge) error {
	_, err := s.MutateChallenges(ctx, func([]challengeentity.Challenge) ([]challengeentity.Challenge, error) {
		return challenges, nil
	})
	return err
}

func (s *Store) MutateChallenges(ctx context.Context, fn func([]challengeentity.Challenge) ([]challengeentity.Challenge, error)) ([]challengeentity.Challenge, error) {
	return mutate(ctx, s, KeyChallenges, noChallenges, fn)
}

// Submissions returns the append-only audit log, oldest first.
func (s *Store) Submissions(ctx context.Context) []scoringentity.Submission {
	return load(ctx, s, KeySubmissions, noSubmissions)
}

func (s *Store) AppendSubmission(ctx context.Context, sub scoringentity.Submission) error {
	_, err := mutate(ctx, s, KeySubmissions, noSubmissions, func(cur []scoringentity.Submission) ([]scoringentity.Submission, error) {
		return append(cur, sub), nil
	})
	return err
}

// Event returns the event configuration or the default upcoming event.
// A stored event without a valid status (e.g. JSON null) counts as corrupt.
func (s *Store) Event(ctx context.Context) evententity.Event {
	return s.validEvent(load(ctx, s, KeyEvent, s.defaultEvent))
}

func (s *Store) SetEvent(ctx context.Context, ev evententity.Event) error {
	_, err := s.MutateEvent(ctx, func(evententity.Event) (evententity.Event, error) { return ev, nil })
	return err
}

func (s *Store) MutateEvent(ctx context.Context, fn func(evententity.Event) (evententity.Event, error)) (evententity.Event, error) {
	return mutate(ctx, s, KeyEvent, s.defaultEvent, func(cur evententity.Event) (evententity.Event, error) {
		return fn(s.validEvent(cur))
	})
}

func (s *Store) defaultEvent() evententity.Event { return s.defaultEv }

func (s *Store) validEvent(ev evententity.Event) evententity.Event {
	if !ev.Status.Valid() {
		s.logger.Warnw("invalid event status, using default", "status", ev.Status)
		return s.defaultEv
	}
	return ev
}

// CurrentUser returns the user held by a session slot, or nil.
func (s *Store) CurrentUser(ctx context.Context, slot string) *userentity.User {
	var u *userentity.User
	if _, ok := s.read(ctx, slot, &u); !ok {
		return nil
	}
	return u
}

// SetCurrentUser stores u in the slot; nil clears it.
func (s *Store) SetCurrentUser(ctx context.Context, slot string, u *userentity.User) error {
	if u == nil {
		defer metrics.RecordStoreOperation("delete", metricKey(slot), time.Now())
		if err := s.repo.Delete(ctx, slot); err != nil {
			return fmt.Errorf("clear %s: %w", slot, err)
		}
		return nil
	}
	snapshot := *u
	_, err := mutate(ctx, s, slot, func() *userentity.User { return nil }, func(*userentity.User) (*userentity.User, error) {
		return &snapshot, nil
	})
	return err
}
