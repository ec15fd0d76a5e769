package scoring

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	challengeentity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/challenge/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/scoring/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/session"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
	userentity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/pkg/utilities"
)

// Notifier receives first solves.
type Notifier interface {
	Publish(entity.Solve)
}

// Service judges flag submissions and credits first solves.
type Service struct {
	mu       sync.Mutex
	store    *store.Store
	notifier Notifier
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewService(st *store.Store, notifier Notifier, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: st, notifier: notifier, logger: logger, now: time.Now}
}

// flagMatches compares the trimmed attempt with the canonical flag, case-sensitively.
func flagMatches(attempt, flag string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(attempt)), []byte(flag)) == 1
}

// SubmitFlag judges text against the challenge flag and records the attempt.
//
// An unknown challenge yields a negative verdict and records nothing. Every other
// attempt is appended to the audit log with its raw text. A correct attempt credits
// the user at most once: the solved check and the credit are one compare-and-set on
// the user collection, and only the writer that credited bumps the solve count.
// sess is refreshed when it holds userID; it may be nil.
func (s *Service) SubmitFlag(ctx context.Context, sess *session.Session, userID, challengeID, text string) (entity.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.findChallenge(ctx, challengeID)
	if ch == nil {
		metrics.FlagSubmissions.WithLabelValues(string(entity.OutcomeUnknownChallenge)).Inc()
		s.logger.Debugw("submission for unknown challenge", "user", userID, "challenge", challengeID)
		return entity.Result{Outcome: entity.OutcomeUnknownChallenge}, nil
	}

	now := s.now().UTC()
	correct := flagMatches(text, ch.Flag)
	if err := s.store.AppendSubmission(ctx, entity.Submission{
		ID:          utilities.NewKSUID(),
		UserID:      userID,
		ChallengeID: ch.ID,
		Flag:        text,
		Correct:     correct,
		Timestamp:   now,
	}); err != nil {
		return entity.Result{}, fmt.Errorf("record submission: %w", err)
	}

	if !correct {
		metrics.FlagSubmissions.WithLabelValues(string(entity.OutcomeIncorrect)).Inc()
		return entity.Result{Outcome: entity.OutcomeIncorrect}, nil
	}

	var (
		credited bool
		found    bool
		user     userentity.User
	)
	_, err := s.store.MutateUsers(ctx, func(cur []userentity.User) ([]userentity.User, error) {
		credited, found = false, false
		for i := range cur {
			if cur[i].ID != userID {
				continue
			}
			found = true
			if cur[i].HasSolved(ch.ID) {
				user = cur[i]
				return nil, store.ErrNoChange
			}
			cur[i].Solves = append(cur[i].Solves, ch.ID)
			cur[i].Score += ch.Points
			user = cur[i]
			credited = true
			return cur, nil
		}
		return nil, store.ErrNoChange
	})
	if err != nil {
		return entity.Result{}, fmt.Errorf("credit solve: %w", err)
	}

	if !found {
		metrics.FlagSubmissions.WithLabelValues(string(entity.OutcomeCorrect)).Inc()
		s.logger.Warnw("correct flag from unknown user", "user", userID, "challenge", ch.ID)
		return entity.Result{Correct: true, Outcome: entity.OutcomeCorrect}, nil
	}
	if !credited {
		metrics.FlagSubmissions.WithLabelValues(string(entity.OutcomeDuplicate)).Inc()
		return entity.Result{Correct: true, Outcome: entity.OutcomeDuplicate, Score: user.Score}, nil
	}

	if err := s.bumpSolveCount(ctx, ch.ID); err != nil {
		// the credit is already persisted; Reconcile repairs the counter
		s.logger.Warnw("solve count not updated", "challenge", ch.ID, "err", err)
	}
	if sess != nil {
		if err := sess.Refresh(ctx, user); err != nil {
			s.logger.Warnw("session refresh failed", "sid", sess.ID(), "err", err)
		}
	}

	metrics.FlagSubmissions.WithLabelValues(string(entity.OutcomeCorrect)).Inc()
	s.logger.Infow("challenge solved", "user", user.ID, "challenge", ch.ID, "points", ch.Points, "score", user.Score)
	if s.notifier != nil {
		s.notifier.Publish(entity.Solve{
			UserID:         user.ID,
			Alias:          user.Alias,
			ChallengeID:    ch.ID,
			ChallengeTitle: ch.Title,
			Points:         ch.Points,
			Score:          user.Score,
			Timestamp:      now,
		})
	}
	return entity.Result{Correct: true, Credited: true, Outcome: entity.OutcomeCorrect, Points: ch.Points, Score: user.Score}, nil
}

func (s *Service) findChallenge(ctx context.Context, id string) *challengeentity.Challenge {
	for _, c := range s.store.Challenges(ctx) {
		if c.ID == id {
			return &c
		}
	}
	return nil
}

func (s *Service) bumpSolveCount(ctx context.Context, id string) error {
	_, err := s.store.MutateChallenges(ctx, func(cur []challengeentity.Challenge) ([]challengeentity.Challenge, error) {
		for i := range cur {
			if cur[i].ID == id {
				cur[i].SolveCount++
				return cur, nil
			}
		}
		return nil, store.ErrNoChange
	})
	return err
}

// Submissions lists the audit log entries matching f, oldest first.
func (s *Service) Submissions(ctx context.Context, f entity.Filter) []entity.Submission {
	all := s.store.Submissions(ctx)
	out := make([]entity.Submission, 0, len(all))
	for _, sub := range all {
		if f.Match(sub) {
			out = append(out, sub)
		}
	}
	return out
}
