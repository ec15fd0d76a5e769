// Package leaderboard orders participants, audits scores against the submission log
// and exports standings.
package leaderboard

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	challengeentity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/challenge/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/rank"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
	userentity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/user/entity"
)

// Entry is one row of the standings.
type Entry struct {
	Position int       `json:"position"`
	UserID   string    `json:"userId"`
	Alias    string    `json:"alias"`
	Score    int       `json:"score"`
	Solves   int       `json:"solves"`
	Rank     rank.Tier `json:"rank"`
}

type Service struct {
	store  *store.Store
	logger *zap.SugaredLogger
}

func NewService(st *store.Store, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: st, logger: logger}
}

// Standings ranks participants by score, then solve count, then alias.
// Entries with equal score and solve count share a position; positions are dense.
func (s *Service) Standings(ctx context.Context) []Entry {
	var out []Entry
	for _, u := range s.store.Users(ctx) {
		if u.IsAdmin() {
			continue
		}
		out = append(out, Entry{
			UserID: u.ID,
			Alias:  u.Alias,
			Score:  u.Score,
			Solves: len(u.Solves),
			Rank:   rank.For(u.Score),
		})
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		if a.Solves != b.Solves {
			return b.Solves - a.Solves
		}
		return strings.Compare(strings.ToLower(a.Alias), strings.ToLower(b.Alias))
	})
	pos := 0
	for i := range out {
		if i == 0 || out[i].Score != out[i-1].Score || out[i].Solves != out[i-1].Solves {
			pos++
		}
		out[i].Position = pos
	}
	if out == nil {
		out = []Entry{}
	}
	return out
}

// Reconcile rebuilds every user's solves and score and every challenge's solve count
// from the submission log. Only the first correct submission per user and challenge
// counts, and only for challenges still on the board. It returns how many users and
// challenges were corrected.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	points := map[string]int{}
	for _, c := range s.store.Challenges(ctx) {
		points[c.ID] = c.Points
	}

	solved := map[string][]string{}
	seen := map[[2]string]bool{}
	for _, sub := range s.store.Submissions(ctx) {
		if !sub.Correct {
			continue
		}
		if _, ok := points[sub.ChallengeID]; !ok {
			continue
		}
		key := [2]string{sub.UserID, sub.ChallengeID}
		if seen[key] {
			continue
		}
		seen[key] = true
		solved[sub.UserID] = append(solved[sub.UserID], sub.ChallengeID)
	}

	var fixedUsers int
	var solvers map[string]int
	_, err := s.store.MutateUsers(ctx, func(cur []userentity.User) ([]userentity.User, error) {
		fixedUsers = 0
		solvers = map[string]int{}
		for i := range cur {
			want := solved[cur[i].ID]
			if want == nil {
				want = []string{}
			}
			score := 0
			for _, id := range want {
				score += points[id]
				solvers[id]++
			}
			if cur[i].Score == score && slices.Equal(cur[i].Solves, want) {
				continue
			}
			s.logger.Infow("reconciled user", "id", cur[i].ID, "score", cur[i].Score, "want", score)
			cur[i].Solves = want
			cur[i].Score = score
			fixedUsers++
		}
		if fixedUsers == 0 {
			return nil, store.ErrNoChange
		}
		return cur, nil
	})
	if err != nil {
		return 0, err
	}

	var fixedChallenges int
	_, err = s.store.MutateChallenges(ctx, func(cur []challengeentity.Challenge) ([]challengeentity.Challenge, error) {
		fixedChallenges = 0
		for i := range cur {
			if cur[i].SolveCount == solvers[cur[i].ID] {
				continue
			}
			s.logger.Infow("reconciled challenge", "id", cur[i].ID, "solveCount", cur[i].SolveCount, "want", solvers[cur[i].ID])
			cur[i].SolveCount = solvers[cur[i].ID]
			fixedChallenges++
		}
		if fixedChallenges == 0 {
			return nil, store.ErrNoChange
		}
		return cur, nil
	})
	if err != nil {
		return fixedUsers, err
	}
	return fixedUsers + fixedChallenges, nil
}
