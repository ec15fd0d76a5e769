package challenge

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/challenge/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
	"github.com/ovaphlow/pitchfork/service-ctf-core/pkg/utilities"
)

var (
	ErrNotFound         = errors.New("challenge not found")
	ErrInvalidChallenge = errors.New("invalid challenge")
)

// Service manages the challenge board.
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

// List returns the whole board including disabled challenges and flags.
func (s *Service) List(ctx context.Context) []entity.Challenge {
	return s.store.Challenges(ctx)
}

// Visible returns enabled challenges, restricted to category when it is non-empty.
func (s *Service) Visible(ctx context.Context, category entity.Category) []entity.Challenge {
	all := s.store.Challenges(ctx)
	out := make([]entity.Challenge, 0, len(all))
	for _, c := range all {
		if !c.Enabled {
			continue
		}
		if category != "" && c.Category != category {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Add appends a new enabled challenge with a fresh id and no solves.
func (s *Service) Add(ctx context.Context, in entity.NewChallenge) (*entity.Challenge, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Flag) == "" {
		return nil, ErrInvalidChallenge
	}
	if !in.Category.Valid() || !in.Difficulty.Valid() || in.Points < 0 {
		return nil, ErrInvalidChallenge
	}
	hints := in.Hints
	if hints == nil {
		hints = []string{}
	}
	c := entity.Challenge{
		ID:          utilities.NewKSUID(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Difficulty:  in.Difficulty,
		Points:      in.Points,
		Flag:        strings.TrimSpace(in.Flag),
		SolveCount:  0,
		Enabled:     true,
		Hints:       hints,
	}
	if _, err := s.store.MutateChallenges(ctx, func(cur []entity.Challenge) ([]entity.Challenge, error) {
		return append(cur, c), nil
	}); err != nil {
		return nil, err
	}
	s.logger.Infow("challenge added", "id", c.ID, "title", c.Title, "points", c.Points)
	return &c, nil
}

// Toggle flips the enabled flag and returns the updated challenge.
func (s *Service) Toggle(ctx context.Context, id string) (*entity.Challenge, error) {
	var updated entity.Challenge
	_, err := s.store.MutateChallenges(ctx, func(cur []entity.Challenge) ([]entity.Challenge, error) {
		for i := range cur {
			if cur[i].ID == id {
				cur[i].Enabled = !cur[i].Enabled
				updated = cur[i]
				return cur, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("challenge toggled", "id", id, "enabled", updated.Enabled)
	return &updated, nil
}

// Delete removes the challenge from the board. Users keep their credit.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.store.MutateChallenges(ctx, func(cur []entity.Challenge) ([]entity.Challenge, error) {
		for i := range cur {
			if cur[i].ID == id {
				return append(cur[:i:i], cur[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return err
	}
	s.logger.Infow("challenge deleted", "id", id)
	return nil
}

// Stats summarises every category of the fixed enumeration, empty ones included.
func (s *Service) Stats(ctx context.Context) []entity.CategoryStats {
	all := s.store.Challenges(ctx)
	out := make([]entity.CategoryStats, 0, len(entity.Categories))
	for _, cat := range entity.Categories {
		st := entity.CategoryStats{Category: cat}
		for _, c := range all {
			if c.Category != cat {
				continue
			}
			if st.Count == 0 || c.Points < st.MinPoints {
				st.MinPoints = c.Points
			}
			if c.Points > st.MaxPoints {
				st.MaxPoints = c.Points
			}
			st.Count++
			st.TotalPoints += c.Points
		}
		out = append(out, st)
	}
	return out
}
