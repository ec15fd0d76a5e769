package challenge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/challenge/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store/repo"
)

func seeded(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := store.New(repo.NewMemoryRepo(), nil)
	require.NoError(t, st.SetChallenges(context.Background(), store.SeedChallenges()))
	return NewService(st, nil), st
}

func TestVisible(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded(t)

	assert.Len(t, svc.Visible(ctx, ""), 8)

	crypto := svc.Visible(ctx, entity.CategoryCryptography)
	require.Len(t, crypto, 3)
	for _, c := range crypto {
		assert.Equal(t, entity.CategoryCryptography, c.Category)
	}

	_, err := svc.Toggle(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, svc.Visible(ctx, ""), 7)
	assert.Len(t, svc.Visible(ctx, entity.CategoryCryptography), 2)
	assert.Len(t, svc.List(ctx), 8)
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded(t)

	c, err := svc.Toggle(ctx, "c2")
	require.NoError(t, err)
	assert.False(t, c.Enabled)

	c, err = svc.Toggle(ctx, "c2")
	require.NoError(t, err)
	assert.True(t, c.Enabled)

	_, err = svc.Toggle(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	svc, st := seeded(t)

	c, err := svc.Add(ctx, entity.NewChallenge{
		Title:      "Heap Spray",
		Category:   entity.CategoryReverseEngineering,
		Difficulty: entity.DifficultyInsane,
		Points:     500,
		Flag:       " FLAG{spray} ",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.True(t, c.Enabled)
	assert.Zero(t, c.SolveCount)
	assert.Equal(t, "FLAG{spray}", c.Flag)
	assert.NotNil(t, c.Hints)

	all := st.Challenges(ctx)
	require.Len(t, all, 9)
	assert.Equal(t, c.ID, all[8].ID)
}

func TestAddRejects(t *testing.T) {
	ctx := context.Background()
	svc, st := seeded(t)
	valid := entity.NewChallenge{Title: "t", Category: entity.CategoryOSINT, Difficulty: entity.DifficultyEasy, Points: 10, Flag: "f"}

	cases := map[string]func(*entity.NewChallenge){
		"no title":       func(n *entity.NewChallenge) { n.Title = "  " },
		"no flag":        func(n *entity.NewChallenge) { n.Flag = "" },
		"bad category":   func(n *entity.NewChallenge) { n.Category = "web" },
		"bad difficulty": func(n *entity.NewChallenge) { n.Difficulty = "trivial" },
		"negative":       func(n *entity.NewChallenge) { n.Points = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, err := svc.Add(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidChallenge)
		})
	}
	assert.Len(t, st.Challenges(ctx), 8)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, st := seeded(t)

	require.NoError(t, svc.Delete(ctx, "c4"))
	all := st.Challenges(ctx)
	require.Len(t, all, 7)
	for _, c := range all {
		assert.NotEqual(t, "c4", c.ID)
	}
	assert.Equal(t, "c5", all[3].ID)

	assert.ErrorIs(t, svc.Delete(ctx, "c4"), ErrNotFound)
}

func TestStats(t *testing.T) {
	svc, _ := seeded(t)
	stats := svc.Stats(context.Background())
	require.Len(t, stats, 4)

	assert.Equal(t, entity.CategoryStats{Category: entity.CategoryCryptography, Count: 3, MinPoints: 100, MaxPoints: 400, TotalPoints: 700}, stats[0])
	assert.Equal(t, entity.CategoryStats{Category: entity.CategoryReverseEngineering, Count: 2, MinPoints: 100, MaxPoints: 400, TotalPoints: 500}, stats[1])
	assert.Equal(t, entity.CategoryStats{Category: entity.CategoryOSINT, Count: 2, MinPoints: 150, MaxPoints: 250, TotalPoints: 400}, stats[2])
	assert.Equal(t, entity.CategoryStats{Category: entity.CategorySteganography, Count: 1, MinPoints: 350, MaxPoints: 350, TotalPoints: 350}, stats[3])
}

func TestStatsEmptyBoard(t *testing.T) {
	svc := NewService(store.New(repo.NewMemoryRepo(), nil), nil)
	for _, s := range svc.Stats(context.Background()) {
		assert.Zero(t, s.Count)
		assert.Zero(t, s.MinPoints)
	}
}
