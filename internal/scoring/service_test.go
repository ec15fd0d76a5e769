package scoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	challengeentity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/challenge/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/scoring/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/session"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store/repo"
	userentity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/user/entity"
)

type recordingNotifier struct {
	mu     sync.Mutex
	solves []entity.Solve
}

func (n *recordingNotifier) Publish(s entity.Solve) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.solves = append(n.solves, s)
}

func (n *recordingNotifier) all() []entity.Solve {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]entity.Solve(nil), n.solves...)
}

type fixture struct {
	svc      *Service
	store    *store.Store
	notifier *recordingNotifier
	sess     *session.Session
	user     userentity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.New(repo.NewMemoryRepo(), nil)
	u := userentity.User{ID: "u1", Alias: "neo", Email: "neo@zion.io", Role: userentity.RoleParticipant, Solves: []string{}, Badges: []string{}}
	_, err := st.Bootstrap(ctx, store.Seed{
		Challenges: store.SeedChallenges(),
		Users:      []userentity.User{u},
	})
	require.NoError(t, err)
	sess := session.New(st, "s1")
	require.NoError(t, sess.Set(ctx, u))

	n := &recordingNotifier{}
	return &fixture{svc: NewService(st, n, nil), store: st, notifier: n, sess: sess, user: u}
}

func (f *fixture) userByID(t *testing.T, id string) userentity.User {
	t.Helper()
	for _, u := range f.store.Users(context.Background()) {
		if u.ID == id {
			return u
		}
	}
	t.Fatalf("user %s missing", id)
	return userentity.User{}
}

func (f *fixture) challenge(t *testing.T, id string) challengeentity.Challenge {
	t.Helper()
	for _, c := range f.store.Challenges(context.Background()) {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("challenge %s missing", id)
	return challengeentity.Challenge{}
}

func TestSubmitFirstSolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.SubmitFlag(ctx, f.sess, "u1", "c1", "  FLAG{hello_world} ")
	require.NoError(t, err)
	assert.Equal(t, entity.Result{Correct: true, Credited: true, Outcome: entity.OutcomeCorrect, Points: 100, Score: 100}, res)

	u := f.userByID(t, "u1")
	assert.Equal(t, 100, u.Score)
	assert.Equal(t, []string{"c1"}, u.Solves)
	assert.Equal(t, 1, f.challenge(t, "c1").SolveCount)

	cur := f.sess.Current(ctx)
	require.NotNil(t, cur)
	assert.Equal(t, 100, cur.Score)

	subs := f.store.Submissions(ctx)
	require.Len(t, subs, 1)
	assert.True(t, subs[0].Correct)
	assert.Equal(t, "  FLAG{hello_world} ", subs[0].Flag)
	assert.NotEmpty(t, subs[0].ID)

	solves := f.notifier.all()
	require.Len(t, solves, 1)
	assert.Equal(t, "neo", solves[0].Alias)
	assert.Equal(t, "Caesar's Whisper", solves[0].ChallengeTitle)
}

func TestSubmitTwiceCreditsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.SubmitFlag(ctx, f.sess, "u1", "c1", "FLAG{hello_world}")
	require.NoError(t, err)
	res, err := f.svc.SubmitFlag(ctx, f.sess, "u1", "c1", "FLAG{hello_world}")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.False(t, res.Credited)
	assert.Equal(t, entity.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, 100, res.Score)

	u := f.userByID(t, "u1")
	assert.Equal(t, 100, u.Score)
	assert.Equal(t, []string{"c1"}, u.Solves)
	assert.Equal(t, 1, f.challenge(t, "c1").SolveCount)

	subs := f.store.Submissions(ctx)
	require.Len(t, subs, 2)
	assert.True(t, subs[0].Correct)
	assert.True(t, subs[1].Correct)
	assert.Len(t, f.notifier.all(), 1)
}

func TestSubmitIncorrect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, attempt := range []string{"flag{hello_world}", "FLAG{HELLO_WORLD}", "", "FLAG{hello_world}x"} {
		res, err := f.svc.SubmitFlag(ctx, f.sess, "u1", "c1", attempt)
		require.NoError(t, err)
		assert.Equal(t, entity.Result{Outcome: entity.OutcomeIncorrect}, res, attempt)
	}

	u := f.userByID(t, "u1")
	assert.Zero(t, u.Score)
	assert.Empty(t, u.Solves)
	assert.Zero(t, f.challenge(t, "c1").SolveCount)

	subs := f.store.Submissions(ctx)
	require.Len(t, subs, 4)
	for _, s := range subs {
		assert.False(t, s.Correct)
	}
	assert.Empty(t, f.notifier.all())
}

func TestSubmitUnknownChallenge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.SubmitFlag(ctx, f.sess, "u1", "c99", "FLAG{hello_world}")
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, entity.OutcomeUnknownChallenge, res.Outcome)
	assert.Empty(t, f.store.Submissions(ctx))
	assert.Zero(t, f.userByID(t, "u1").Score)
}

func TestSubmitUnknownUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.SubmitFlag(ctx, nil, "ghost", "c2", "FLAG{d0uble_b64}")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.False(t, res.Credited)

	assert.Len(t, f.store.Submissions(ctx), 1)
	assert.Zero(t, f.challenge(t, "c2").SolveCount)
	assert.Empty(t, f.notifier.all())
}

func TestSubmitDoesNotTouchOtherSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other := userentity.User{ID: "u2", Alias: "trinity", Solves: []string{}}
	_, err := f.store.MutateUsers(ctx, func(cur []userentity.User) ([]userentity.User, error) {
		return append(cur, other), nil
	})
	require.NoError(t, err)

	_, err = f.svc.SubmitFlag(ctx, f.sess, "u2", "c7", "FLAG{16}")
	require.NoError(t, err)

	cur := f.sess.Current(ctx)
	require.NotNil(t, cur)
	assert.Equal(t, "u1", cur.ID)
	assert.Zero(t, cur.Score)
	assert.Equal(t, 100, f.userByID(t, "u2").Score)
}

func TestScoreInvariantAcrossSolves(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	flags := map[string]string{"c1": "FLAG{hello_world}", "c2": "FLAG{d0uble_b64}", "c3": "FLAG{r3v3r_m3}", "c7": "FLAG{16}"}
	for id, flag := range flags {
		_, err := f.svc.SubmitFlag(ctx, f.sess, "u1", id, "wrong")
		require.NoError(t, err)
		_, err = f.svc.SubmitFlag(ctx, f.sess, "u1", id, flag)
		require.NoError(t, err)
		_, err = f.svc.SubmitFlag(ctx, f.sess, "u1", id, flag)
		require.NoError(t, err)
	}

	u := f.userByID(t, "u1")
	want := 0
	for _, id := range u.Solves {
		want += f.challenge(t, id).Points
	}
	assert.Equal(t, want, u.Score)
	assert.Equal(t, 800, u.Score)
	assert.Len(t, u.Solves, 4)
	for id := range flags {
		assert.Equal(t, 1, f.challenge(t, id).SolveCount, id)
	}
	assert.Len(t, f.store.Submissions(ctx), 12)
}

func TestConcurrentDuplicateSubmissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	results := make([]entity.Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.SubmitFlag(ctx, f.sess, "u1", "c5", "FLAG{h1dd3n_p1x3ls}")
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	credited := 0
	for _, r := range results {
		assert.True(t, r.Correct)
		if r.Credited {
			credited++
		}
	}
	assert.Equal(t, 1, credited)
	assert.Equal(t, 350, f.userByID(t, "u1").Score)
	assert.Equal(t, 1, f.challenge(t, "c5").SolveCount)
	assert.Len(t, f.store.Submissions(ctx), 16)
}

func TestCreditAcrossProcessesSharingBackend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// a second service over the same store has its own mutex; only the CAS protects credit
	second := NewService(f.store, nil, nil)

	var wg sync.WaitGroup
	var a, b entity.Result
	wg.Add(2)
	go func() { defer wg.Done(); a, _ = f.svc.SubmitFlag(ctx, nil, "u1", "c8", "FLAG{r3c0n_pr0}") }()
	go func() { defer wg.Done(); b, _ = second.SubmitFlag(ctx, nil, "u1", "c8", "FLAG{r3c0n_pr0}") }()
	wg.Wait()

	assert.NotEqual(t, a.Credited, b.Credited)
	assert.Equal(t, 150, f.userByID(t, "u1").Score)
	assert.Equal(t, 1, f.challenge(t, "c8").SolveCount)
}

func TestSubmissionsFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }

	for _, call := range []struct{ user, ch, flag string }{
		{"u1", "c1", "x"}, {"u1", "c2", "y"}, {"u2", "c1", "z"},
	} {
		_, err := f.svc.SubmitFlag(ctx, nil, call.user, call.ch, call.flag)
		require.NoError(t, err)
	}

	assert.Len(t, f.svc.Submissions(ctx, entity.Filter{}), 3)
	assert.Len(t, f.svc.Submissions(ctx, entity.Filter{UserID: "u1"}), 2)
	assert.Len(t, f.svc.Submissions(ctx, entity.Filter{ChallengeID: "c1"}), 2)

	got := f.svc.Submissions(ctx, entity.Filter{UserID: "u2", ChallengeID: "c1"})
	require.Len(t, got, 1)
	assert.Equal(t, "z", got[0].Flag)
	assert.True(t, got[0].Timestamp.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}
