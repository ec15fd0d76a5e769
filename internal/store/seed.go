package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	challengeentity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/challenge/entity"
	evententity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/event/entity"
	scoringentity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/scoring/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store/repo"
	userentity "github.com/ovaphlow/pitchfork/service-ctf-core/internal/user/entity"
)

const DefaultEventTitle = "OPERATION: ZERO DAY"

// DefaultEvent is an upcoming event opening a day after now and closing a day later.
func DefaultEvent(now time.Time) evententity.Event {
	return evententity.Event{
		Status:    evententity.StatusUpcoming,
		StartTime: now.Add(24 * time.Hour).UTC(),
		EndTime:   now.Add(48 * time.Hour).UTC(),
		Title:     DefaultEventTitle,
	}
}

// Seed is the initial content written by Bootstrap.
type Seed struct {
	Challenges  []challengeentity.Challenge
	Event       evententity.Event
	Users       []userentity.User
	Submissions []scoringentity.Submission
}

// DefaultSeed returns the built-in board, the default event and the given administrator.
func DefaultSeed(now time.Time, admin userentity.User) Seed {
	return Seed{
		Challenges:  SeedChallenges(),
		Event:       DefaultEvent(now),
		Users:       []userentity.User{admin},
		Submissions: []scoringentity.Submission{},
	}
}

// Bootstrap writes each seed collection whose key is absent and leaves existing keys alone.
// It returns the keys it created.
func (s *Store) Bootstrap(ctx context.Context, seed Seed) ([]string, error) {
	entries := []struct {
		key   string
		value any
	}{
		{KeyChallenges, nonNil(seed.Challenges)},
		{KeyEvent, seed.Event},
		{KeyUsers, nonNil(seed.Users)},
		{KeySubmissions, nonNil(seed.Submissions)},
	}
	var created []string
	for _, e := range entries {
		b, err := json.Marshal(e.value)
		if err != nil {
			return created, fmt.Errorf("encode seed %s: %w", e.key, err)
		}
		if _, err := s.repo.Put(ctx, e.key, b, 0); err != nil {
			if errors.Is(err, repo.ErrVersionConflict) {
				continue
			}
			return created, fmt.Errorf("seed %s: %w", e.key, err)
		}
		created = append(created, e.key)
	}
	if len(created) > 0 {
		s.logger.Infow("store seeded", "keys", created)
	}
	return created, nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// SeedChallenges returns a fresh copy of the built-in challenge board.
func SeedChallenges() []challengeentity.Challenge {
	return []challengeentity.Challenge{
		{
			ID: "c1", Title: "Caesar's Whisper",
			Description: "A classic substitution cipher hides a message. Can you decode it?\n\nEncoded: KHOOR ZRUOG",
			Category:    challengeentity.CategoryCryptography, Difficulty: challengeentity.DifficultyEasy,
			Points: 100, Flag: "FLAG{hello_world}", Enabled: true, Hints: []string{"Think Roman emperor"},
		},
		{
			ID: "c2", Title: "Base Deception",
			Description: "This string looks encoded. Multiple layers perhaps?\n\nRkxBR3tkMHVibGVfYjY0fQ==",
			Category:    challengeentity.CategoryCryptography, Difficulty: challengeentity.DifficultyMedium,
			Points: 200, Flag: "FLAG{d0uble_b64}", Enabled: true, Hints: []string{"Base64 is your friend"},
		},
		{
			ID: "c3", Title: "Ghost in the Binary",
			Description: "An executable hides its secrets. Reverse the logic to find the flag.\n\nif (input === atob(\"RkxBR3tyM3Yzcl9tM30=\")) { grant(); }",
			Category:    challengeentity.CategoryReverseEngineering, Difficulty: challengeentity.DifficultyHard,
			Points: 400, Flag: "FLAG{r3v3r_m3}", Enabled: true, Hints: []string{"atob decodes base64"},
		},
		{
			ID: "c4", Title: "Digital Footprint",
			Description: "Find the hidden email address associated with the username \"ctrl_alt_defeat\" on a popular code hosting platform.",
			Category:    challengeentity.CategoryOSINT, Difficulty: challengeentity.DifficultyMedium,
			Points: 250, Flag: "FLAG{0s1nt_m4st3r}", Enabled: true, Hints: []string{"Check commit history"},
		},
		{
			ID: "c5", Title: "Pixel Secrets",
			Description: "An image file contains more than meets the eye. Look beyond the pixels.",
			Category:    challengeentity.CategorySteganography, Difficulty: challengeentity.DifficultyHard,
			Points: 350, Flag: "FLAG{h1dd3n_p1x3ls}", Enabled: true, Hints: []string{"Try examining LSB"},
		},
		{
			ID: "c6", Title: "XOR Labyrinth",
			Description: "Each byte has been XORed with a single key. The ciphertext (hex): 1b0e0a1c4e38343c3a28\n\nHint: The flag starts with FLAG",
			Category:    challengeentity.CategoryCryptography, Difficulty: challengeentity.DifficultyHard,
			Points: 400, Flag: "FLAG{x0r_k1ng}", Enabled: true, Hints: []string{"XOR the first byte with F"},
		},
		{
			ID: "c7", Title: "Assembly Puzzle",
			Description: "What value does EAX hold after execution?\n\nmov eax, 5\nmov ebx, 3\nadd eax, ebx\nimul eax, 2",
			Category:    challengeentity.CategoryReverseEngineering, Difficulty: challengeentity.DifficultyEasy,
			Points: 100, Flag: "FLAG{16}", Enabled: true, Hints: []string{"Trace the registers step by step"},
		},
		{
			ID: "c8", Title: "Social Recon",
			Description: "The target organization posted a job listing with an unusual requirement. The company domain is \"nullsec-corp.example\". What technology stack did they mention?",
			Category:    challengeentity.CategoryOSINT, Difficulty: challengeentity.DifficultyEasy,
			Points: 150, Flag: "FLAG{r3c0n_pr0}", Enabled: true, Hints: []string{"Check job boards and cached pages"},
		},
	}
}
