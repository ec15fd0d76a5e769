package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/session"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-ctf-core/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-ctf-core/pkg/utilities"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation. bcrypt compares digests in constant time.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", cost), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

const (
	DefaultAdminID    = "admin"
	DefaultAdminAlias = "root"
	DefaultAdminEmail = "admin@ctf.local"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateAlias     = errors.New("alias already taken")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserService orchestrates registration, login and logout against a session.
type UserService struct {
	repo   *userrepo.UserRepo
	hasher PasswordHasher
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewUserService(st *store.Store, hasher PasswordHasher, logger *zap.SugaredLogger) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{repo: userrepo.NewUserRepo(st), hasher: hasher, logger: logger, now: time.Now}
}

// Register creates a participant and makes it the session user.
// Alias and email must be unique ignoring case.
func (s *UserService) Register(ctx context.Context, sess *session.Session, alias, email, password string) (*entity.User, error) {
	hash, algo, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := entity.User{
		ID:           utilities.NewSnowflakeID(),
		Alias:        alias,
		Email:        email,
		PasswordHash: hash,
		PasswordAlgo: algo,
		Role:         entity.RoleParticipant,
		Score:        0,
		Solves:       []string{},
		Badges:       []string{},
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, userrepo.ErrAliasExists):
			return nil, ErrDuplicateAlias
		case errors.Is(err, userrepo.ErrEmailExists):
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	if err := sess.Set(ctx, u); err != nil {
		return nil, fmt.Errorf("set session: %w", err)
	}
	s.logger.Infow("user registered", "id", u.ID, "alias", u.Alias)
	return &u, nil
}

// Login authenticates by exact alias and password and makes the user the session user.
func (s *UserService) Login(ctx context.Context, sess *session.Session, alias, password string) (*entity.User, error) {
	u, err := s.repo.GetByAlias(ctx, alias)
	if err != nil {
		// avoid user enumeration
		s.logger.Debugw("login unknown alias", "alias", alias)
		return nil, ErrInvalidCredentials
	}
	if u.PasswordHash == "" || !s.hasher.Verify(u.PasswordHash, password) {
		s.logger.Debugw("login bad password", "id", u.ID)
		return nil, ErrInvalidCredentials
	}
	if err := sess.Set(ctx, *u); err != nil {
		return nil, fmt.Errorf("set session: %w", err)
	}
	return u, nil
}

// Logout empties the session. Backend failures are logged, not returned.
func (s *UserService) Logout(ctx context.Context, sess *session.Session) {
	if err := sess.Clear(ctx); err != nil {
		s.logger.Warnw("logout failed to clear session", "sid", sess.ID(), "err", err)
	}
}

func (s *UserService) List(ctx context.Context) []entity.User {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, userrepo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// DefaultAdmin builds the seeded administrator account with the given password.
func (s *UserService) DefaultAdmin(password string) (entity.User, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		password = "admin123"
	}
	hash, algo, err := s.hasher.Hash(password)
	if err != nil {
		return entity.User{}, fmt.Errorf("hash admin password: %w", err)
	}
	return entity.User{
		ID:           DefaultAdminID,
		Alias:        DefaultAdminAlias,
		Email:        DefaultAdminEmail,
		PasswordHash: hash,
		PasswordAlgo: algo,
		Role:         entity.RoleAdmin,
		Solves:       []string{},
		Badges:       []string{},
		CreatedAt:    s.now().UTC(),
	}, nil
}
