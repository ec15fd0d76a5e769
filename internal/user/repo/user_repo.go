package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/user/entity"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrAliasExists = errors.New("alias exists")
	ErrEmailExists = errors.New("email exists")
)

// UserRepo provides lookups and writes over the ctf_users collection.
type UserRepo struct {
	st *store.Store
}

func NewUserRepo(st *store.Store) *UserRepo { return &UserRepo{st: st} }

// List returns all users in registration order.
func (r *UserRepo) List(ctx context.Context) []entity.User {
	return r.st.Users(ctx)
}

// GetByID returns the user with id or ErrNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	for _, u := range r.st.Users(ctx) {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// GetByAlias matches the alias exactly as stored (case-sensitive).
func (r *UserRepo) GetByAlias(ctx context.Context, alias string) (*entity.User, error) {
	for _, u := range r.st.Users(ctx) {
		if u.Alias == alias {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// Create appends u unless its alias or email already exists, compared case-insensitively.
// The uniqueness check runs inside the compare-and-set so concurrent signups cannot both win.
func (r *UserRepo) Create(ctx context.Context, u entity.User) error {
	_, err := r.st.MutateUsers(ctx, func(cur []entity.User) ([]entity.User, error) {
		for _, existing := range cur {
			if strings.EqualFold(existing.Alias, u.Alias) {
				return nil, ErrAliasExists
			}
		}
		for _, existing := range cur {
			if strings.EqualFold(existing.Email, u.Email) {
				return nil, ErrEmailExists
			}
		}
		return append(cur, u), nil
	})
	return err
}
