// Package session holds the explicit "current user" of one client context.
// A Session is bound to a store slot; its lifecycle is none -> authenticated(User) -> none.
package session

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/user/entity"
)

type Session struct {
	id    string
	store *store.Store
}

// New binds a session to the slot for sid. An empty sid addresses the default client slot.
func New(st *store.Store, sid string) *Session {
	return &Session{id: sid, store: st}
}

func (s *Session) ID() string { return s.id }

// Current returns the authenticated user, or nil when the session is empty.
func (s *Session) Current(ctx context.Context) *entity.User {
	return s.store.CurrentUser(ctx, store.SlotKey(s.id))
}

func (s *Session) Authenticated(ctx context.Context) bool {
	return s.Current(ctx) != nil
}

// Set replaces the session user.
func (s *Session) Set(ctx context.Context, u entity.User) error {
	return s.store.SetCurrentUser(ctx, store.SlotKey(s.id), &u)
}

// Refresh replaces the session user only if it currently holds the same user id.
func (s *Session) Refresh(ctx context.Context, u entity.User) error {
	cur := s.Current(ctx)
	if cur == nil || cur.ID != u.ID {
		return nil
	}
	return s.Set(ctx, u)
}

// Clear empties the session.
func (s *Session) Clear(ctx context.Context) error {
	return s.store.SetCurrentUser(ctx, store.SlotKey(s.id), nil)
}
