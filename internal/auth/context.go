package auth

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/session"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/user/entity"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	userKey
)

// WithSession attaches the request's session and the user it currently holds.
func WithSession(ctx context.Context, sess *session.Session, u *entity.User) context.Context {
	ctx = context.WithValue(ctx, sessionKey, sess)
	return context.WithValue(ctx, userKey, u)
}

func SessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

func UserFrom(ctx context.Context) *entity.User {
	u, _ := ctx.Value(userKey).(*entity.User)
	return u
}
