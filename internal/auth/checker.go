package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

// resolvedSessionCacheExpireSeconds keeps token lookups away from redis
// for a short while. Users are never hard-deleted by the API, so a
// slightly stale positive resolution is acceptable.
const resolvedSessionCacheExpireSeconds = 30

var _ Checker = (*SessionChecker)(nil)

type Checker interface {
	UserID(ctx context.Context, token string) (int, error)
}

type userGetter interface {
	GetByID(ctx context.Context, id int) (*User, error)
}

// SessionChecker resolves a session token to the id of an existing
// user. A token whose user is gone gets its session destroyed.
type SessionChecker struct {
	sessions *Service
	users    userGetter
	cache    *freecache.Cache
}

func NewSessionChecker(sessions *Service, users userGetter) *SessionChecker {
	megabyte := 1024 * 1024
	return &SessionChecker{
		sessions: sessions,
		users:    users,
		cache:    freecache.NewCache(megabyte),
	}
}

func (c *SessionChecker) UserID(ctx context.Context, token string) (int, error) {
	if cached, err := c.cache.Get([]byte(token)); err == nil {
		if userID, convErr := strconv.Atoi(string(cached)); convErr == nil {
			return userID, nil
		}
	}

	userID, err := c.sessions.Resolve(ctx, token)
	if err != nil {
		return 0, err
	}

	if _, err := c.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// stale session for a deleted account, invalidate it
			if destroyErr := c.sessions.Destroy(ctx, token); destroyErr != nil {
				log.Errorf("failed to destroy stale session: %s", destroyErr)
			}
			return 0, ErrNoSession
		}
		return 0, fmt.Errorf("check session user: %w", err)
	}

	if err := c.cache.Set(
		[]byte(token),
		[]byte(strconv.Itoa(userID)),
		resolvedSessionCacheExpireSeconds,
	); err != nil {
		log.Tracef("failed to cache resolved session: %s", err)
	}

	return userID, nil
}

// Forget drops the token from the resolution cache (used on logout).
func (c *SessionChecker) Forget(token string) {
	c.cache.Del([]byte(token))
}
