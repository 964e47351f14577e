package preference

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core"
)

var ErrNotFound = errors.New("preferences not found")

type (
	Repository interface {
		GetPreferences(ctx context.Context, userID string) (Preferences, error)
		// SavePreferences inserts or replaces the user's preferences.
		SavePreferences(ctx context.Context, prefs Preferences) (Preferences, error)
	}

	// ChangeFunc is called once a user's preferences have been saved.
	ChangeFunc func(ctx context.Context, userID string)

	Service interface {
		// Get loads the user's preferences through the cache, falling back to defaults.
		Get(ctx context.Context, userID string) (Preferences, error)
		// Update writes the changes through to the store and the cache.
		Update(ctx context.Context, userID string, up UpdatePreferences) (Preferences, error)
		// TargetFor resolves the target percentage applying to a subject:
		// its own override if any, the user's preference otherwise.
		TargetFor(ctx context.Context, userID string, override *float64) (float64, error)
		OnChange(fn ChangeFunc)
		Defaults(userID string) Preferences
	}

	service struct {
		repo     Repository
		cache    core.Cache
		logger   core.Logger
		ttl      time.Duration
		defaults Preferences

		mu        sync.RWMutex
		listeners []ChangeFunc
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, cache core.Cache, logger core.Logger, conf *core.Config) Service {
	return &service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		ttl:    conf.Cache.TTL,
		defaults: Preferences{
			TargetPercent: conf.Attendance.DefaultTargetPercent,
			Theme:         ThemeSystem,
			AlertsEnabled: true,
		},
	}
}

func cacheKey(userID string) string {
	return core.CacheKey("preferences", userID)
}

func (svc *service) Defaults(userID string) Preferences {
	prefs := svc.defaults
	prefs.UserID = userID
	return prefs
}

func (svc *service) Get(ctx context.Context, userID string) (Preferences, error) {
	var prefs Preferences
	found, err := svc.cache.Get(ctx, cacheKey(userID), &prefs)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("reading cached preferences: %v", err), err)
	} else if found {
		prefs.UserID = userID
		return prefs, nil
	}

	prefs, err = svc.repo.GetPreferences(ctx, userID)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Preferences{}, errors.Wrap(err, "getting preferences")
		}
		prefs = svc.Defaults(userID)
	}

	if err = svc.cache.Set(ctx, cacheKey(userID), prefs, svc.ttl); err != nil {
		svc.logger.Warn(fmt.Sprintf("caching preferences: %v", err), err)
	}
	return prefs, nil
}

func (svc *service) Update(ctx context.Context, userID string, up UpdatePreferences) (Preferences, error) {
	prefs, err := svc.Get(ctx, userID)
	if err != nil {
		return Preferences{}, err
	}

	prefs = up.apply(prefs)
	prefs.UserID = userID
	prefs.UpdatedAt = time.Now().UTC()
	if prefs, err = svc.repo.SavePreferences(ctx, prefs); err != nil {
		return Preferences{}, errors.Wrap(err, "saving preferences")
	}

	if err = svc.cache.Set(ctx, cacheKey(userID), prefs, svc.ttl); err != nil {
		svc.logger.Warn(fmt.Sprintf("caching preferences: %v", err), err)
		// a stale entry must not outlive the write
		_ = svc.cache.Delete(ctx, cacheKey(userID))
	}

	svc.mu.RLock()
	listeners := svc.listeners
	svc.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, userID)
	}
	return prefs, nil
}

func (svc *service) TargetFor(ctx context.Context, userID string, override *float64) (float64, error) {
	if override != nil {
		return *override, nil
	}
	prefs, err := svc.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return prefs.TargetPercent, nil
}

func (svc *service) OnChange(fn ChangeFunc) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.listeners = append(svc.listeners, fn)
}
