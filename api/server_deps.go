package api

import (
	"context"
	"fmt"

	"restaurant-manager/config"
	"restaurant-manager/core/rbac"
	"restaurant-manager/core/store"
	"restaurant-manager/core/upstream"
	"restaurant-manager/core/utils"
)

type ServerDeps struct {
	Sessions store.SessionStore
	Upstream *upstream.Client
	Policy   *rbac.Policy
	// Close releases what the deps hold open: the sweeper or the Redis pool.
	Close func()
}

// NewServerDeps builds the session backend, the upstream client and the
// role policy from configuration.
func NewServerDeps(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) (*ServerDeps, error) {
	sessions, closeSessions, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	client, err := upstream.NewClient(upstream.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		VerifySSL: cfg.API.VerifySSL,
		UserAgent: "restaurant-manager/" + cfg.AppVersion,
	}, logger)
	if err != nil {
		closeSessions()
		return nil, err
	}
	policy, err := rbac.NewPolicy(rbac.DefaultRules())
	if err != nil {
		closeSessions()
		return nil, fmt.Errorf("rbac policy: %w", err)
	}
	return &ServerDeps{Sessions: sessions, Upstream: client, Policy: policy, Close: closeSessions}, nil
}

func newSessionStore(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) (store.SessionStore, func(), error) {
	switch cfg.Session.Backend {
	case "redis":
		rc := cfg.Session.Redis
		client, err := store.NewRedis(ctx, rc.Addr, rc.Password, rc.DB)
		if err != nil {
			return nil, nil, err
		}
		st, err := store.NewRedisSessionStore(client, rc.KeyPrefix, cfg.Session.Secret)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Printf("SESSION backend=redis addr=%s", rc.Addr)
		return st, func() { _ = client.Close() }, nil
	default:
		st := store.NewMemorySessionStore()
		stop, err := st.StartSweeper(cfg.Session.SweepSchedule, func(removed int) {
			if removed > 0 {
				logger.Debugf("SESSION sweep removed=%d live=%d", removed, st.Len())
			}
		})
		if err != nil {
			return nil, nil, fmt.Errorf("session sweeper: %w", err)
		}
		logger.Printf("SESSION backend=memory sweep=%s", cfg.Session.SweepSchedule)
		return st, stop, nil
	}
}
