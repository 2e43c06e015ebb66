package session

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kc92/Desperado-s-Destiny-sub003/engine"
	"github.com/kc92/Desperado-s-Destiny-sub003/internal/cache"
	"github.com/kc92/Desperado-s-Destiny-sub003/internal/config"
	"github.com/kc92/Desperado-s-Destiny-sub003/internal/cooldown"
	"github.com/kc92/Desperado-s-Destiny-sub003/internal/database"
)

// NewManagerFromConfig builds a fully wired manager from deployment
// configuration: Redis-backed cooldowns and event publishing when a
// Redis address is configured, Postgres outcome persistence when a DSN
// is configured, in-process fallbacks otherwise.
func NewManagerFromConfig(ctx context.Context, cfg config.Config) (*Manager, error) {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	var store cooldown.Store = cooldown.NewMemoryStore()
	if cfg.RedisAddr != "" {
		if err := cache.InitRedis(ctx, cfg.RedisAddr, cfg.RedisPassword); err != nil {
			return nil, err
		}
		store = cooldown.NewRedisStore(cache.Rdb)
		log.WithField("addr", cfg.RedisAddr).Info("redis connected")
	}

	if cfg.PostgresDSN != "" {
		if err := database.Connect(ctx, cfg.PostgresDSN); err != nil {
			return nil, err
		}
		log.Info("postgres connected")
	}

	m := NewManager(store, log)
	applyOverrides(m, cfg)
	return m, nil
}

// applyOverrides folds deployment tuning into every action kind's rules.
func applyOverrides(m *Manager, cfg config.Config) {
	if cfg.DecisionTimeout <= 0 && cfg.RedrawCycles < 1 {
		return
	}
	for _, k := range []engine.ActionKind{engine.KindCombat, engine.KindCrime, engine.KindCraft, engine.KindContest, engine.KindDuel} {
		r := engine.DefaultRules(k)
		if cfg.DecisionTimeout > 0 {
			r.DecisionTimeout = cfg.DecisionTimeout
		}
		if cfg.RedrawCycles >= 1 && cfg.RedrawCycles <= 255 {
			r.RedrawCycles = uint8(cfg.RedrawCycles)
		}
		m.SetRules(r)
	}
}
