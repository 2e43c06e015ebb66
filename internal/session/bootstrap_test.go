package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kc92/Desperado-s-Destiny-sub003/engine"
	"github.com/kc92/Desperado-s-Destiny-sub003/internal/config"
	"github.com/kc92/Desperado-s-Destiny-sub003/internal/cooldown"
)

func TestNewManagerFromConfigDefaults(t *testing.T) {
	m, err := NewManagerFromConfig(context.Background(), config.Config{LogLevel: "error"})
	require.NoError(t, err)
	_, ok := m.cooldowns.(*cooldown.MemoryStore)
	assert.True(t, ok, "no redis address means the in-process store")
	assert.Equal(t, engine.DefaultRules(engine.KindDuel), m.rules[engine.KindDuel])
}

func TestNewManagerFromConfigOverrides(t *testing.T) {
	t.Setenv("DECKHAND_DECISION_TIMEOUT", "45s")
	t.Setenv("DECKHAND_REDRAW_CYCLES", "2")
	t.Setenv("DECKHAND_LOG_LEVEL", "warn")

	cfg, err := config.Load()
	require.NoError(t, err)

	m, err := NewManagerFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	for _, k := range []engine.ActionKind{engine.KindCombat, engine.KindCrime, engine.KindCraft, engine.KindContest, engine.KindDuel} {
		r := m.rules[k]
		assert.Equal(t, 45*time.Second, r.DecisionTimeout)
		assert.Equal(t, uint8(2), r.RedrawCycles)
	}
	assert.True(t, m.rules[engine.KindDuel].TimeoutForfeit, "overrides keep the duel forfeit policy")
}

func TestConfigLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DECKHAND_DECISION_TIMEOUT", "soon")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("DECKHAND_DECISION_TIMEOUT", "")
	t.Setenv("DECKHAND_REDRAW_CYCLES", "0")
	_, err = config.Load()
	assert.Error(t, err)
}
