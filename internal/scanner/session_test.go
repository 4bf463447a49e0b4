package scanner

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCancelAdvancesOnlyCurrentSession(t *testing.T) {
	g := NewGenerations()
	first := g.Next()
	second := g.Next()
	assert.True(t, first.Stale())

	assert.False(t, g.Cancel(first), "stale session")
	assert.Equal(t, second.Generation, g.Current())
	assert.False(t, second.Stale())

	assert.True(t, g.Cancel(second))
	assert.True(t, second.Stale())
	assert.Equal(t, second.Generation+1, g.Current())

	assert.False(t, g.Cancel(second), "already cancelled")
	assert.Equal(t, second.Generation+1, g.Current())
}

func TestCancelIgnoresForeignSession(t *testing.T) {
	a := NewGenerations()
	b := NewGenerations()
	session := a.Next()
	b.Next()

	assert.False(t, b.Cancel(session))
	assert.Equal(t, uint64(1), b.Current())
	assert.False(t, session.Stale())
}

func TestSessionDoneClosedOnSupersede(t *testing.T) {
	g := NewGenerations()
	session := g.Next()

	select {
	case <-session.Done():
		t.Fatal("current session reported done")
	default:
	}

	g.Next()
	select {
	case <-session.Done():
	default:
		t.Fatal("superseded session not done")
	}
}

func TestEngineLogsOnlyEffectiveCancel(t *testing.T) {
	engine := newTestEngine(t, t.TempDir())
	var buf bytes.Buffer
	engine.logger = zerolog.New(&buf).Level(zerolog.DebugLevel)

	first := engine.NewSession()
	engine.NewSession()
	engine.Cancel(first)
	assert.NotContains(t, buf.String(), "Scan session cancelled")

	current := engine.NewSession()
	engine.Cancel(current)
	engine.Cancel(current)
	assert.Equal(t, 1, strings.Count(buf.String(), "Scan session cancelled"))
}
