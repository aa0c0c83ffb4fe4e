package testenv

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestLogHandler(t *testing.T) {
	h := NewTestLogHandler()
	log := slog.New(h)

	log.Info("area created", "id", "area:1")
	log.With("store", "mem").WithGroup("tx").Debug("committed", "steps", 2)
	log.Error("failed")

	assert.Equal(t, []string{
		"[0] INFO: area created id=area:1",
		"[1] DEBUG: committed store=mem, tx.steps=2",
		"[2] ERROR: failed",
	}, h.Lines())
	assert.True(t, h.Contains("tx.steps=2"))
}

func TestTestLogHandlerIgnoreDebug(t *testing.T) {
	h := NewTestLogHandler(WithIgnoreDebug())
	log := slog.New(h)

	log.Debug("hidden")
	log.Warn("shown", "group", slog.GroupValue(slog.String("a", "b")))

	assert.Equal(t, []string{"[0] WARN: shown group.a=b"}, h.Lines())
}
