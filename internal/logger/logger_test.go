package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	debug := New("debug")
	assert.True(t, debug.Desugar().Core().Enabled(zapcore.DebugLevel))

	for _, lvl := range []string{"info", "", "verbose"} {
		l := New(lvl)
		assert.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel), lvl)
		assert.True(t, l.Desugar().Core().Enabled(zapcore.InfoLevel), lvl)
	}
}
