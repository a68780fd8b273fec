package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" Warn ", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)

	assert.Equal(t, slog.LevelWarn, LevelWarn.Slog())
	assert.Equal(t, slog.LevelInfo, LogLevel("other").Slog())
}

func TestInit(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: LevelWarn, Output: &buf}))
	assert.Error(t, Init(Config{}), "second Init must fail")

	WithComponent("routes").Info("hidden")
	WithCar(3).Warn("shown", "quadrant", "NW")
	WithLock("SE").Error("also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "car=3")
	assert.Contains(t, out, "quadrant=NW")
	assert.Contains(t, out, "lock=SE")
}

func TestGetLoggerDefault(t *testing.T) {
	Reset()
	defer Reset()

	l := GetLogger()
	require.NotNil(t, l)
	assert.Same(t, l, GetLogger())
}
