package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/DoyleJ11/treasure-hunt-backend/internal/config"
)

func TestNew(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr bool
	}{
		{name: "json", cfg: config.LoggingConfig{Level: "info", Format: "json"}},
		{name: "console", cfg: config.LoggingConfig{Level: "debug", Format: "console"}},
		{name: "bad level", cfg: config.LoggingConfig{Level: "trace", Format: "json"}, wantErr: true},
		{name: "bad format", cfg: config.LoggingConfig{Level: "info", Format: "xml"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := New(tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNew_AppliesLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		t.Run(lvl, func(t *testing.T) {
			logger, err := New(config.LoggingConfig{Level: lvl, Format: "json"})
			require.NoError(t, err)

			want, err := zapcore.ParseLevel(lvl)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(want))
			if want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(want-1))
			}
		})
	}
}
