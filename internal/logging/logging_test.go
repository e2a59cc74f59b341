package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dendrascience/fusecompat/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		level   logrus.Level
		json    bool
		wantErr bool
	}{
		{"text info", config.LoggingConfig{Level: "info", Format: "text"}, logrus.InfoLevel, false, false},
		{"json debug", config.LoggingConfig{Level: "debug", Format: "json"}, logrus.DebugLevel, true, false},
		{"bad level", config.LoggingConfig{Level: "loud", Format: "text"}, 0, false, true},
		{"bad format", config.LoggingConfig{Level: "warn", Format: "xml"}, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, closer, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer closer.Close()

			assert.Equal(t, tt.level, log.GetLevel())
			_, isJSON := log.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.json, isJSON)
		})
	}
}

func TestNewFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "fusecompat.log")
	log, closer, err := New(config.LoggingConfig{Level: "info", Format: "json", File: file, MaxSizeMB: 1})
	require.NoError(t, err)

	log.WithField("op", "getattr").Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"op":"getattr"`)
}
