package slots

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brobot-gg/slots/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "symbols.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"title": "Slots",
		"big_win_threshold": 500,
		"items": [
			{"key": "cherry", "emoji": "🍒", "weight": 3, "base_value": 5},
			{"key": "wild", "weight": 1, "base_value": 50, "is_wild": true}
		]
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cfg.BigWinThreshold)
	assert.Len(t, cfg.Items, 2)

	table, err := cfg.BuildTable()
	require.NoError(t, err)
	assert.Equal(t, float64(4), table.TotalWeight())
}

func TestLoadConfigDefaultsBigWinThreshold(t *testing.T) {
	path := writeConfig(t, `{"items": [{"key": "cherry", "weight": 1}]}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cfg.BigWinThreshold)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed json", content: `{"items": [`},
		{name: "no items", content: `{"items": []}`},
		{name: "missing key", content: `{"items": [{"weight": 1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, domain.ErrConfigInvalid)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
