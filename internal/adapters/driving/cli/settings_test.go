package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/services"
)

func TestConfigShowCmd_Defaults(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "config")

	require.NoError(t, err)
	assert.Contains(t, out, "Max results: 50")
	assert.Contains(t, out, "Calendar window: 3 months")
	assert.Contains(t, out, "Indexing: enabled")
	assert.Contains(t, out, "Default folder: inbox")
	assert.Contains(t, out, "Status: not configured")
}

func TestConfigSetCmd(t *testing.T) {
	stack := setupTestServices(t)

	out, err := execute(t, "config", "set", services.KeyMaxResults, "0")
	require.NoError(t, err)
	assert.Contains(t, out, "search.max_results = 0")

	settings, err := stack.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, settings.Search.MaxResults)

	out, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Max results: unbounded")
}

func TestConfigSetCmd_MasksSecret(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "config", "set", services.KeyGoogleClientSecret, "GOCSPX-abcdefghijkl")

	require.NoError(t, err)
	assert.Contains(t, out, "GOCS...ijkl")
	assert.NotContains(t, out, "abcdefgh")
}

func TestConfigSetCmd_Invalid(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "config", "set", services.KeyCalendarMonths, "0")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "config", "set", "search.colour", "blue")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigKeysCmd(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "config", "keys")

	require.NoError(t, err)
	assert.Contains(t, out, services.KeyMaildir)
	assert.Contains(t, out, services.KeyGoogleTokenFile)
}

func TestConfigCmd_SettingsAlias(t *testing.T) {
	assert.Contains(t, configCmd.Aliases, "settings")
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Short", input: "abc123", expected: "****"},
		{name: "Exactly 8 chars", input: "12345678", expected: "****"},
		{name: "Long", input: "GOCSPX-1234567890abcdef", expected: "GOCS...cdef"},
		{name: "Empty", input: "", expected: "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskSecret(tt.input))
		})
	}
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "x", orDefault("x", "y"))
	assert.Equal(t, "y", orDefault("", "y"))
}
