package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTUICmd_RequiresTerminal(t *testing.T) {
	setupTestServices(t)
	original := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = original })

	_, err := execute(t, "tui")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestTUIPorts(t *testing.T) {
	setupTestServices(t)

	ports, err := tuiPorts()

	require.NoError(t, err)
	assert.NoError(t, ports.Validate())
	assert.NotNil(t, ports.Entities)
	assert.NotNil(t, ports.Progress)
}

func TestTUIPorts_NoServices(t *testing.T) {
	SetServices(nil)

	_, err := tuiPorts()

	assert.Error(t, err)
}
