package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchCmd_RequiresDirectory(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "watch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail.maildir is not set")
}

func TestWatchCmd_ScansThenStops(t *testing.T) {
	stack := setupTestServices(t)
	dir := t.TempDir()
	writeEML(t, filepath.Join(dir, "a.eml"), "Alpha")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"watch", dir})
	defer rootCmd.SetArgs(nil)
	err := rootCmd.ExecuteContext(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, stack.indexer.State().IndexedMailCount)
	assert.Contains(t, buf.String(), "Indexed 1 mails from")
}
