package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

func writeEML(t *testing.T, path, subject string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := strings.ReplaceAll(`From: Alice <alice@example.com>
To: bob@example.com
Subject: `+subject+`
Date: Mon, 04 Mar 2024 10:00:00 +0000
Message-ID: <`+filepath.Base(path)+`@example.com>
Content-Type: text/plain

Body of `+subject+`.
`, "\n", "\r\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIndexCmd_RequiresPath(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "index")

	assert.Error(t, err)
}

func TestIndexCmd_Files(t *testing.T) {
	setupTestServices(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "one.eml")
	writeEML(t, path, "Invoice March")

	out, err := execute(t, "index", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 1 mails.")

	out, err = execute(t, "search", "invoice")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoice March")
}

func TestIndexCmd_Directory(t *testing.T) {
	setupTestServices(t)
	dir := t.TempDir()
	writeEML(t, filepath.Join(dir, "a.eml"), "Alpha")
	writeEML(t, filepath.Join(dir, "work", "b.eml"), "Beta")

	out, err := execute(t, "index", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 mails.")
}

func TestIndexCmd_MissingPath(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "index", filepath.Join(t.TempDir(), "missing.eml"))

	assert.Error(t, err)
}

func TestIndexCmd_DisableAndEnable(t *testing.T) {
	stack := setupTestServices(t)

	out, err := execute(t, "index", "disable")
	require.NoError(t, err)
	assert.Contains(t, out, "Mail indexing disabled")
	assert.False(t, stack.indexer.State().MailIndexEnabled)

	out, err = execute(t, "index", "enable")
	require.NoError(t, err)
	assert.Contains(t, out, "Mail indexing enabled")
	assert.True(t, stack.indexer.State().MailIndexEnabled)
}

func TestIndexCmd_Disabled(t *testing.T) {
	stack := setupTestServices(t)
	require.NoError(t, stack.indexer.DisableMailIndexing(t.Context()))
	path := filepath.Join(t.TempDir(), "one.eml")
	writeEML(t, path, "Invoice")

	_, err := execute(t, "index", path)

	assert.ErrorIs(t, err, domain.ErrMailIndexDisabled)
}
