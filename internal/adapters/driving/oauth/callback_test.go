package oauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

func startServer(t *testing.T, state string) *CallbackServer {
	t.Helper()
	server := NewCallbackServer(0, state)
	require.NoError(t, server.Start())
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func callback(t *testing.T, server *CallbackServer, params url.Values) string {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?%s", server.Port(), params.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestCallbackServer_StartPicksPort(t *testing.T) {
	server := startServer(t, "state")

	assert.Positive(t, server.Port())
	assert.Equal(t, fmt.Sprintf("http://localhost:%d/callback", server.Port()), server.RedirectURI())
}

func TestCallbackServer_Success(t *testing.T) {
	server := startServer(t, "abc")

	body := callback(t, server, url.Values{"state": {"abc"}, "code": {"the-code"}})
	assert.Contains(t, body, "Authorization successful")

	code, err := server.WaitForCode(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "the-code", code)
}

func TestCallbackServer_StateMismatch(t *testing.T) {
	server := startServer(t, "abc")

	body := callback(t, server, url.Values{"state": {"ABC"}, "code": {"x"}})
	assert.Contains(t, body, "invalid state parameter")

	_, err := server.WaitForCode(waitCtx(t))
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestCallbackServer_MissingCode(t *testing.T) {
	server := startServer(t, "abc")

	callback(t, server, url.Values{"state": {"abc"}})

	_, err := server.WaitForCode(waitCtx(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no authorization code")
}

func TestCallbackServer_ProviderError(t *testing.T) {
	server := startServer(t, "abc")

	body := callback(t, server, url.Values{"error": {"access_denied"}, "error_description": {"<denied>"}})
	assert.Contains(t, body, "&lt;denied&gt;")

	_, err := server.WaitForCode(waitCtx(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestCallbackServer_RepeatedFailuresDoNotBlock(t *testing.T) {
	server := startServer(t, "abc")

	callback(t, server, url.Values{"state": {"wrong"}})
	callback(t, server, url.Values{"state": {"wrong"}})

	_, err := server.WaitForCode(waitCtx(t))
	assert.Error(t, err)
}

func TestCallbackServer_WaitForCodeHonoursContext(t *testing.T) {
	server := startServer(t, "abc")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := server.WaitForCode(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallbackServer_StopTwice(t *testing.T) {
	server := NewCallbackServer(0, "abc")
	require.NoError(t, server.Start())

	assert.NoError(t, server.Stop())
	assert.NoError(t, server.Stop())
}

func TestCallbackServer_StopNotStarted(t *testing.T) {
	assert.NoError(t, NewCallbackServer(0, "abc").Stop())
}

func TestResultHTML_Escapes(t *testing.T) {
	page := resultHTML("Done", "<script>")

	assert.Contains(t, page, "pimsearch - Done")
	assert.Contains(t, page, "&lt;script&gt;")
	assert.NotContains(t, page, "<script>")
}

func TestFindAvailablePort(t *testing.T) {
	port, err := FindAvailablePort(18100, 18150)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, 18100)
	assert.LessOrEqual(t, port, 18150)
}

func TestFindAvailablePort_InvalidRange(t *testing.T) {
	_, err := FindAvailablePort(9000, 8999)

	assert.Error(t, err)
}
