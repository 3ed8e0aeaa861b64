package mcperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.True(t, res.IsError)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestNewUsesCatalogDefaults(t *testing.T) {
	text := resultText(t, New(NotFound, ""))
	require.Equal(t, "NOT_FOUND: no matching company in the corpus | nextSteps: Check the identifier spelling; Try resolve_company with a name", text)

	text = resultText(t, Wrapf(InvalidQuery, "name %q too short", "RL"))
	require.Contains(t, text, `INVALID_QUERY: name "RL" too short`)
}

func TestFromText(t *testing.T) {
	text := resultText(t, FromText("CURSOR_INVALID: failed to decode cursor"))
	require.Contains(t, text, "CURSOR_INVALID: failed to decode cursor | nextSteps: Restart pagination")

	text = resultText(t, FromText(""))
	require.Contains(t, text, "VALIDATION: invalid inputs")

	text = resultText(t, FromText("CUSTOM: message"))
	require.Equal(t, "CUSTOM: message", text)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	errMissing := errors.New("entity: not found")
	classify := func(err error) (Code, bool) {
		if errors.Is(err, errMissing) {
			return NotFound, true
		}
		return "", false
	}

	text := resultText(t, FromError(fmt.Errorf("resolve RL.N: %w", errMissing), classify))
	require.Contains(t, text, "NOT_FOUND: resolve RL.N: entity: not found")

	text = resultText(t, FromError(fmt.Errorf("extract: %w", context.DeadlineExceeded), classify))
	require.Contains(t, text, "TIMEOUT: operation exceeded")

	text = resultText(t, FromError(errors.New("boom"), classify))
	require.Contains(t, text, "INTERNAL: boom")
}

func TestLookup(t *testing.T) {
	e, ok := Lookup(BusyResource)
	require.True(t, ok)
	require.True(t, e.Retryable)

	_, ok = Lookup(Code("NOPE"))
	require.False(t, ok)
}
