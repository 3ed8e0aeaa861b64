package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/peerxcel/internal/corpus"
)

func TestScanHooksLogsAndCounts(t *testing.T) {
	var buf bytes.Buffer
	h := NewScanHooks(zerolog.New(&buf).Level(zerolog.DebugLevel))

	var _ corpus.Observer = h
	h.SourceLoaded("/data/Consumer_Peers.xlsx", 3, 12*time.Millisecond)
	h.SourceFailed(errors.New("corpus: read /data/broken.xlsx: zip: not a valid zip file"))

	loaded, failed := h.Counts()
	require.EqualValues(t, 1, loaded)
	require.EqualValues(t, 1, failed)

	out := buf.String()
	require.Contains(t, out, `"message":"source loaded"`)
	require.Contains(t, out, `"sheets":3`)
	require.Contains(t, out, `"level":"warn"`)
	require.Contains(t, out, "broken.xlsx")

	buf.Reset()
	h.SourceFailed(&corpus.SourceReadError{Path: "/data/a.xlsx", Sheet: "Charts", Err: errors.New("xml syntax error")})
	require.Contains(t, buf.String(), `"sheet":"Charts"`)
}

func TestLogCacheStats(t *testing.T) {
	var buf bytes.Buffer
	LogCacheStats(zerolog.New(&buf), corpus.Stats{Hits: 4, Misses: 2, Failures: 1, Entries: 2})
	require.Contains(t, buf.String(), `"hits":4`)
	require.Contains(t, buf.String(), `"failures":1`)
}

func TestServerHooksLogToolCalls(t *testing.T) {
	var buf bytes.Buffer
	hooks := ServerHooks(zerolog.New(&buf))
	require.Len(t, hooks.OnAfterCallTool, 1)

	req := &mcp.CallToolRequest{}
	req.Params.Name = "resolve_company"
	hooks.OnAfterCallTool[0](context.Background(), 1, req, mcp.NewToolResultError("NOT_FOUND: x"))

	require.Contains(t, buf.String(), `"tool":"resolve_company"`)
	require.Contains(t, buf.String(), `"is_error":true`)
}
