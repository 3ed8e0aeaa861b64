package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/peerxcel/config"
)

func singleSlot() Limits {
	return NewLimits(config.LimitsConfig{MaxConcurrentRequests: 1, MaxOpenWorkbooks: 1})
}

func errorText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.True(t, res.IsError)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestMiddleware_AllowsWhenCapacity(t *testing.T) {
	limits := singleSlot()
	limits.OperationTimeout = 200 * time.Millisecond
	limits.AcquireRequestTimeout = 50 * time.Millisecond

	mw := NewMiddleware(NewController(limits))
	next := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		_, ok := ctx.Deadline()
		require.True(t, ok, "operation timeout must be applied")
		return mcp.NewToolResultText("ok"), nil
	}

	res, err := mw.ToolMiddleware(server.ToolHandlerFunc(next))(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, res)
	require.False(t, res.IsError)
}

func TestMiddleware_BusyWhenSaturated(t *testing.T) {
	limits := singleSlot()
	limits.AcquireRequestTimeout = 10 * time.Millisecond

	ctrl := NewController(limits)
	require.NoError(t, ctrl.AcquireRequest(context.Background()))
	defer ctrl.ReleaseRequest()

	mw := NewMiddleware(ctrl)
	next := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.Fatal("next should not be called when saturated")
		return nil, nil
	}

	res, err := mw.ToolMiddleware(server.ToolHandlerFunc(next))(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.Contains(t, errorText(t, res), "BUSY_RESOURCE: concurrent request limit reached (max=1)")
}

func TestMiddleware_TimeoutApplied(t *testing.T) {
	limits := singleSlot()
	limits.OperationTimeout = 20 * time.Millisecond
	limits.AcquireRequestTimeout = 20 * time.Millisecond

	mw := NewMiddleware(NewController(limits))
	next := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	res, err := mw.ToolMiddleware(server.ToolHandlerFunc(next))(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.Contains(t, errorText(t, res), "TIMEOUT")
}
