package registry

import (
	"context"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// EnableWritesEnv turns on tools that write files to disk.
const EnableWritesEnv = "PEERXCEL_ENABLE_WRITES"

// WriteToolFilter hides tools that create files unless writes are enabled.
type WriteToolFilter struct {
	allowWrites bool
}

// NewWriteToolFilter constructs a filter with an explicit setting.
func NewWriteToolFilter(allowWrites bool) *WriteToolFilter {
	return &WriteToolFilter{allowWrites: allowWrites}
}

// NewWriteToolFilterFromEnv reads PEERXCEL_ENABLE_WRITES (1, true or yes).
func NewWriteToolFilterFromEnv() *WriteToolFilter {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(EnableWritesEnv)))
	return NewWriteToolFilter(v == "1" || v == "true" || v == "yes")
}

// AllowWrites reports whether write tools are enabled.
func (f *WriteToolFilter) AllowWrites() bool { return f.allowWrites }

// FilterTools implements server tool filtering semantics. With writes
// disabled, tools prefixed export_ or write_ are dropped from discovery.
func (f *WriteToolFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if f.allowWrites {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if isWriteTool(t.Name) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isWriteTool(name string) bool {
	name = strings.ToLower(name)
	return strings.HasPrefix(name, "export_") || strings.HasPrefix(name, "write_")
}
