package rocq

// mcpresult.go — small MCP CallToolResult helpers shared by every tool
// handler.

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TextResult wraps a string in an MCP CallToolResult.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// ErrResult wraps an error in an MCP CallToolResult.
func ErrResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: err.Error()},
		},
	}
}

// JSONResult marshals v and wraps it as a text result; tools returning
// structured data (steps, proofs, goals, context) all render this way.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return TextResult(string(data)), nil
}
