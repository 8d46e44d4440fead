package mcpserver

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/apperr"
)

// Tool results are always a structured JSON envelope with a "status"
// discriminator; errors carry a stable kind tag instead of raw failures.

func okResult(result any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(map[string]any{
		"status": "ok",
		"result": result,
	}, "", "  ")
	if err != nil {
		return errResult(apperr.Upstream(err, "encode result"))
	}
	return mcp.NewToolResultText(string(out))
}

func errResult(err error) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(map[string]any{
		"status":     "error",
		"error_kind": apperr.KindOf(err),
		"message":    err.Error(),
	}, "", "  ")
	return mcp.NewToolResultError(string(out))
}

func invalidResult(msg string) *mcp.CallToolResult {
	return errResult(apperr.InvalidRequest("%s", msg))
}
