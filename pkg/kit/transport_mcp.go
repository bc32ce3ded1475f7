package kit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPDecodeResult holds the decoded request and an optional context enrichment.
type MCPDecodeResult struct {
	Request   any
	EnrichCtx func(context.Context) context.Context
}

// MCPTool binds a tool definition to the Endpoint that serves it. Decode
// turns the call arguments into the Endpoint's request.
type MCPTool struct {
	Tool     mcp.Tool
	Endpoint Endpoint
	Decode   func(mcp.CallToolRequest) (*MCPDecodeResult, error)
}

// Handler adapts the tool to mcp-go. Decode and endpoint errors are
// reported as tool errors, so the returned error is always nil.
func (t MCPTool) Handler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		decoded, err := t.Decode(req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		ctx = WithTransport(ctx, "mcp_stdio")
		if decoded.EnrichCtx != nil {
			ctx = decoded.EnrichCtx(ctx)
		}

		resp, err := t.Endpoint(ctx, decoded.Request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// RegisterMCPTools adds every tool to srv.
func RegisterMCPTools(srv *server.MCPServer, tools ...MCPTool) {
	for _, t := range tools {
		srv.AddTool(t.Tool, t.Handler())
	}
}
