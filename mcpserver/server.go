// Package mcpserver exposes the guide dispatcher as Model Context Protocol
// tools, over stdio or streamable HTTP.
package mcpserver

import (
	"context"
	"net/http"

	"github.com/hoangvvo/guide-agent/guide"
	"github.com/hoangvvo/guide-agent/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	Name = "guide-agent"

	ToolGetGuide    = "get_guide"
	ToolListRoutes  = "list_guide_routes"
	ToolRunWorkflow = "run_guide_workflow"
)

type GetGuideArgs struct {
	Query    string `json:"query" jsonschema:"the developer's question, verbatim"`
	Language string `json:"language,omitempty" jsonschema:"programming language the developer uses, if known"`
}

type RunWorkflowArgs struct {
	Query string `json:"query" jsonschema:"the developer's question, verbatim"`
}

type ListRoutesResult struct {
	Routes []string `json:"routes"`
}

// NewServer returns an MCP server with the guide tools registered. A nil
// dispatcher uses the embedded guide table.
func NewServer(d *guide.Dispatcher, version string) *mcp.Server {
	if d == nil {
		d = guide.Default()
	}
	wf := workflow.NewGuideWorkflow(d)

	server := mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGetGuide,
		Description: "Look up the documentation guide for a question about A2A agents, Mastra, Python, other languages, workflows or Agentverse integration",
	}, func(_ context.Context, _ *mcp.CallToolRequest, args GetGuideArgs) (*mcp.CallToolResult, guide.GuideResult, error) {
		g := d.Dispatch(guide.Query{Text: args.Query, Language: args.Language})
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: g.Markdown()}},
		}, g, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolListRoutes,
		Description: "List the guide routes in the order they are tested",
	}, func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, ListRoutesResult, error) {
		return nil, ListRoutesResult{Routes: d.Routes()}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolRunWorkflow,
		Description: "Get both the Mastra setup guide and the Agentverse integration guide for the same question",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args RunWorkflowArgs) (*mcp.CallToolResult, workflow.Output, error) {
		out, err := wf.Run(ctx, workflow.Input{Query: args.Query})
		if err != nil {
			return nil, workflow.Output{}, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: out.Setup.Markdown()},
				&mcp.TextContent{Text: out.Integration.Markdown()},
			},
		}, *out, nil
	})

	return server
}

// NewHandler serves server over stateless streamable HTTP with JSON responses.
func NewHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return server },
		&mcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true},
	)
}

// ServeStdio runs server on stdin/stdout until ctx is done or the client
// disconnects.
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
