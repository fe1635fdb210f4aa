// Package mcpserver exposes the latest analysis as an MCP tool.
package mcpserver

import (
	"context"
	"net/http"

	"github.com/BallDevTools/telegram-bot/internal/domain"
	"github.com/BallDevTools/telegram-bot/internal/notify"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	serverName    = "signalbot"
	serverVersion = "1.0.0"
	toolGetSignal = "get_signal"
)

type SignalSource interface {
	Latest(ctx context.Context) (domain.Analysis, error)
	Analyze(ctx context.Context) (domain.Analysis, error)
}

type GetSignalInput struct {
	Fresh bool `json:"fresh,omitempty" jsonschema:"run a new analysis instead of returning the cached one"`
}

type tools struct {
	tracer  trace.Tracer
	signals SignalSource
}

// NewServer builds an MCP server with the get_signal tool registered.
func NewServer(tracer trace.Tracer, signals SignalSource) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	t := &tools{tracer: tracer, signals: signals}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolGetSignal,
		Description: "Trading signal for the configured market: classification, confidence, reasons, patterns and indicators.",
	}, t.getSignal)

	return server
}

// NewHTTPHandler serves server over the streamable HTTP transport.
func NewHTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

func (t *tools) getSignal(ctx context.Context, _ *mcp.CallToolRequest, in GetSignalInput) (*mcp.CallToolResult, any, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.get-signal", trace.WithAttributes(attribute.Bool("fresh", in.Fresh)))
	defer span.End()

	load := t.signals.Latest
	if in.Fresh {
		load = t.signals.Analyze
	}
	a, err := load(ctx)
	if err != nil {
		return nil, nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: notify.Format(a)}},
	}, nil, nil
}
