// Package mcpserver exposes chart shaping, rendering and payload validation as MCP tools.
package mcpserver

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"cpgantt/internal/logging"
	"cpgantt/internal/shape"
)

const version = "1.0.0"

// Config carries the settings every tool call starts from.
type Config struct {
	Fields   shape.FieldMap
	Location *time.Location
	Width    float64
	Height   float64
	Months   int
	Logger   *log.Logger
	Now      func() time.Time
}

// NewMCPServer builds the server without starting it.
func NewMCPServer(cfg Config) *server.MCPServer {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	s := server.NewMCPServer(
		"cpgantt",
		version,
		server.WithLogging(),
	)
	h := &toolHandler{cfg: cfg}

	s.AddTool(mcp.NewTool("shape_rows",
		mcp.WithDescription("Shape a chart payload into checkpoint rows (team, project, CP3..CP5, days remaining) with a report of dropped records."),
		mcp.WithString("payload_json", mcp.Description("The chart payload as JSON: tables.DEFAULT records with dimID fields, optional fields/theme/style."), mcp.Required()),
	), h.handleShapeRows)

	s.AddTool(mcp.NewTool("render_svg",
		mcp.WithDescription("Render a chart payload as an SVG checkpoint timeline."),
		mcp.WithString("payload_json", mcp.Description("The chart payload as JSON."), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("SVG width in pixels. Defaults to 1200.")),
		mcp.WithNumber("height", mcp.Description("SVG height in pixels. 0 fits every row.")),
		mcp.WithNumber("months", mcp.Description("Window length in calendar months (1-12).")),
		mcp.WithString("start", mcp.Description("Window start date, e.g. 2025-03-24, 24/Mar/25 or 20250324.")),
	), h.handleRenderSVG)

	s.AddTool(mcp.NewTool("validate_payload",
		mcp.WithDescription("Check a chart payload against the payload schema and report how many rows would be drawn."),
		mcp.WithString("payload_json", mcp.Description("The chart payload as JSON."), mcp.Required()),
	), h.handleValidatePayload)

	return s
}

// Serve runs the server over stdio until the client disconnects.
func Serve(_ context.Context, cfg Config) error {
	return server.ServeStdio(NewMCPServer(cfg))
}
