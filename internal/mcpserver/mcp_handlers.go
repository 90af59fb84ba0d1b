package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"cpgantt/internal/chart"
	"cpgantt/internal/dateparse"
	"cpgantt/internal/format"
	"cpgantt/internal/payload"
)

const defaultWidth = 1200

type toolHandler struct {
	cfg Config
}

// load validates and decodes the payload_json argument into a fresh chart.
func (h *toolHandler) load(request mcp.CallToolRequest) (*chart.Chart, error) {
	raw := strings.TrimSpace(request.GetString("payload_json", ""))
	if raw == "" {
		return nil, errors.New("payload_json is required")
	}
	if err := payload.Validate([]byte(raw)); err != nil {
		return nil, err
	}
	p, err := payload.Decode([]byte(raw))
	if err != nil {
		return nil, err
	}
	c := chart.New(chart.Options{Fields: h.cfg.Fields, Location: h.cfg.Location, Logger: h.cfg.Logger})
	c.Load(p)
	return c, nil
}

func (h *toolHandler) handleShapeRows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := h.load(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid payload: %v", err)), nil
	}
	res := format.NewRowsResult(c.Rows(), c.Report(), h.cfg.Now())
	jsonData, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleRenderSVG(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := h.load(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid payload: %v", err)), nil
	}

	width := request.GetFloat("width", h.cfg.Width)
	if width <= 0 {
		width = defaultWidth
	}
	height := request.GetFloat("height", h.cfg.Height)
	months := request.GetInt("months", h.cfg.Months)
	if months < 0 || months > 12 {
		return mcp.NewToolResultError(fmt.Sprintf("months must be between 1 and 12, got %d", months)), nil
	}
	start, err := h.parseStart(request.GetString("start", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	now := h.cfg.Now()
	win := c.ResolveWindow(now, start, months)
	var buf bytes.Buffer
	if err := c.WriteSVG(&buf, win, width, height, now); err != nil {
		h.cfg.Logger.Warn("render_svg failed", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (h *toolHandler) parseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, ok := dateparse.Parser{Location: h.cfg.Location}.Parse(s)
	if !ok {
		return time.Time{}, fmt.Errorf("start is not a date: %q", s)
	}
	return t, nil
}

func (h *toolHandler) handleValidatePayload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := h.load(request)
	if err != nil {
		var verrs payload.ValidationErrors
		if errors.As(err, &verrs) {
			lines := make([]string, 0, len(verrs)+1)
			lines = append(lines, fmt.Sprintf("invalid payload: %d schema violation(s)", len(verrs)))
			for _, v := range verrs {
				lines = append(lines, "- "+v.Error())
			}
			return mcp.NewToolResultError(strings.Join(lines, "\n")), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("invalid payload: %v", err)), nil
	}
	return mcp.NewToolResultText("valid: " + c.Report().String()), nil
}
