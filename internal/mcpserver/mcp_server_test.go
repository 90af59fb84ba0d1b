package mcpserver_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpgantt/internal/mcpserver"
)

const payloadJSON = `{
  "tables": {"DEFAULT": [
    {"dimID": {"team": "TX", "summary": "Apollo", "cp3Date": "2025-03-24", "cp5Date": "2025-09-09"}},
    {"dimID": {"team": "BX", "summary": "Borealis", "cp3Date": "6/May/25"}},
    {"dimID": {"team": "QA"}}
  ]}
}`

func call(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcpserver.NewMCPServer(mcpserver.Config{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2025, time.September, 1, 12, 0, 0, 0, time.UTC) },
	})
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "tool failures are reported in the result, not as errors")
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestShapeRows(t *testing.T) {
	res := call(t, "shape_rows", map[string]any{"payload_json": payloadJSON})
	require.False(t, res.IsError, text(t, res))

	var out struct {
		Rows []struct {
			Team          string `json:"team"`
			Project       string `json:"project"`
			CP3           string `json:"cp3"`
			DaysRemaining *int   `json:"daysRemaining"`
		} `json:"rows"`
		Report struct {
			Input      int `json:"input"`
			Kept       int `json:"kept"`
			MissingCP3 int `json:"missingCP3"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "Apollo", out.Rows[0].Project)
	assert.Equal(t, "2025-03-24", out.Rows[0].CP3)
	require.NotNil(t, out.Rows[0].DaysRemaining)
	assert.Equal(t, 8, *out.Rows[0].DaysRemaining)
	assert.Nil(t, out.Rows[1].DaysRemaining)
	assert.Equal(t, 3, out.Report.Input)
	assert.Equal(t, 1, out.Report.MissingCP3)
}

func TestRenderSVG(t *testing.T) {
	res := call(t, "render_svg", map[string]any{
		"payload_json": payloadJSON,
		"width":        800.0,
		"months":       3.0,
		"start":        "2025-03-01",
	})
	require.False(t, res.IsError, text(t, res))
	svg := text(t, res)
	assert.Contains(t, svg, `<svg xmlns="http://www.w3.org/2000/svg" width="800"`)
	assert.Contains(t, svg, `data-row=`)
}

func TestRenderSVG_Errors(t *testing.T) {
	t.Run("bad start", func(t *testing.T) {
		res := call(t, "render_svg", map[string]any{"payload_json": payloadJSON, "start": "someday"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "start is not a date")
	})
	t.Run("months out of range", func(t *testing.T) {
		res := call(t, "render_svg", map[string]any{"payload_json": payloadJSON, "months": 13.0})
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "months must be between 1 and 12")
	})
	t.Run("missing payload", func(t *testing.T) {
		res := call(t, "render_svg", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "payload_json is required")
	})
}

func TestValidatePayload(t *testing.T) {
	res := call(t, "validate_payload", map[string]any{"payload_json": payloadJSON})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, "valid: 2/3 rows kept (missing team: 0, missing cp3: 1)", text(t, res))

	res = call(t, "validate_payload", map[string]any{"payload_json": `{"tables": {"DEFAULT": [1]}, "style": []}`})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "schema violation")

	res = call(t, "validate_payload", map[string]any{"payload_json": `{not json`})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "invalid payload")
}
