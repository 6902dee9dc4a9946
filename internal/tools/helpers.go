// Package tools implements the MCP tool handlers of the formulation lab.
//
// Each tool follows the same shape:
// - A struct with its dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// User mistakes come back as tool errors (mcp.NewToolResultError); a Go
// error is reserved for failures the client cannot fix.
package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// floatArg extracts a finite number argument. JSON numbers arrive as
// float64; numeric strings are accepted too.
func floatArg(req mcp.CallToolRequest, key string) (float64, bool) {
	var f float64
	switch v := req.GetArguments()[key].(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// intArg extracts an integer argument, returning defaultVal if the key is
// missing or not a number.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// requireFloats reads every key or reports the first missing one.
func requireFloats(req mcp.CallToolRequest, keys ...string) ([]float64, *mcp.CallToolResult) {
	out := make([]float64, len(keys))
	for i, k := range keys {
		v, ok := floatArg(req, k)
		if !ok {
			return nil, mcp.NewToolResultError(fmt.Sprintf("'%s' is required and must be a number", k))
		}
		out[i] = v
	}
	return out, nil
}

// jsonBlock renders v as an indented JSON code block.
func jsonBlock(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("(unrenderable: %v)", err)
	}
	return "```json\n" + string(data) + "\n```"
}
