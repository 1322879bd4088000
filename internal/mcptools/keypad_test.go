package mcptools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keypad-calculator/internal/keypad"
)

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (*mcp.CallToolResult, KeypadResult) {
	t.Helper()

	request := mcp.CallToolRequest{}
	request.Params.Arguments = args

	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])

	var out KeypadResult
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		return result, KeypadResult{}
	}
	return result, out
}

func TestToolDefinitions(t *testing.T) {
	k := NewKeypad(keypad.New())

	assert.Equal(t, ToolPress, k.PressTool().Name)
	assert.Equal(t, ToolClear, k.ClearTool().Name)
	assert.Equal(t, ToolDisplay, k.DisplayTool().Name)
	assert.Contains(t, k.PressTool().InputSchema.Required, "keys")
}

func TestHandlePressComputes(t *testing.T) {
	k := NewKeypad(keypad.New())

	result, out := call(t, k.HandlePress, map[string]interface{}{"keys": "8 + 2 ="})

	assert.False(t, result.IsError)
	assert.Equal(t, "10", out.Display)
	assert.Equal(t, 4, out.Applied)
	assert.Equal(t, keypad.State{Current: "10"}, out.State)
}

func TestHandlePressKeepsStateAcrossCalls(t *testing.T) {
	k := NewKeypad(keypad.New())

	call(t, k.HandlePress, map[string]interface{}{"keys": "5 ÷"})
	_, out := call(t, k.HandlePress, map[string]interface{}{"keys": "0 ="})

	assert.Equal(t, keypad.ErrorText, out.Display)
}

func TestHandlePressDigitLimit(t *testing.T) {
	k := NewKeypad(keypad.New())

	result, out := call(t, k.HandlePress, map[string]interface{}{"keys": "1 2 3 4 5 6 7 8"})

	assert.True(t, result.IsError)
	assert.Equal(t, "maximum of 7 digits reached", out.Notice)
	assert.Equal(t, "1234567", out.Display)
	assert.Equal(t, 7, out.Applied)
}

func TestHandlePressRejectsMissingAndUnknownKeys(t *testing.T) {
	k := NewKeypad(keypad.New())

	result, _ := call(t, k.HandlePress, map[string]interface{}{})
	assert.True(t, result.IsError)

	result, _ = call(t, k.HandlePress, map[string]interface{}{"keys": "sqrt"})
	assert.True(t, result.IsError)
}

func TestHandleClearAndDisplay(t *testing.T) {
	k := NewKeypad(keypad.New())

	call(t, k.HandlePress, map[string]interface{}{"keys": "4 2"})
	_, out := call(t, k.HandleDisplay, nil)
	assert.Equal(t, "42", out.Display)

	_, out = call(t, k.HandleClear, nil)
	assert.Equal(t, "0", out.Display)
	assert.Equal(t, keypad.State{}, out.State)
}
