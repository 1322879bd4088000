package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"keypad-calculator/internal/keypad"
	"keypad-calculator/internal/observability"
)

// KeypadResult is the JSON text returned by every keypad tool.
type KeypadResult struct {
	Display string       `json:"display"`
	Compact bool         `json:"compact"`
	State   keypad.State `json:"state"`
	Applied int          `json:"applied"`
	Notice  string       `json:"notice,omitempty"`
}

// Keypad exposes one calculator to an MCP client. Tool calls may arrive
// concurrently so access to the calculator is serialised.
type Keypad struct {
	mu   sync.Mutex
	calc *keypad.Calculator
}

// NewKeypad wraps calc. The calculator must not be used elsewhere.
func NewKeypad(calc *keypad.Calculator) *Keypad {
	return &Keypad{calc: calc}
}

// PressTool returns the MCP tool definition
func (k *Keypad) PressTool() mcp.Tool {
	return mcp.NewTool(ToolPress,
		mcp.WithDescription("Press calculator keys in order. Keys: 0-9, the decimal separator, + - × ÷ (or * /), =, AC, +/-, %"),
		mcp.WithString("keys", mcp.Required(), mcp.Description("Whitespace separated keys, e.g. \"7 , 5 + 2 =\"")),
	)
}

// HandlePress processes the tool request
func (k *Keypad) HandlePress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys := keypad.SplitKeys(mcp.ParseString(req, "keys", ""))
	if len(keys) == 0 {
		return mcp.NewToolResultError("keys parameter is required"), nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	applied, err := k.calc.PressAll(keys)
	switch {
	case errors.Is(err, keypad.ErrDigitLimitExceeded):
		notice := fmt.Sprintf("maximum of %d digits reached", k.calc.MaxDigits())
		observability.Logger.Info("digit limit reached", zap.Int("applied", applied), zap.Strings("keys", keys))
		return k.result(applied, notice, true)
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("Failed to press keys: %v", err)), nil
	}

	return k.result(applied, "", false)
}

// ClearTool returns the MCP tool definition
func (k *Keypad) ClearTool() mcp.Tool {
	return mcp.NewTool(ToolClear,
		mcp.WithDescription("Clear the calculator (AC)"),
	)
}

// HandleClear processes the tool request
func (k *Keypad) HandleClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.calc.Clear()
	return k.result(0, "", false)
}

// DisplayTool returns the MCP tool definition
func (k *Keypad) DisplayTool() mcp.Tool {
	return mcp.NewTool(ToolDisplay,
		mcp.WithDescription("Read the calculator display without pressing anything"),
	)
}

// HandleDisplay processes the tool request
func (k *Keypad) HandleDisplay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.result(0, "", false)
}

// result renders the current calculator view. Callers hold k.mu.
func (k *Keypad) result(applied int, notice string, isError bool) (*mcp.CallToolResult, error) {
	display := k.calc.Display()

	data, err := json.Marshal(KeypadResult{
		Display: display.Text,
		Compact: display.Compact,
		State:   k.calc.State(),
		Applied: applied,
		Notice:  notice,
	})
	if err != nil {
		return nil, fmt.Errorf("encode keypad result: %w", err)
	}

	if isError {
		return mcp.NewToolResultError(string(data)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
