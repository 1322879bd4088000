package main

import (
	"log"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"keypad-calculator/internal/config"
	"keypad-calculator/internal/keypad"
	"keypad-calculator/internal/mcptools"
	"keypad-calculator/internal/observability"
)

const version = "0.1.0"

// keypad-mcp serves a single calculator over MCP stdio. Logs go to stderr so
// they never interleave with the protocol on stdout.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := observability.InitLogger(cfg.LogLevel); err != nil {
		log.Fatal(err)
	}
	defer observability.SyncLogger()

	mcpServer := server.NewMCPServer(cfg.ServiceName, version,
		server.WithToolCapabilities(false),
	)

	calc := keypad.New(cfg.KeypadOptions()...)
	mcptools.Register(mcpServer, mcptools.NewKeypad(calc))

	observability.Logger.Info("serving keypad over MCP stdio",
		zap.String("separator", string(cfg.Separator)),
		zap.Int("max_digits", cfg.MaxDigits),
	)

	if err := server.ServeStdio(mcpServer); err != nil {
		observability.Logger.Fatal("MCP server error", zap.Error(err))
	}
}
