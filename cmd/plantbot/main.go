// plantbot: plant-protein formulation lab.
//
// A guided dialogue collects a plant-based dairy formulation, a random
// forest trained on synthetic data scores its texture, and every result is
// archived in a lab notebook. The same lab is available to AI clients over
// MCP (stdio) and directly from the terminal.
//
// Usage:
//
//	plantbot serve                 # Start MCP server (stdio transport)
//	plantbot chat                  # Guided formulation in the terminal
//	plantbot score --source pea ...
//	plantbot ingredients list|add
//	plantbot history list|rename|delete|pin
//	plantbot version
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/HendryAvila/plantbot/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// cobra prints the error itself.
	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
