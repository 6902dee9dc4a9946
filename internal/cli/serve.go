package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/plantbot/internal/server"
	"github.com/HendryAvila/plantbot/internal/telemetry"
)

// NewServeCmd creates the 'serve' command for running the MCP server.
func NewServeCmd(opts *globalOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio transport)",
		Long: `Start the plantbot MCP server on stdin/stdout.

The server trains the model once at startup, then exposes the lab_* tools,
the lab-start and lab-status prompts, and the plantbot://model/status resource.
Logs go to stderr so they never interleave with the protocol.`,
		Example: `  # Run directly
  plantbot serve

  # Expose Prometheus metrics while serving
  plantbot serve --metrics-addr :9464`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}

			s, app, cleanup, err := server.New(cmd.Context(), cfg)
			defer cleanup()
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			if cfg.MetricsAddr != "" {
				stop := serveMetrics(cfg.MetricsAddr, telemetry.Handler(app.Registry))
				defer stop()
			}
			return mcpserver.ServeStdio(s)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Listen address for /metrics (empty disables)")
	return cmd
}

// serveMetrics starts the /metrics listener and returns its shutdown func.
func serveMetrics(addr string, h http.Handler) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Printf("metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("WARNING: metrics listener: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("WARNING: metrics shutdown: %v", err)
		}
	}
}
