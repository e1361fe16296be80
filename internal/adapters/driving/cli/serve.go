package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/charterbook/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API",
	Long: `Serve relations, documents and the cap table over HTTP.

Besides the JSON API under /api/v1 the server exposes /healthz, Prometheus
metrics on /metrics and the MCP streamable transport on /mcp. Relation
watches stream snapshots as server-sent events.

Examples:
  charterbook serve
  charterbook serve --addr 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func listenAddr() string {
	if serveAddr != "" {
		return serveAddr
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil && settings.Server.Addr != "" {
			return settings.Server.Addr
		}
	}
	return domain.DefaultAppSettings().Server.Addr
}

func runServe(cmd *cobra.Command, _ []string) error {
	if relationService == nil {
		return errNoRelations
	}
	if documentService == nil {
		return errNoDocuments
	}

	mcpServer, err := newMCPServer()
	if err != nil {
		return err
	}

	server, err := httpapi.NewServer(httpapi.Config{
		Relations: relationService,
		Documents: documentService,
		CapTable:  capTableService,
		Metrics:   metricsHandler,
		MCP:       mcpServer.Handler(),
	})
	if err != nil {
		return err
	}

	addr := listenAddr()
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", addr)
	logger.Info("HTTP server listening on %s", addr)
	return server.Run(cmd.Context(), addr)
}
