package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/diogo/msgcoach/internal/config"
	"github.com/diogo/msgcoach/internal/server"
	"github.com/diogo/msgcoach/internal/session"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web UI",
	Long: `Serve a small web UI for one shared coach session.

The page offers the same controls as the terminal coach: presets, tone and model
selection, privacy mode, session history and export. Prometheus metrics are
exposed on /metrics. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), cmd)
	},
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	srvCfg := cfg.Server
	if addrFlag != "" {
		srvCfg.Addr = addrFlag
	}

	settings, err := resolveSettings(cfg)
	if err != nil {
		return err
	}

	apiKey := config.LoadAPIKey()
	if apiKey == "" && !mockFlag {
		logger.Warn("GEMINI_API_KEY is not set; rewrites will fail until it is")
	}

	inv := newInvoker(apiKey, logger)
	sess := session.New(inv, session.WithSettings(settings), session.WithLogger(logger))
	srv := server.New(sess, srvCfg,
		server.WithLogger(logger),
		server.WithAPIKeyConfigured(apiKey != "" || mockFlag),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(cmd.ErrOrStderr(), successStyle.Render(fmt.Sprintf("✦ Message Coach web UI on http://%s", srvCfg.Addr)))
	return deps.Serve(ctx, srv)
}
