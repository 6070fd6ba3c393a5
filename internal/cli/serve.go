package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/lwgate/internal/config"
	"github.com/roach88/lwgate/internal/metrics"
	"github.com/roach88/lwgate/internal/store"
	"github.com/roach88/lwgate/internal/web"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	ConfigPath string
	Addr       string
	DBPath     string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the license-gated catalog site",
		Long: `Serve the site until interrupted.

Gate sessions are kept in SQLite so a browser session survives a restart when
the session secret is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to site config (YAML)")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "session database path (overrides config)")

	return cmd
}

func runServe(ctx context.Context, rootOpts *RootOptions, opts *ServeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(rootOpts, cmd.ErrOrStderr(), slog.LevelInfo)

	cfg, err := loadServeConfig(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid config", err.Error())
	}

	st, err := store.Open(cfg.Session.DBPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "opening session database", err.Error())
	}
	defer st.Close()

	srv, err := web.New(cfg, st,
		web.WithLogger(logger),
		web.WithMetrics(metrics.NewRegistry(true)),
	)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "building server", err.Error())
	}

	if err := srv.Run(ctx); err != nil {
		return WrapExitError(ExitCommandError, "serve", err)
	}
	return nil
}

// loadServeConfig reads the config file, or the defaults when none is given,
// and applies flag overrides.
func loadServeConfig(opts *ServeOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.DBPath != "" {
		cfg.Session.DBPath = opts.DBPath
	}
	return cfg, cfg.Validate()
}
