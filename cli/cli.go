package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"restaurant-manager/api"
	"restaurant-manager/config"
	"restaurant-manager/core/upstream"
	"restaurant-manager/core/utils"
)

const redacted = "********"

// Execute runs the command line; without a subcommand the server starts.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "restaurant-manager",
		Short:         "Restaurant management web front end",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(newServeCommand(), newConfigCommand(), newUpstreamCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	logger := utils.NewLogger(cfg.IsDebug())
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := api.NewServerDeps(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("server deps: %w", err)
	}
	srv, err := api.NewServer(cfg, deps, logger)
	if err != nil {
		deps.Close()
		return fmt.Errorf("server init: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		_ = srv.Stop(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown: %v", err)
	}
	return nil
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration, then print it with secrets hidden",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	})
	return cmd
}

func printConfig(out io.Writer, cfg *config.AppConfig) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(redactConfig(cfg)); err != nil {
		return err
	}
	return enc.Close()
}

func redactConfig(cfg *config.AppConfig) config.AppConfig {
	c := *cfg
	c.Session.Secret = mask(c.Session.Secret)
	c.Session.Redis.Password = mask(c.Session.Redis.Password)
	c.Observability.MetricsToken = mask(c.Observability.MetricsToken)
	return c
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	return redacted
}

func newUpstreamCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upstream",
		Short: "Upstream API helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Probe the configured API base URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			return pingUpstream(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	})
	return cmd
}

func pingUpstream(ctx context.Context, out io.Writer, cfg *config.AppConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := upstream.NewClient(upstream.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		VerifySSL: cfg.API.VerifySSL,
	}, utils.NewLoggerTo(io.Discard, false))
	if err != nil {
		return err
	}
	start := time.Now()
	status, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("%s unreachable: %w", client.BaseURL(), err)
	}
	fmt.Fprintf(out, "%s answered %d in %s\n", client.BaseURL(), status, time.Since(start).Round(time.Millisecond))
	return nil
}
