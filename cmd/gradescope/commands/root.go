package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gradescope-cli/lib/restyutil"
	"gradescope-cli/lib/scrapers/gradescope/core"
	"gradescope-cli/lib/scrapers/gradescope/view"
	"gradescope-cli/lib/telemetry"
	"gradescope-cli/lib/timezone"
	"gradescope-cli/lib/tokenstore"
	"gradescope-cli/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
)

// set up by the root command before any subcommand runs
var (
	client *view.Client
	tel    telemetry.Telemetry
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "gradescope.json5", "The config file to read.")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log every request.")
}

var rootCmd = &cobra.Command{
	Use:           "gradescope",
	Short:         "gradescope is an unofficial terminal client for Gradescope.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		telemetry.InitSlog(debug || cfg.Debug)

		tel, err = telemetry.SetupFromEnv(cmd.Context(), "gradescope-cli")
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to setup telemetry", "err", err)
		}

		err = timezone.SetLocation(cfg.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}

		client, err = newClient(cmd.Context(), cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := tel.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	},
}

func newClient(ctx context.Context, cfg resolvedConfig) (*view.Client, error) {
	opts := core.ClientOptions{
		BaseUrl:          cfg.BaseUrl,
		Tokens:           tokenstore.File{Path: cfg.TokenFile},
		CloudflareBypass: cfg.CloudflareBypass,
	}
	if cfg.HttpDumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(cfg.HttpDumpDir)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare http dump dir: %w", err)
		}
		opts.HttpDump = output
	}

	coreClient, err := core.NewClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	coreClient.Subscribe(core.LogObserver{})

	return view.NewClient(coreClient, view.ClientOptions{
		Cache: &view.Cache{
			Path:    cfg.CacheFile,
			MaxSize: cfg.CacheMaxBytes,
		},
	}), nil
}

var notLoggedIn = errors.New("not logged in, run `gradescope login` first")

func requireLogin() error {
	if client.NeedsLogin() {
		return notLoggedIn
	}
	return nil
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		serviceutil.Fatal(fmt.Sprintf("%s failed", rootCmd.Name()), err)
	}
}
