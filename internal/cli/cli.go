package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/pfr-pbp/internal/catalog"
	"github.com/pfrederiksen/pfr-pbp/internal/config"
	"github.com/pfrederiksen/pfr-pbp/internal/logger"
	"github.com/pfrederiksen/pfr-pbp/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitPartial = 2
)

var (
	flagDataDir  string
	flagFormat   string
	flagLogLevel string
	flagVerbose  bool

	// exitCode is raised to ExitPartial by a command that finished with
	// per-item failures.
	exitCode = ExitSuccess
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	exitCode = ExitSuccess

	cmd := &cobra.Command{
		Use:   "pfr-pbp",
		Short: "Scrape and normalize football play-by-play data",
		Long: `Download schedule and box-score pages from pro-football-reference.com,
normalize every play into an 8-column record, bucket games by outcome and
assemble a padded JSON dataset. Also normalizes exported music-library CSVs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", ".", "Data directory (or env: "+config.EnvDataDir+")")
	cmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging and output")

	cmd.AddCommand(
		newFetchCmd(),
		newProcessCmd(),
		newAssembleCmd(),
		newMusicCmd(),
		newStatusCmd(),
	)

	return cmd
}

// setup validates the shared flags and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	if _, err := outputFormat(); err != nil {
		return err
	}

	level, err := logger.ParseLevel(flagLogLevel)
	if err != nil {
		return err
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	return nil
}

func outputFormat() (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
	return format, nil
}

// resolveConfig layers environment overrides and the shared flags over the defaults.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv(config.Defaults(), os.Getenv)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = flagDataDir
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return cfg, fmt.Errorf("data directory is required")
	}
	return cfg, nil
}

func openStore(cfg config.Config) (*storage.Storage, error) {
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	logger.Debug("storage ready", logger.Fields{"data_dir": store.DataDir()})
	return store, nil
}

func openCatalog(store *storage.Storage) (*catalog.Catalog, error) {
	cat, err := catalog.Open(store.Path(storage.CatalogFile))
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	return cat, nil
}

// write renders result to the command's stdout in the selected format.
func write(cmd *cobra.Command, result Result) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	if err := WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(exitCode)
}
