package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/pfr-pbp/internal/batch"
	"github.com/pfrederiksen/pfr-pbp/internal/catalog"
	"github.com/pfrederiksen/pfr-pbp/internal/config"
	"github.com/pfrederiksen/pfr-pbp/internal/dataset"
	"github.com/pfrederiksen/pfr-pbp/internal/fetcher"
	"github.com/pfrederiksen/pfr-pbp/internal/logger"
	"github.com/pfrederiksen/pfr-pbp/internal/music"
	"github.com/pfrederiksen/pfr-pbp/internal/pbp"
	"github.com/pfrederiksen/pfr-pbp/internal/storage"
)

var (
	flagYears   string
	flagDelay   time.Duration
	flagForce   bool
	flagBaseURL string
	flagRetries uint64

	flagOutcomes string
	flagOut      string
	flagIndex    string

	flagMusicDir string

	flagKind string
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download schedule and box-score pages",
		Long: `Download each season's schedule page and every box score it links to.
Pages already on disk are skipped unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: runFetch,
	}

	cmd.Flags().StringVar(&flagYears, "years", "2012-2021", "Seasons to fetch, e.g. 2012,2013 or 2012-2021 (or env: "+config.EnvYears+")")
	cmd.Flags().DurationVar(&flagDelay, "delay", config.DefaultDelay, "Pause between requests (or env: "+config.EnvDelay+")")
	cmd.Flags().BoolVar(&flagForce, "force", false, "Re-download pages that already exist")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", config.DefaultBaseURL, "Site root (or env: "+config.EnvBaseURL+")")
	cmd.Flags().Uint64Var(&flagRetries, "retries", config.DefaultRetries, "Retries for transient failures")

	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("years") {
		if cfg.Years, err = config.ParseYears(flagYears); err != nil {
			return err
		}
	}
	if flags.Changed("delay") {
		cfg.Delay = flagDelay
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = strings.TrimRight(flagBaseURL, "/")
	}
	if flags.Changed("retries") {
		cfg.MaxRetries = flagRetries
	}
	cfg.Force = flagForce
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	cat, err := openCatalog(store)
	if err != nil {
		return err
	}
	defer cat.Close()

	run, err := cat.BeginRun(ctx, catalog.KindFetch)
	if err != nil {
		return err
	}

	logger.Info("fetch started", logger.Fields{
		"run_id": run.ID,
		"years":  cfg.Years,
		"delay":  cfg.Delay.String(),
	})

	f := fetcher.New(cfg, store)
	result := &FetchResult{RunID: run.ID, Failures: []ItemFailure{}}

	for _, year := range cfg.Years {
		report, err := f.FetchSeason(ctx, year)
		if err != nil {
			if ctx.Err() != nil {
				_ = cat.FinishRun(context.WithoutCancel(ctx), run)
				return err
			}
			logger.Error("season failed", logger.Fields{"year": year}, err)
			result.Failures = append(result.Failures, ItemFailure{Item: fmt.Sprintf("schedule %d", year), Error: err.Error()})
			continue
		}

		result.add(report)
		if err := recordSeason(ctx, cat, run.ID, report); err != nil {
			return err
		}
	}

	if err := cat.FinishRun(ctx, run); err != nil {
		return err
	}
	if flagVerbose {
		logger.LogMetrics("fetch metrics")
	}

	if len(result.Failures) > 0 {
		exitCode = ExitPartial
	}
	return write(cmd, result)
}

// recordSeason stores one catalog row per scheduled game.
func recordSeason(ctx context.Context, cat *catalog.Catalog, runID string, report *fetcher.SeasonReport) error {
	failed := make(map[string]string, len(report.Failures))
	for _, fl := range report.Failures {
		failed[fl.Code] = fl.Err.Error()
	}
	for _, code := range report.Codes {
		if err := cat.RecordGame(ctx, runID, catalog.GameResult{Code: code, Err: failed[code]}); err != nil {
			return err
		}
	}
	return nil
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Normalize saved box scores into per-game CSVs",
		Long: `Parse every saved box-score page, normalize its plays and write one CSV per
game under processed_games/{home,away,tie}. A page that fails to parse is
recorded in the catalog and does not stop the run.`,
		Args: cobra.NoArgs,
		RunE: runProcess,
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	cat, err := openCatalog(store)
	if err != nil {
		return err
	}
	defer cat.Close()

	run, err := cat.BeginRun(ctx, catalog.KindProcess)
	if err != nil {
		return err
	}

	report, err := batch.NewRunner(store, cat, run.ID).Run(ctx)
	if ferr := cat.FinishRun(context.WithoutCancel(ctx), run); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}
	if flagVerbose {
		logger.LogMetrics("process metrics")
	}

	result := &ProcessResult{RunID: run.ID, Report: report}
	for _, res := range report.Results {
		if res.Err != nil {
			result.Failures = append(result.Failures, ItemFailure{Item: res.Code, Error: res.Err.Error()})
		}
	}

	if len(report.Failed) > 0 {
		exitCode = ExitPartial
	}
	return write(cmd, result)
}

func newAssembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Bundle processed games into a padded JSON dataset",
		Long: `Read the processed CSVs for the chosen outcomes, front-pad every game with -1
rows to the longest game's length, append its label row and write the dataset.
Also writes an index of every processed game.`,
		Args: cobra.NoArgs,
		RunE: runAssemble,
	}

	cmd.Flags().StringVar(&flagOutcomes, "outcomes", "away,home", "Outcome folders to include, in order")
	cmd.Flags().StringVar(&flagOut, "out", storage.DatasetFile, "Dataset file, relative to the data directory")
	cmd.Flags().StringVar(&flagIndex, "index", storage.IndexFile, "Index file, relative to the data directory; empty to skip")

	return cmd
}

func runAssemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	outcomes, err := parseOutcomes(flagOutcomes)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	ds, err := dataset.Assemble(store, outcomes)
	if err != nil {
		return fmt.Errorf("assembling dataset: %w", err)
	}
	out := store.Path(flagOut)
	if err := ds.Write(out); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}

	result := &AssembleResult{
		Dataset:  out,
		Games:    len(ds.Games),
		MaxPlays: ds.MaxPlays,
		Width:    ds.Width,
	}

	if flagIndex != "" {
		idx, err := dataset.BuildIndex(store)
		if err != nil {
			return fmt.Errorf("building index: %w", err)
		}
		result.Index = store.Path(flagIndex)
		if err := idx.Write(result.Index); err != nil {
			return fmt.Errorf("writing index: %w", err)
		}
		result.Counts = idx.Counts
	}

	logger.Info("dataset written", logger.Fields{
		"path":      out,
		"games":     result.Games,
		"max_plays": result.MaxPlays,
	})
	return write(cmd, result)
}

func parseOutcomes(s string) ([]pbp.Outcome, error) {
	var outcomes []pbp.Outcome
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		o, err := pbp.ParseOutcome(part)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("at least one outcome is required")
	}
	return outcomes, nil
}

func newMusicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "music",
		Short: "Normalize a directory of music-library exports",
		Args:  cobra.NoArgs,
		RunE:  runMusic,
	}
	cmd.Flags().StringVar(&flagMusicDir, "dir", music.DefaultDir, "Directory of exported track CSVs")
	return cmd
}

func runMusic(cmd *cobra.Command, args []string) error {
	dir, err := config.ExpandHome(flagMusicDir)
	if err != nil {
		return err
	}

	lib, failures, err := music.LoadDir(dir)
	if err != nil {
		return err
	}

	result := &MusicResult{
		Dir:      dir,
		Tracks:   len(lib.Tracks),
		Titles:   len(lib.ByTitle),
		Albums:   len(lib.ByAlbum),
		Artists:  len(lib.ByArtist),
		Entities: lib.EntityStats(),
		Failures: []ItemFailure{},
	}
	if flagVerbose {
		result.Library = lib.Tracks
	}
	for _, fe := range failures {
		result.Failures = append(result.Failures, ItemFailure{Item: fe.Path, Error: fe.Err.Error()})
	}

	if len(failures) > 0 {
		exitCode = ExitPartial
	}
	return write(cmd, result)
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the most recent run",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().StringVar(&flagKind, "kind", "", "Run kind: fetch or process (default: latest of either)")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if flagKind != "" && flagKind != catalog.KindFetch && flagKind != catalog.KindProcess {
		return fmt.Errorf("invalid kind: %s (must be '%s' or '%s')", flagKind, catalog.KindFetch, catalog.KindProcess)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	cat, err := openCatalog(store)
	if err != nil {
		return err
	}
	defer cat.Close()

	run, err := cat.LatestRun(ctx, flagKind)
	if errors.Is(err, catalog.ErrNoRuns) {
		return write(cmd, &StatusResult{})
	}
	if err != nil {
		return err
	}

	summary, err := cat.Summarize(ctx, run)
	if err != nil {
		return err
	}
	return write(cmd, &StatusResult{Summary: summary})
}
