package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rewired-gh/racepace/internal/cache"
	"github.com/rewired-gh/racepace/internal/config"
	"github.com/rewired-gh/racepace/internal/logger"
	"github.com/rewired-gh/racepace/internal/openf1"
	"github.com/rewired-gh/racepace/internal/pipeline"
	"github.com/rewired-gh/racepace/internal/report"
	"github.com/rewired-gh/racepace/internal/storage"
	"github.com/rewired-gh/racepace/internal/telegram"
	"github.com/rewired-gh/racepace/internal/tracks"
)

var yearPattern = regexp.MustCompile(`^[0-9]{4}$`)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "racepace <year>",
		Short: "Build a season's normalized lap pace document",
		Long: `racepace fetches every race of a season, normalizes each timed lap
by the circuit's lap distance and writes race_data_<year>.json.`,
		Args: yearArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			season, _ := strconv.Atoi(args[0])
			return run(cmd, v, configPath, season)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to configuration file (defaults plus RACEPACE_* environment when empty)")
	cmd.Flags().Int("workers", 1, "Number of events processed concurrently")
	cmd.Flags().String("output", "data/output", "Directory the season document is written to")
	_ = v.BindPFlag("pipeline.workers", cmd.Flags().Lookup("workers"))
	_ = v.BindPFlag("output.dir", cmd.Flags().Lookup("output"))

	return cmd
}

// yearArg accepts exactly one argument made of four digits.
func yearArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one argument <year>, got %d", len(args))
	}
	if !yearPattern.MatchString(args[0]) {
		return fmt.Errorf("invalid year %q: must be a 4-digit integer", args[0])
	}
	return nil
}

func run(cmd *cobra.Command, v *viper.Viper, configPath string, season int) error {
	cfg, err := config.LoadWith(v, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()
	if configPath != "" {
		logger.Info("Configuration loaded from %s", configPath)
	}

	table, err := tracks.Load(cfg.Tracks.File)
	if err != nil {
		return fmt.Errorf("failed to load track table: %w", err)
	}
	logger.Debug("Track table has %d circuits", table.Len())

	var fetchCache openf1.Cache
	if cfg.Cache.Enabled {
		c, err := cache.Open(cfg.Cache.Dir, cfg.Cache.TTL)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer func() {
			if err := c.Close(); err != nil {
				logger.Error("Failed to close cache: %v", err)
			}
		}()
		fetchCache = c
	} else {
		logger.Debug("Provider cache disabled")
	}

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		logger.Info("Telegram client initialized successfully")
	}

	store := storage.New(cfg.Output.Dir, 0644, 0755)
	if err := store.CleanStale(); err != nil {
		logger.Warn("Failed to clean stale output files: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := openf1.NewClient(cfg.Provider.APIBaseURL, cfg.Provider.Timeout, fetchCache)
	aggregator := pipeline.NewAggregator(provider, table, store, cfg.Pipeline.Workers)

	_, summary, err := aggregator.Run(ctx, season)
	if err != nil {
		var persistErr *pipeline.PersistenceError
		if errors.As(err, &persistErr) {
			logger.Error("Season document was not written: %v", persistErr.Err)
		}
		if errors.Is(err, context.Canceled) {
			logger.Info("Run cancelled, nothing was written")
		}
		return err
	}

	report.Render(cmd.OutOrStdout(), summary)
	logger.Info("Season document written to %s", summary.OutputPath)

	if telegramClient != nil {
		if err := telegramClient.SendSummary(ctx, summary); err != nil {
			logger.Warn("Failed to send run summary to Telegram: %v", err)
		}
	}

	return nil
}
