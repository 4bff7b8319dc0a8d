package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/seedwarden/checker"
	"github.com/s0up4200/seedwarden/config"
	"github.com/s0up4200/seedwarden/hnr"
	"github.com/s0up4200/seedwarden/qbittorrent"
	"github.com/s0up4200/seedwarden/webhook"
)

var (
	cfgFile string
	envFile string
	cfg     *config.Config
	hnrCfg  *hnr.GlobalConfig
	logger  zerolog.Logger

	// Command flags
	dryRun bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "seedwarden",
	Short: "Keep qBittorrent torrents seeding until tracker H&R rules are met",
	Long: `seedwarden checks your qBittorrent torrents against per-site hit and run
rules. Global defaults apply to every site and can be overridden per site.
Torrents that still owe seeding time are tagged so they are not removed early.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load before the config (default is ./.env if present)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "d", false, "report what would change without tagging torrents")
}

// initializeApp loads configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Override dry-run from command line if specified
	if cmd.Flags().Changed("dry-run") {
		cfg.Safety.DryRun = dryRun
	}

	hnrCfg = hnr.Parse(cfg.HNR, logger)

	return nil
}

// newChecker connects to qBittorrent and builds a checker around it
func newChecker(ctx context.Context, c *config.Config) (*qbittorrent.Client, *checker.Checker, error) {
	opts := []qbittorrent.Option{
		qbittorrent.WithRateLimit(c.QBittorrent.RateLimit, 0),
		qbittorrent.WithTrackerCache(0, c.QBittorrent.TrackerCacheTTL),
	}
	if c.QBittorrent.InsecureSkipVerify {
		opts = append(opts, qbittorrent.WithInsecureSkipVerify())
	}

	client, err := qbittorrent.NewClient(ctx,
		c.QBittorrent.URL,
		c.QBittorrent.Username,
		c.QBittorrent.Password,
		logger,
		opts...,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create qBittorrent client: %w", err)
	}

	notifiers := checker.Notifiers{checker.NewLogNotifier(logger)}
	if c.Webhook.URL != "" {
		hook, err := webhook.NewClient(c.Webhook.URL, logger,
			webhook.WithFormat(webhook.Format(c.Webhook.Format)),
			webhook.WithTimeout(c.Webhook.Timeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create webhook client: %w", err)
		}
		notifiers = append(notifiers, hook)
	}

	return client, checker.New(client, notifiers, logger), nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format, plain when stderr is redirected
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
