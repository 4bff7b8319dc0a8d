package cmd

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/seedwarden/checker"
	"github.com/s0up4200/seedwarden/config"
	"github.com/s0up4200/seedwarden/hnr"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run H&R checks on a schedule",
	Long: `Run an H&R check every hnr.check_interval minutes until interrupted.
Changes to the config file are picked up without a restart.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, chk, err := newChecker(ctx, cfg)
	if err != nil {
		return err
	}

	state := newWatchState(cfg, hnrCfg, chk, cmd.Flags().Changed("dry-run"))
	state.connect = func(ctx context.Context, c *config.Config) (*checker.Checker, error) {
		_, chk, err := newChecker(ctx, c)
		return chk, err
	}

	err = config.Watch(cfgFile, func(c *config.Config, err error) {
		if err != nil {
			logger.Error().Err(err).Msg("Config reload failed, keeping previous settings")
			return
		}
		state.reload(ctx, c)
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Config file watching disabled")
	}

	return watchLoop(ctx, &state.hnr, func(ctx context.Context, g *hnr.GlobalConfig) {
		opts := checker.Options{DryRun: state.dryRun.Load()}
		if _, err := state.checker.Load().Check(ctx, g, opts); err != nil {
			logger.Error().Err(err).Msg("H&R check failed")
		}
	})
}

// watchState holds what a running watch reads on every cycle. Reloads swap
// the pointers; applied is only touched from the reload callback.
type watchState struct {
	hnr     atomic.Pointer[hnr.GlobalConfig]
	checker atomic.Pointer[checker.Checker]
	dryRun  atomic.Bool

	applied    *config.Config
	dryRunFlag bool
	connect    func(context.Context, *config.Config) (*checker.Checker, error)
}

func newWatchState(c *config.Config, g *hnr.GlobalConfig, chk *checker.Checker, dryRunFlag bool) *watchState {
	s := &watchState{applied: c, dryRunFlag: dryRunFlag}
	s.hnr.Store(g)
	s.checker.Store(chk)
	s.dryRun.Store(c.Safety.DryRun)
	return s
}

// reload applies a new configuration and returns the sections that took
// effect. Connection settings rebuild the checker; logging needs a restart.
func (s *watchState) reload(ctx context.Context, next *config.Config) []string {
	if s.dryRunFlag {
		next.Safety.DryRun = s.applied.Safety.DryRun
	}

	changed := changedSections(s.applied, next)
	applied := []string{"hnr"}
	s.hnr.Store(hnr.Parse(next.HNR, logger))

	if slices.Contains(changed, "qbittorrent") || slices.Contains(changed, "webhook") {
		chk, err := s.connect(ctx, next)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to apply new connection settings, keeping previous client")
			next.QBittorrent = s.applied.QBittorrent
			next.Webhook = s.applied.Webhook
		} else {
			s.checker.Store(chk)
			for _, section := range []string{"qbittorrent", "webhook"} {
				if slices.Contains(changed, section) {
					applied = append(applied, section)
				}
			}
		}
	}

	if slices.Contains(changed, "safety") {
		s.dryRun.Store(next.Safety.DryRun)
		applied = append(applied, "safety")
	}

	if slices.Contains(changed, "logging") {
		logger.Warn().Msg("Logging settings changed, restart to apply them")
		next.Logging = s.applied.Logging
	}

	s.applied = next
	logger.Info().Strs("applied", applied).Msg("Configuration reloaded")

	return applied
}

// changedSections lists the non-hnr sections that differ between two configs
func changedSections(prev, next *config.Config) []string {
	var changed []string
	if prev.QBittorrent != next.QBittorrent {
		changed = append(changed, "qbittorrent")
	}
	if prev.Webhook != next.Webhook {
		changed = append(changed, "webhook")
	}
	if prev.Safety != next.Safety {
		changed = append(changed, "safety")
	}
	if prev.Logging != next.Logging {
		changed = append(changed, "logging")
	}
	return changed
}

// watchLoop runs check with the current config, then waits check_interval
// minutes, until ctx is cancelled. The interval is re-read every cycle.
func watchLoop(ctx context.Context, current *atomic.Pointer[hnr.GlobalConfig], check func(context.Context, *hnr.GlobalConfig)) error {
	for {
		g := current.Load()

		if g.Enabled {
			check(ctx, g)
		} else {
			logger.Info().Msg("H&R checking is disabled, skipping")
		}

		interval := time.Duration(g.CheckInterval) * time.Minute
		logger.Debug().Dur("interval", interval).Msg("Waiting for next check")

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info().Msg("Stopping")
			return nil
		case <-timer.C:
		}
	}
}
