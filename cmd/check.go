package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/seedwarden/checker"
)

var (
	checkSite string
	checkAll  bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single H&R check",
	Long: `Check every torrent against the H&R rules of its site, tag torrents that
still owe seeding time and untag those that are done.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkSite, "site", "s", "", "only check torrents from this site")
	checkCmd.Flags().BoolVarP(&checkAll, "all", "a", false, "show satisfied and protected torrents too")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !hnrCfg.Enabled {
		logger.Warn().Msg("H&R checking is disabled in config, running anyway")
	}

	_, chk, err := newChecker(ctx, cfg)
	if err != nil {
		return err
	}

	run, err := chk.Check(ctx, hnrCfg, checker.Options{
		DryRun: cfg.Safety.DryRun,
		Site:   checkSite,
	})
	if err != nil {
		return err
	}

	formatter := checker.NewConsoleFormatter()
	formatter.ShowAll = checkAll
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRun(run))

	return nil
}
