package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to qBittorrent",
	Long:  `Test the connection to your qBittorrent instance and display basic information.`,
	RunE:  runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Testing connection to qBittorrent at %s...\n", cfg.QBittorrent.URL)

	client, _, err := newChecker(ctx, cfg)
	if err != nil {
		return err
	}

	// Connection is already tested during client creation
	fmt.Fprintln(out, "✓ Connection successful!")

	torrents, err := client.GetAllTorrents(ctx)
	if err != nil {
		return fmt.Errorf("failed to get torrents: %w", err)
	}

	var size uint64
	var seeding int
	for _, t := range torrents {
		size += uint64(max(t.Size, 0))
		if t.IsSeeding {
			seeding++
		}
	}

	fmt.Fprintf(out, "\nqBittorrent Statistics:\n")
	fmt.Fprintf(out, "- Total torrents: %d (%s)\n", len(torrents), humanize.IBytes(size))
	fmt.Fprintf(out, "- Seeding: %d\n", seeding)

	fmt.Fprintf(out, "\nH&R checking: %s\n", boolToStatus(hnrCfg.Enabled))
	fmt.Fprintf(out, "- Sites: %d configured, %d with overrides\n", len(hnrCfg.KnownSites()), len(hnrCfg.SiteOverrides()))
	fmt.Fprintf(out, "- Check interval: %d minutes\n", hnrCfg.CheckInterval)

	return nil
}

func boolToStatus(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
