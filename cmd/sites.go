package cmd

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/seedwarden/hnr"
)

var (
	sitesJSON  bool
	sitesNames []string
)

// sitesCmd represents the sites command
var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Show the effective H&R rules for each site",
	Long: `Show the H&R rules that apply to every configured site after merging
site overrides with the global defaults. Use --site to look up a site that
has no overrides of its own.`,
	RunE: runSites,
}

func init() {
	sitesCmd.Flags().BoolVar(&sitesJSON, "json", false, "print as JSON")
	sitesCmd.Flags().StringSliceVarP(&sitesNames, "site", "s", nil, "additional site names to resolve")

	rootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, args []string) error {
	names := siteNames(hnrCfg, sitesNames)

	if sitesJSON {
		out, err := renderSitesJSON(hnrCfg, names)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}

	if !hnrCfg.Enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "H&R checking is disabled (hnr.enabled: false)")
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sites configured")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSitesTable(hnrCfg, names))
	return nil
}

// siteNames returns the known sites plus any extra names, deduplicated
func siteNames(g *hnr.GlobalConfig, extra []string) []string {
	names := g.KnownSites()
	for _, name := range extra {
		name = strings.TrimSpace(name)
		if name != "" && !slices.ContainsFunc(names, func(s string) bool { return strings.EqualFold(s, name) }) {
			names = append(names, name)
		}
	}
	return names
}

func renderSitesJSON(g *hnr.GlobalConfig, names []string) (string, error) {
	sites := make(map[string]map[string]any, len(names))
	for _, name := range names {
		sites[name] = g.EffectiveConfig(name).ToMap()
	}

	data, err := json.MarshalIndent(map[string]any{
		"global": g.ToMap(),
		"sites":  sites,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode sites: %w", err)
	}
	return string(data), nil
}

func renderSitesTable(g *hnr.GlobalConfig, names []string) string {
	headers := []string{"Site", "Active", "Seed (h)", "Extra (h)", "Total (h)", "Ratio", "Deadline (d)", "Override"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		eff := g.EffectiveConfig(name)
		rows = append(rows, []string{
			name,
			yesNo(eff.Active()),
			formatFloat(eff.Duration()),
			formatFloat(eff.Additional()),
			formatFloat(eff.SeedDuration()),
			formatFloat(eff.Ratio()),
			formatFloat(eff.DeadlineDays()),
			yesNo(g.HasSiteOverride(name)),
		})
	}

	return renderTable(headers, rows, aligns)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
