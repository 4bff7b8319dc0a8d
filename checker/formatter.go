package checker

import (
	"fmt"
	"strings"
	"time"
)

// ConsoleFormatter renders check runs for terminal output
type ConsoleFormatter struct {
	// ShowAll includes satisfied and protected torrents
	ShowAll bool
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatRun formats the results of a check run
func (f *ConsoleFormatter) FormatRun(run *Run) string {
	results := make([]Result, 0, len(run.Results))
	for _, res := range run.Results {
		if f.ShowAll || res.Status.NeedsTag() {
			results = append(results, res)
		}
	}

	var sb strings.Builder

	if len(results) == 0 {
		sb.WriteString("\nNo torrents owe seeding time\n")
	} else {
		sb.WriteString("\nTorrent")
		if len(results) != 1 {
			sb.WriteString("s")
		}
		fmt.Fprintf(&sb, " under H&R (%d):\n\n", len(results))

		for i, res := range results {
			isLast := i == len(results)-1
			f.formatResult(&sb, res, isLast)

			if !isLast {
				sb.WriteString("│\n")
			}
		}
	}

	fmt.Fprintf(&sb, "\nChecked %d, skipped %d | pending %d, at risk %d, violated %d, satisfied %d, protected %d\n",
		len(run.Results), run.Skipped,
		run.Count(StatusPending), run.Count(StatusAtRisk), run.Count(StatusViolated),
		run.Count(StatusSatisfied), run.Count(StatusProtected))

	if run.DryRun {
		fmt.Fprintf(&sb, "[DRY RUN] Would tag %d and untag %d torrents\n", len(run.Tagged), len(run.Untagged))
	} else if len(run.Tagged) > 0 || len(run.Untagged) > 0 {
		fmt.Fprintf(&sb, "Tagged %d, untagged %d torrents\n", len(run.Tagged), len(run.Untagged))
	}

	return sb.String()
}

func (f *ConsoleFormatter) formatResult(sb *strings.Builder, res Result, isLast bool) {
	prefix := "├"
	indent := "│   "
	if isLast {
		prefix = "╰"
		indent = "    "
	}

	fmt.Fprintf(sb, "%s── %s\n", prefix, res.Torrent.Name)
	fmt.Fprintf(sb, "%sSite: %s | Status: %s\n", indent, res.Site, res.Status)

	seeding := fmt.Sprintf("Seeded: %s of %s", formatHours(res.Seeded), formatHours(res.Required))
	if res.Remaining > 0 {
		seeding += fmt.Sprintf(" (%s left)", formatHours(res.Remaining))
	}
	fmt.Fprintf(sb, "%s%s\n", indent, seeding)

	if res.RatioTarget > 0 {
		fmt.Fprintf(sb, "%sRatio: %.2f / %.2f\n", indent, res.Torrent.Ratio, res.RatioTarget)
	}

	if !res.Deadline.IsZero() {
		fmt.Fprintf(sb, "%sDeadline: %s\n", indent, res.Deadline.Format("2006-01-02 15:04"))
	}
}

func formatHours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}
