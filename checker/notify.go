package checker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Notification is a rendered summary of a check run
type Notification struct {
	Title   string
	Body    string
	Problem bool
}

// Summarize renders a run as a notification
func Summarize(run *Run) Notification {
	n := Notification{
		Title:   "H&R check complete",
		Problem: run.HasProblems(),
	}
	if n.Problem {
		n.Title = fmt.Sprintf("H&R check: %d at risk, %d violated",
			run.Count(StatusAtRisk), run.Count(StatusViolated))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "checked %d, pending %d, satisfied %d, protected %d",
		len(run.Results), run.Count(StatusPending), run.Count(StatusSatisfied), run.Count(StatusProtected))

	for _, res := range run.Results {
		if !res.Status.IsProblem() {
			continue
		}
		fmt.Fprintf(&sb, "\n%s [%s] %s", res.Status, res.Site, res.Torrent.Name)
	}

	if run.DryRun {
		sb.WriteString("\n(dry run)")
	}

	n.Body = sb.String()
	return n
}

// LogNotifier writes notifications to a zerolog logger
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification, at warn level when it reports a problem
func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	event := n.logger.Info()
	if note.Problem {
		event = n.logger.Warn()
	}
	event.Str("title", note.Title).Msg(note.Body)
	return nil
}

// Notifiers sends every notification to each notifier in turn
type Notifiers []Notifier

// Notify delivers n to all notifiers and joins their errors
func (ns Notifiers) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range ns {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
