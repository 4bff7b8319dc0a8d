package checker

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/seedwarden/filter"
	"github.com/s0up4200/seedwarden/hnr"
	"github.com/s0up4200/seedwarden/qbittorrent"
)

// DefaultConcurrency bounds concurrent tracker lookups
const DefaultConcurrency = 10

// Options controls a single check run
type Options struct {
	DryRun bool
	// Site restricts the run to one configured site when set
	Site string
}

// Run is the outcome of one check pass
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	DryRun    bool
	Results   []Result
	// Skipped counts torrents whose tracker matched no configured site
	Skipped  int
	Tagged   []string
	Untagged []string
}

// Count returns how many results have the given status
func (r *Run) Count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// HasProblems reports whether any torrent is at risk or in violation
func (r *Run) HasProblems() bool {
	for _, res := range r.Results {
		if res.Status.IsProblem() {
			return true
		}
	}
	return false
}

// Option configures a Checker
type Option func(*Checker)

// WithCompiler sets the compiler used for protect expressions
func WithCompiler(c filter.Compiler) Option {
	return func(ch *Checker) {
		ch.compiler = c
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(ch *Checker) {
		ch.now = now
	}
}

// WithConcurrency sets the tracker lookup concurrency
func WithConcurrency(n int) Option {
	return func(ch *Checker) {
		if n > 0 {
			ch.concurrency = n
		}
	}
}

// Checker evaluates torrents against H&R rules and keeps their tags in sync
type Checker struct {
	source      TorrentSource
	notifier    Notifier
	compiler    filter.Compiler
	logger      zerolog.Logger
	now         func() time.Time
	concurrency int
}

// New creates a new Checker. A nil notifier disables notifications.
func New(source TorrentSource, notifier Notifier, logger zerolog.Logger, opts ...Option) *Checker {
	c := &Checker{
		source:      source,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.compiler == nil {
		c.compiler = filter.NewCompiler(filter.WithCache(32), filter.WithLogger(logger), filter.WithClock(c.now))
	}

	return c
}

// Check runs one H&R pass with cfg
func (c *Checker) Check(ctx context.Context, cfg *hnr.GlobalConfig, opts Options) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: c.now(),
		DryRun:    opts.DryRun,
	}
	logger := c.logger.With().Str("run", run.ID).Logger()

	var protect filter.Filter
	if strings.TrimSpace(cfg.Protect) != "" {
		f, err := c.compiler.Compile(cfg.Protect)
		if err != nil {
			return nil, fmt.Errorf("invalid protect expression: %w", err)
		}
		protect = f
	}

	site := strings.TrimSpace(opts.Site)
	if site != "" && !slices.ContainsFunc(cfg.KnownSites(), func(s string) bool { return strings.EqualFold(s, site) }) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSite, opts.Site)
	}

	torrents, err := c.source.GetAllTorrents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	hosts, err := c.resolveHosts(ctx, torrents, logger)
	if err != nil {
		return nil, err
	}

	for i, t := range torrents {
		name, ok := cfg.MatchSite(hosts[i])
		if !ok {
			run.Skipped++
			continue
		}
		if site != "" && !strings.EqualFold(name, site) {
			continue
		}

		rules := cfg.EffectiveConfig(name)
		if !rules.Active() {
			logger.Debug().Str("site", name).Str("torrent", t.Name).Msg("H&R not active for site")
			continue
		}

		res := evaluate(t, rules, run.StartedAt)
		if protect != nil && protect.Match(t, name) {
			res.Status = StatusProtected
		}
		run.Results = append(run.Results, res)
	}

	c.syncTags(ctx, cfg.Tag, run, logger)

	run.Duration = c.now().Sub(run.StartedAt)

	logger.Info().
		Int("checked", len(run.Results)).
		Int("skipped", run.Skipped).
		Int("pending", run.Count(StatusPending)).
		Int("at_risk", run.Count(StatusAtRisk)).
		Int("violated", run.Count(StatusViolated)).
		Int("satisfied", run.Count(StatusSatisfied)).
		Bool("dry_run", run.DryRun).
		Msg("H&R check complete")

	c.notify(ctx, cfg.Notify, run, logger)

	return run, nil
}

// resolveHosts looks up the tracker host of every torrent concurrently.
// Lookup failures leave the host empty so the torrent is skipped.
func (c *Checker) resolveHosts(ctx context.Context, torrents []*qbittorrent.TorrentInfo, logger zerolog.Logger) ([]string, error) {
	hosts := make([]string, len(torrents))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, t := range torrents {
		g.Go(func() error {
			host, err := c.source.ResolveTrackerHost(ctx, t)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn().
					Err(err).
					Str("hash", t.Hash).
					Str("torrent", t.Name).
					Msg("Failed to resolve tracker")
				return nil
			}
			// each goroutine owns its own slot
			hosts[i] = host
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve trackers: %w", err)
	}

	return hosts, nil
}

// syncTags adds the H&R tag to torrents that still owe seeding and removes it
// from those that are satisfied
func (c *Checker) syncTags(ctx context.Context, tag string, run *Run, logger zerolog.Logger) {
	if tag == "" {
		return
	}

	for _, res := range run.Results {
		switch {
		case res.Status.NeedsTag() && !res.Torrent.HasTag(tag):
			run.Tagged = append(run.Tagged, res.Torrent.Hash)
		case res.Status == StatusSatisfied && res.Torrent.HasTag(tag):
			run.Untagged = append(run.Untagged, res.Torrent.Hash)
		}
	}

	if run.DryRun {
		logger.Info().
			Int("tag", len(run.Tagged)).
			Int("untag", len(run.Untagged)).
			Msg("[DRY RUN] Would update tags")
		return
	}

	var g errgroup.Group

	if len(run.Tagged) > 0 {
		g.Go(func() error {
			return c.source.AddTags(ctx, run.Tagged, tag)
		})
	}
	if len(run.Untagged) > 0 {
		g.Go(func() error {
			return c.source.RemoveTags(ctx, run.Untagged, tag)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Str("tag", tag).Msg("Failed to update tags")
	}
}

func (c *Checker) notify(ctx context.Context, mode hnr.NotifyMode, run *Run, logger zerolog.Logger) {
	if c.notifier == nil {
		return
	}

	switch mode {
	case hnr.NotifyNone:
		return
	case hnr.NotifyOnError:
		if !run.HasProblems() {
			return
		}
	}

	if err := c.notifier.Notify(ctx, Summarize(run)); err != nil {
		logger.Warn().Err(err).Msg("Failed to send notification")
	}
}
