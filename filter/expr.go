package filter

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog"

	"github.com/s0up4200/seedwarden/cache"
	"github.com/s0up4200/seedwarden/hardlink"
	"github.com/s0up4200/seedwarden/qbittorrent"
)

// exprFilter implements Filter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	logger     zerolog.Logger
	now        func() time.Time
}

// CompilerOption configures an expr compiler
type CompilerOption func(*exprCompiler)

// WithCache enables compiled filter caching with the specified size
func WithCache(size int) CompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = cache.New[Filter](size, 0)
		}
	}
}

// WithLogger sets the logger used to report evaluation errors
func WithLogger(logger zerolog.Logger) CompilerOption {
	return func(c *exprCompiler) {
		c.logger = logger
	}
}

// WithClock overrides the time source used by date helpers
func WithClock(now func() time.Time) CompilerOption {
	return func(c *exprCompiler) {
		c.now = now
	}
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	cache  *cache.Cache[Filter]
	logger zerolog.Logger
	now    func() time.Time
}

// NewCompiler creates a new expr-based filter compiler
func NewCompiler(opts ...CompilerOption) Compiler {
	c := &exprCompiler{
		logger: zerolog.Nop(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Compile against a sample environment so unknown names and type errors
	// surface here instead of at evaluation time
	program, err := expr.Compile(expression,
		expr.Env(runtimeEnvironment(&qbittorrent.TorrentInfo{}, "", c.now)),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		logger:     c.logger,
		now:        c.now,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Match evaluates the filter against a torrent. Evaluation errors count as
// no match.
func (f *exprFilter) Match(torrent *qbittorrent.TorrentInfo, site string) bool {
	env := runtimeEnvironment(torrent, site, f.now)

	result, err := expr.Run(f.program, env)
	if err != nil {
		f.logger.Debug().
			Err(err).
			Str("expression", f.expression).
			Str("torrent", torrent.Name).
			Msg("Filter evaluation failed")
		return false
	}

	// Result is guaranteed to be bool due to AsBool() option during compilation
	return result.(bool)
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// helperFunctions returns the static helpers available to every expression
func helperFunctions(now func() time.Time) map[string]any {
	return map[string]any{
		"daysSince": func(t time.Time) int {
			if t.IsZero() {
				return 0
			}
			return int(now().Sub(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return now().AddDate(0, 0, -days)
		},
		"icontains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"iprefix": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"isuffix": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}

// runtimeEnvironment creates the environment for evaluating one torrent
func runtimeEnvironment(t *qbittorrent.TorrentInfo, site string, now func() time.Time) map[string]any {
	env := make(map[string]any, 32)
	maps.Copy(env, helperFunctions(now))

	env["hasTag"] = createHasTagFunc(t.Tags)
	env["isHardlinked"] = createIsHardlinkedFunc(t)

	env["Name"] = t.Name
	env["Hash"] = t.Hash
	env["Category"] = t.Category
	env["Tags"] = slices.Clone(t.Tags)
	env["State"] = t.State
	env["Site"] = site
	env["Tracker"] = t.Tracker
	env["Size"] = t.Size
	env["SizeGB"] = float64(t.Size) / (1 << 30)
	env["Progress"] = t.Progress
	env["Ratio"] = t.Ratio
	env["SeedingHours"] = t.SeedingTime.Hours()
	env["AddedOn"] = t.AddedOn
	env["CompletionOn"] = t.CompletionOn
	env["IsSeeding"] = t.IsSeeding
	env["SavePath"] = t.SavePath
	env["ContentPath"] = t.GetFullPath()

	return env
}

func createHasTagFunc(tags []string) func(string) bool {
	// Pre-convert to lowercase for case-insensitive comparison
	lowerTags := make([]string, len(tags))
	for i, tag := range tags {
		lowerTags[i] = strings.ToLower(tag)
	}
	return func(tag string) bool {
		return slices.Contains(lowerTags, strings.ToLower(tag))
	}
}

// createIsHardlinkedFunc only touches the filesystem when the expression calls it
func createIsHardlinkedFunc(t *qbittorrent.TorrentInfo) func() bool {
	return func() bool {
		if t.SavePath == "" && t.ContentPath == "" {
			return false
		}
		linked, err := hardlink.ContentHardlinked(t.GetFullPath())
		if err != nil {
			return false
		}
		return linked
	}
}
