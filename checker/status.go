package checker

import (
	"time"

	"github.com/s0up4200/seedwarden/hnr"
	"github.com/s0up4200/seedwarden/qbittorrent"
)

// Status is the H&R state of a single torrent
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusPending     Status = "pending"
	StatusAtRisk      Status = "at_risk"
	StatusViolated    Status = "violated"
	StatusSatisfied   Status = "satisfied"
	StatusProtected   Status = "protected"
)

// NeedsTag reports whether torrents in this state should carry the H&R tag
func (s Status) NeedsTag() bool {
	return s == StatusPending || s == StatusAtRisk || s == StatusViolated
}

// IsProblem reports whether the state needs attention
func (s Status) IsProblem() bool {
	return s == StatusAtRisk || s == StatusViolated
}

// Result is the evaluation of one torrent against its site rules
type Result struct {
	Torrent     *qbittorrent.TorrentInfo
	Site        string
	Status      Status
	Required    time.Duration
	Seeded      time.Duration
	Remaining   time.Duration
	RatioTarget float64
	Deadline    time.Time
}

// evaluate applies site rules to a torrent. Protection is decided by the caller.
func evaluate(t *qbittorrent.TorrentInfo, rules *hnr.SiteConfig, now time.Time) Result {
	required := hoursToDuration(rules.SeedDuration())

	res := Result{
		Torrent:     t,
		Site:        rules.SiteName,
		Required:    required,
		Seeded:      t.SeedingTime,
		Remaining:   max(required-t.SeedingTime, 0),
		RatioTarget: rules.Ratio(),
	}

	if days := rules.DeadlineDays(); days > 0 && !t.CompletionOn.IsZero() {
		res.Deadline = t.CompletionOn.Add(hoursToDuration(days * 24))
	}

	switch {
	case !t.IsComplete():
		res.Status = StatusDownloading
	case t.SeedingTime >= required:
		res.Status = StatusSatisfied
	case res.RatioTarget > 0 && t.Ratio >= res.RatioTarget:
		res.Status = StatusSatisfied
	case !res.Deadline.IsZero() && now.After(res.Deadline):
		res.Status = StatusViolated
	case !t.IsSeeding:
		res.Status = StatusAtRisk
	default:
		res.Status = StatusPending
	}

	if res.Status == StatusSatisfied {
		res.Remaining = 0
	}

	return res
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
