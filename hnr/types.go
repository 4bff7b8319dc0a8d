package hnr

import (
	"slices"
	"strings"
)

// NotifyMode controls when a check run produces a notification
type NotifyMode string

const (
	NotifyAlways  NotifyMode = "always"
	NotifyOnError NotifyMode = "on_error"
	NotifyNone    NotifyMode = "none"
)

// DefaultNotifyMode is used when the configured mode is missing or unknown
const DefaultNotifyMode = NotifyAlways

// Valid reports whether m is one of the known notify modes
func (m NotifyMode) Valid() bool {
	switch m {
	case NotifyAlways, NotifyOnError, NotifyNone:
		return true
	}
	return false
}

const (
	// DefaultCheckInterval is the check interval in minutes
	DefaultCheckInterval = 30

	// DefaultTag is applied to torrents that still owe seeding time
	DefaultTag = "H&R"
)

// Rules holds the H&R fields a site may override. A nil field is unset and
// inherits the global value during merging.
type Rules struct {
	HRActive           *bool    `yaml:"hr_active"`
	HRDuration         *float64 `yaml:"hr_duration"`
	AdditionalSeedTime *float64 `yaml:"additional_seed_time"`
	HRRatio            *float64 `yaml:"hr_ratio"`
	HRDeadlineDays     *float64 `yaml:"hr_deadline_days"`
}

// Active reports whether H&R enforcement is on
func (r *Rules) Active() bool {
	return r.HRActive != nil && *r.HRActive
}

// Duration returns the base seeding requirement in hours
func (r *Rules) Duration() float64 {
	return deref(r.HRDuration)
}

// Additional returns the extra seeding margin in hours
func (r *Rules) Additional() float64 {
	return deref(r.AdditionalSeedTime)
}

// Ratio returns the ratio that also satisfies H&R; zero disables the ratio rule
func (r *Rules) Ratio() float64 {
	return deref(r.HRRatio)
}

// DeadlineDays returns the number of days after completion the requirement
// must be met within; zero means no deadline
func (r *Rules) DeadlineDays() float64 {
	return deref(r.HRDeadlineDays)
}

// SeedDuration is the total required seeding time in hours. Unset parts count as zero.
func (r *Rules) SeedDuration() float64 {
	return deref(r.HRDuration) + deref(r.AdditionalSeedTime)
}

// GlobalConfig is the resolved H&R configuration. It is immutable once Parse
// returns; callers that reload configuration build a new one and swap it in.
type GlobalConfig struct {
	Rules

	Enabled          bool
	Notify           NotifyMode
	Sites            []string
	EnableSiteConfig bool
	SiteConfigRaw    string
	CheckInterval    int
	Tag              string
	Protect          string

	sites map[string]*SiteConfig
}

// SiteConfig is the configuration of a single site
type SiteConfig struct {
	SiteName string `yaml:"site_name"`
	Rules    `yaml:",inline"`
}

// SiteOverrides returns the names of sites that carry explicit overrides, sorted
func (g *GlobalConfig) SiteOverrides() []string {
	names := make([]string, 0, len(g.sites))
	for _, site := range g.sites {
		names = append(names, site.SiteName)
	}
	slices.Sort(names)
	return names
}

// HasSiteOverride reports whether name has an override record, ignoring case
func (g *GlobalConfig) HasSiteOverride(name string) bool {
	_, ok := g.sites[siteKey(name)]
	return ok
}

// KnownSites returns every site name from the sites list and the override
// records, sorted. Names differing only in case are listed once, spelled as
// in the override record when there is one.
func (g *GlobalConfig) KnownSites() []string {
	seen := make(map[string]string, len(g.Sites)+len(g.sites))
	for key, site := range g.sites {
		seen[key] = site.SiteName
	}
	for _, s := range g.Sites {
		if _, ok := seen[siteKey(s)]; !ok {
			seen[siteKey(s)] = s
		}
	}
	names := make([]string, 0, len(seen))
	for _, s := range seen {
		names = append(names, s)
	}
	slices.Sort(names)
	return names
}

// siteKey is the lookup key for a site name. Site names are matched without
// regard to case.
func siteKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MatchSite maps a tracker host to a known site. A site matches when it equals
// the host or is a domain suffix of it; the longest match wins.
func (g *GlobalConfig) MatchSite(host string) (string, bool) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return "", false
	}

	var best string
	for _, site := range g.KnownSites() {
		s := strings.ToLower(site)
		if host == s || strings.HasSuffix(host, "."+s) {
			if len(s) > len(best) {
				best = site
			}
		}
	}
	return best, best != ""
}

// ToMap renders the global configuration as a flat key/value map
func (g *GlobalConfig) ToMap() map[string]any {
	m := rulesToMap(&g.Rules)
	m[KeyEnabled] = g.Enabled
	m[KeyNotify] = string(g.Notify)
	m[KeySites] = slices.Clone(g.Sites)
	m[KeyEnableSiteConfig] = g.EnableSiteConfig
	m[KeySiteConfig] = g.SiteConfigRaw
	m[KeyCheckInterval] = g.CheckInterval
	m[KeyTag] = g.Tag
	m[KeyProtect] = g.Protect
	m["seed_duration"] = g.SeedDuration()
	return m
}

// ToMap renders the site configuration as a flat key/value map. Unset fields
// are omitted.
func (s *SiteConfig) ToMap() map[string]any {
	m := rulesToMap(&s.Rules)
	m[KeySiteName] = s.SiteName
	m["seed_duration"] = s.SeedDuration()
	return m
}

func rulesToMap(r *Rules) map[string]any {
	m := make(map[string]any, len(ruleFields)+10)
	for _, f := range ruleFields {
		if v, ok := f.value(r); ok {
			m[f.key] = v
		}
	}
	return m
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
