package hnr

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Parse builds a GlobalConfig from a flat key/value map as produced by a
// config file, environment variables or a settings form. Unknown keys are
// ignored and bad values fall back to their defaults; every fallback is
// logged. Parse never fails.
func Parse(raw map[string]any, logger zerolog.Logger) *GlobalConfig {
	logger = logger.With().Str("component", "hnr").Logger()
	raw = normalizeRaw(raw)

	g := &GlobalConfig{
		sites: make(map[string]*SiteConfig),
	}

	for _, f := range ruleFields {
		v, ok := raw[f.key]
		if err := f.resolve(&g.Rules, v, ok); err != nil {
			logger.Warn().
				Err(err).
				Str("field", f.key).
				Interface("value", v).
				Msg("Invalid value, using default")
		}
	}

	g.Enabled = parseBool(raw, KeyEnabled, false, logger)
	g.Notify = parseNotify(raw, logger)
	g.Sites = parseSites(raw, logger)
	g.CheckInterval = parseInterval(raw, logger)
	g.Tag = parseString(raw, KeyTag, DefaultTag)
	g.Protect = parseString(raw, KeyProtect, "")
	g.EnableSiteConfig = parseBool(raw, KeyEnableSiteConfig, false, logger)
	g.SiteConfigRaw = parseString(raw, KeySiteConfig, "")

	g.loadSiteOverrides(logger)

	return g
}

// loadSiteOverrides parses the override blob into the site map. Any problem
// with the blob as a whole disables site overrides instead of failing.
func (g *GlobalConfig) loadSiteOverrides(logger zerolog.Logger) {
	if !g.EnableSiteConfig {
		return
	}

	if strings.TrimSpace(g.SiteConfigRaw) == "" {
		logger.Warn().Msg("Site config is enabled but empty, disabling site overrides")
		g.EnableSiteConfig = false
		return
	}

	sites, err := parseSiteRecords(g.SiteConfigRaw, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse site config, disabling site overrides")
		g.EnableSiteConfig = false
		return
	}

	for key, site := range sites {
		g.sites[key] = MergeSiteDefaults(g, site)
	}

	logger.Debug().Int("sites", len(g.sites)).Msg("Loaded site overrides")
}

// parseSiteRecords decodes the override blob record by record so that a bad
// record only drops itself. When two records name the same site the later one
// is kept and a warning is logged. Site names are compared ignoring case and
// the returned map is keyed by siteKey.
func parseSiteRecords(blob string, logger zerolog.Logger) (map[string]*SiteConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(blob), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSiteConfig, err)
	}

	sites := make(map[string]*SiteConfig)

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return sites, nil
		}
		root = root.Content[0]
	}
	if root.Kind == 0 {
		return sites, nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: expected a list of site records", ErrMalformedSiteConfig)
	}

	for i, node := range root.Content {
		site, err := decodeSiteRecord(node)
		if err != nil {
			logger.Warn().Err(err).Int("record", i).Int("line", node.Line).Msg("Skipping site record")
			continue
		}
		if site == nil {
			logger.Debug().Int("record", i).Msg("Skipping site record without site_name")
			continue
		}
		key := siteKey(site.SiteName)
		if _, dup := sites[key]; dup {
			logger.Warn().
				Str("site", site.SiteName).
				Int("record", i).
				Msg("Duplicate site record, the later record replaces the earlier one")
		}
		sites[key] = site
	}

	return sites, nil
}

// decodeSiteRecord returns nil without error for records lacking a site name
func decodeSiteRecord(node *yaml.Node) (*SiteConfig, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected a mapping", ErrInvalidSiteRecord)
	}

	var site SiteConfig
	if err := node.Decode(&site); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSiteRecord, err)
	}

	site.SiteName = strings.TrimSpace(site.SiteName)
	if site.SiteName == "" {
		return nil, nil
	}

	if err := validateRules(&site.Rules); err != nil {
		return nil, fmt.Errorf("%w: site %s: %v", ErrInvalidSiteRecord, site.SiteName, err)
	}

	return &site, nil
}

func validateRules(r *Rules) error {
	checks := []struct {
		key string
		val *float64
	}{
		{KeyHRDuration, r.HRDuration},
		{KeyAdditionalSeedTime, r.AdditionalSeedTime},
		{KeyHRRatio, r.HRRatio},
		{KeyHRDeadlineDays, r.HRDeadlineDays},
	}
	for _, c := range checks {
		if c.val == nil {
			continue
		}
		if _, err := toNonNegativeFloat(*c.val); err != nil {
			return fmt.Errorf("%s: %w", c.key, err)
		}
	}
	return nil
}

func normalizeRaw(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func parseBool(raw map[string]any, key string, def bool, logger zerolog.Logger) bool {
	v, ok := raw[key]
	if !ok || isBlank(v) {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		logger.Warn().Err(err).Str("field", key).Interface("value", v).Msg("Invalid value, using default")
		return def
	}
	return b
}

func parseString(raw map[string]any, key, def string) string {
	v, ok := raw[key]
	if !ok || isBlank(v) {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil || s == "" {
		return def
	}
	return s
}

func parseNotify(raw map[string]any, logger zerolog.Logger) NotifyMode {
	v, ok := raw[KeyNotify]
	if !ok || isBlank(v) {
		return DefaultNotifyMode
	}
	s, _ := cast.ToStringE(v)
	mode := NotifyMode(strings.ToLower(s))
	if !mode.Valid() {
		logger.Warn().
			Str("field", KeyNotify).
			Interface("value", v).
			Str("default", string(DefaultNotifyMode)).
			Msg("Unknown notify mode, using default")
		return DefaultNotifyMode
	}
	return mode
}

func parseInterval(raw map[string]any, logger zerolog.Logger) int {
	v, ok := raw[KeyCheckInterval]
	if !ok || isBlank(v) {
		return DefaultCheckInterval
	}
	n, err := cast.ToIntE(v)
	if err == nil && n <= 0 {
		err = fmt.Errorf("%d is not positive", n)
	}
	if err != nil {
		logger.Warn().
			Err(err).
			Str("field", KeyCheckInterval).
			Interface("value", v).
			Int("default", DefaultCheckInterval).
			Msg("Invalid value, using default")
		return DefaultCheckInterval
	}
	return n
}

// parseSites accepts a list or a comma/newline separated string
func parseSites(raw map[string]any, logger zerolog.Logger) []string {
	v, ok := raw[KeySites]
	if !ok || isBlank(v) {
		return nil
	}

	var items []string
	switch t := v.(type) {
	case string:
		items = strings.FieldsFunc(t, func(r rune) bool {
			return r == ',' || r == '\n' || r == ';'
		})
	default:
		list, err := cast.ToStringSliceE(v)
		if err != nil {
			logger.Warn().Err(err).Str("field", KeySites).Interface("value", v).Msg("Invalid sites list, ignoring")
			return nil
		}
		items = list
	}

	seen := make(map[string]struct{}, len(items))
	sites := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		sites = append(sites, item)
	}
	return sites
}
