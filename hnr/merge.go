package hnr

// MergeSiteDefaults fills every unset field of site with the global value and
// returns site. Fields the site sets explicitly, including false and zero,
// are kept. Merging an already merged site changes nothing.
func MergeSiteDefaults(g *GlobalConfig, site *SiteConfig) *SiteConfig {
	for _, f := range ruleFields {
		f.inherit(&site.Rules, &g.Rules)
	}
	return site
}

// EffectiveConfig returns the resolved configuration for a site. Sites without
// an override record get the global rules under the given name. The result is
// a copy and may be modified by the caller. Names are looked up ignoring case.
func (g *GlobalConfig) EffectiveConfig(name string) *SiteConfig {
	if site, ok := g.sites[siteKey(name)]; ok {
		return site.clone()
	}

	site := &SiteConfig{SiteName: name}
	return MergeSiteDefaults(g, site)
}

func (s *SiteConfig) clone() *SiteConfig {
	c := &SiteConfig{SiteName: s.SiteName}
	for _, f := range ruleFields {
		f.inherit(&c.Rules, &s.Rules)
	}
	return c
}
