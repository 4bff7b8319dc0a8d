package hnr

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func testGlobal(t *testing.T) *GlobalConfig {
	t.Helper()
	return Parse(map[string]any{
		"enabled":              true,
		"hr_active":            true,
		"hr_duration":          24,
		"additional_seed_time": 2,
		"hr_ratio":             1.0,
		"hr_deadline_days":     14,
		"sites":                []string{"alpha.org", "beta.org"},
	}, zerolog.Nop())
}

func TestMergeSiteDefaultsFillsUnsetFields(t *testing.T) {
	g := testGlobal(t)

	site := MergeSiteDefaults(g, &SiteConfig{
		SiteName: "alpha.org",
		Rules:    Rules{HRDuration: ptr(72.0)},
	})

	assert.True(t, site.Active())
	assert.Equal(t, 72.0, site.Duration())
	assert.Equal(t, 2.0, site.Additional())
	assert.Equal(t, 1.0, site.Ratio())
	assert.Equal(t, 14.0, site.DeadlineDays())

	for _, f := range ruleFields {
		_, ok := f.value(&site.Rules)
		assert.True(t, ok, "field %s should be set after merge", f.key)
	}
}

func TestMergeSiteDefaultsKeepsExplicitZeroValues(t *testing.T) {
	g := testGlobal(t)

	site := MergeSiteDefaults(g, &SiteConfig{
		SiteName: "alpha.org",
		Rules: Rules{
			HRActive:   ptr(false),
			HRDuration: ptr(0.0),
			HRRatio:    ptr(0.0),
		},
	})

	assert.False(t, site.Active())
	assert.Zero(t, site.Duration())
	assert.Zero(t, site.Ratio())
	assert.Equal(t, 2.0, site.Additional())
}

func TestMergeSiteDefaultsIdempotent(t *testing.T) {
	g := testGlobal(t)

	once := MergeSiteDefaults(g, &SiteConfig{
		SiteName: "beta.org",
		Rules:    Rules{HRActive: ptr(false), HRDeadlineDays: ptr(3.0)},
	})
	snapshot := once.ToMap()

	twice := MergeSiteDefaults(g, once)
	assert.Equal(t, snapshot, twice.ToMap())
}

func TestMergeSiteDefaultsDoesNotAliasGlobal(t *testing.T) {
	g := testGlobal(t)

	site := MergeSiteDefaults(g, &SiteConfig{SiteName: "alpha.org"})
	*site.HRDuration = 999

	assert.Equal(t, 24.0, g.Duration())
}

func TestEffectiveConfigUnknownSite(t *testing.T) {
	g := testGlobal(t)

	site := g.EffectiveConfig("unknown")

	assert.Equal(t, "unknown", site.SiteName)
	for _, f := range ruleFields {
		want, _ := f.value(&g.Rules)
		got, ok := f.value(&site.Rules)
		require.True(t, ok)
		assert.Equal(t, want, got, "field %s", f.key)
	}
}

func TestEffectiveConfigReturnsCopy(t *testing.T) {
	g := Parse(map[string]any{
		"enable_site_config": true,
		"site_config":        "- site_name: alpha.org\n  hr_duration: 10\n",
	}, zerolog.Nop())

	first := g.EffectiveConfig("alpha.org")
	*first.HRDuration = 500

	assert.Equal(t, 10.0, g.EffectiveConfig("alpha.org").Duration())
}

func TestSeedDuration(t *testing.T) {
	tests := []struct {
		name       string
		duration   *float64
		additional *float64
		want       float64
	}{
		{"both unset", nil, nil, 0},
		{"duration only", ptr(24.0), nil, 24},
		{"additional only", nil, ptr(6.0), 6},
		{"both set", ptr(24.0), ptr(6.5), 30.5},
		{"explicit zeros", ptr(0.0), ptr(0.0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := &SiteConfig{Rules: Rules{HRDuration: tt.duration, AdditionalSeedTime: tt.additional}}
			assert.Equal(t, tt.want, site.SeedDuration())

			g := &GlobalConfig{Rules: Rules{HRDuration: tt.duration, AdditionalSeedTime: tt.additional}}
			assert.Equal(t, tt.want, g.SeedDuration())
		})
	}
}

func TestSeedDurationRecomputed(t *testing.T) {
	g := testGlobal(t)
	assert.Equal(t, 26.0, g.SeedDuration())

	*g.AdditionalSeedTime = 10
	assert.Equal(t, 34.0, g.SeedDuration())
}

func TestMatchSite(t *testing.T) {
	g := Parse(map[string]any{
		"sites":              "example.org, tracker.example.org",
		"enable_site_config": true,
		"site_config":        "- site_name: other.net\n  hr_active: true\n",
	}, zerolog.Nop())

	tests := []struct {
		host   string
		want   string
		wantOK bool
	}{
		{"example.org", "example.org", true},
		{"announce.example.org", "example.org", true},
		{"tracker.example.org", "tracker.example.org", true},
		{"a.tracker.example.org", "tracker.example.org", true},
		{"TRACKER.other.net.", "other.net", true},
		{"badexample.org", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := g.MatchSite(tt.host)
		assert.Equal(t, tt.wantOK, ok, "host %q", tt.host)
		assert.Equal(t, tt.want, got, "host %q", tt.host)
	}
}

func TestToMap(t *testing.T) {
	g := testGlobal(t)

	m := g.ToMap()
	assert.Equal(t, true, m[KeyHRActive])
	assert.Equal(t, 24.0, m[KeyHRDuration])
	assert.Equal(t, "always", m[KeyNotify])
	assert.Equal(t, []string{"alpha.org", "beta.org"}, m[KeySites])
	assert.Equal(t, 26.0, m["seed_duration"])

	site := &SiteConfig{SiteName: "x.org", Rules: Rules{HRRatio: ptr(2.0)}}
	sm := site.ToMap()
	assert.Equal(t, "x.org", sm[KeySiteName])
	assert.Equal(t, 2.0, sm[KeyHRRatio])
	assert.NotContains(t, sm, KeyHRActive)
}

func TestSiteNamesIgnoreCase(t *testing.T) {
	g := Parse(map[string]any{
		"hr_active":          false,
		"hr_duration":        24,
		"sites":              []string{"Tracker.org", "other.net"},
		"enable_site_config": true,
		"site_config":        "- site_name: tracker.org\n  hr_active: true\n  hr_duration: 96\n",
	}, zerolog.Nop())

	// listed once, spelled as in the override record
	assert.Equal(t, []string{"other.net", "tracker.org"}, g.KnownSites())

	name, ok := g.MatchSite("announce.TRACKER.org")
	require.True(t, ok)

	eff := g.EffectiveConfig(name)
	assert.True(t, eff.Active())
	assert.Equal(t, 96.0, eff.Duration())

	for _, spelling := range []string{"Tracker.org", "TRACKER.ORG", " tracker.org "} {
		assert.True(t, g.HasSiteOverride(spelling), spelling)
		assert.True(t, g.EffectiveConfig(spelling).Active(), spelling)
	}
	assert.False(t, g.EffectiveConfig("other.net").Active())
}

func TestDuplicateSiteRecordsIgnoreCase(t *testing.T) {
	g := Parse(map[string]any{
		"enable_site_config": true,
		"site_config":        "- site_name: Dup.org\n  hr_duration: 10\n- site_name: dup.org\n  hr_duration: 20\n",
	}, zerolog.Nop())

	assert.Equal(t, []string{"dup.org"}, g.SiteOverrides())
	assert.Equal(t, 20.0, g.EffectiveConfig("DUP.org").Duration())
}
