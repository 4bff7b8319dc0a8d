package hnr

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Raw configuration keys
const (
	KeyEnabled          = "enabled"
	KeyNotify           = "notify"
	KeySites            = "sites"
	KeyEnableSiteConfig = "enable_site_config"
	KeySiteConfig       = "site_config"
	KeyCheckInterval    = "check_interval"
	KeyTag              = "hr_tag"
	KeyProtect          = "protect"

	KeyHRActive           = "hr_active"
	KeyHRDuration         = "hr_duration"
	KeyAdditionalSeedTime = "additional_seed_time"
	KeyHRRatio            = "hr_ratio"
	KeyHRDeadlineDays     = "hr_deadline_days"

	KeySiteName = "site_name"
)

// ruleField describes one overridable field. The table below is the single
// place the global and site schemas are tied together.
type ruleField struct {
	key string
	// resolve sets the field on dst from a raw value, using the default when
	// the value is absent, blank or cannot be coerced. A non-nil error means
	// the default was substituted for a bad value.
	resolve func(dst *Rules, raw any, present bool) error
	// inherit copies the value from src into dst when dst is unset
	inherit func(dst, src *Rules)
	value   func(r *Rules) (any, bool)
}

var ruleFields = []ruleField{
	newRuleField(KeyHRActive, func(r *Rules) **bool { return &r.HRActive }, false, cast.ToBoolE),
	newRuleField(KeyHRDuration, func(r *Rules) **float64 { return &r.HRDuration }, 0, toNonNegativeFloat),
	newRuleField(KeyAdditionalSeedTime, func(r *Rules) **float64 { return &r.AdditionalSeedTime }, 0, toNonNegativeFloat),
	newRuleField(KeyHRRatio, func(r *Rules) **float64 { return &r.HRRatio }, 0, toNonNegativeFloat),
	newRuleField(KeyHRDeadlineDays, func(r *Rules) **float64 { return &r.HRDeadlineDays }, 0, toNonNegativeFloat),
}

func newRuleField[T any](key string, ptr func(*Rules) **T, def T, conv func(any) (T, error)) ruleField {
	return ruleField{
		key: key,
		resolve: func(dst *Rules, raw any, present bool) error {
			v := def
			var err error
			if present && !isBlank(raw) {
				if c, cerr := conv(raw); cerr == nil {
					v = c
				} else {
					err = cerr
				}
			}
			*ptr(dst) = &v
			return err
		},
		inherit: func(dst, src *Rules) {
			if *ptr(dst) != nil || *ptr(src) == nil {
				return
			}
			v := **ptr(src)
			*ptr(dst) = &v
		},
		value: func(r *Rules) (any, bool) {
			p := *ptr(r)
			if p == nil {
				return nil, false
			}
			return *p, true
		},
	}
}

// Keys returns every raw key Parse understands
func Keys() []string {
	keys := []string{
		KeyEnabled,
		KeyNotify,
		KeySites,
		KeyEnableSiteConfig,
		KeySiteConfig,
		KeyCheckInterval,
		KeyTag,
		KeyProtect,
	}
	for _, f := range ruleFields {
		keys = append(keys, f.key)
	}
	return keys
}

func toNonNegativeFloat(raw any) (float64, error) {
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%v is not a finite number", raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%v is negative", raw)
	}
	return v, nil
}

func isBlank(raw any) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}
