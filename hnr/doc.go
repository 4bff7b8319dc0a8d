// Package hnr resolves hit-and-run (H&R) seeding rules.
//
// Global rules come from a flat key/value map (config file, environment or a
// settings form). Individual sites may override any of the rule fields through
// a YAML list of records:
//
//	- site_name: tracker.example.org
//	  hr_active: true
//	  hr_duration: 72
//	- site_name: other.example.net
//	  hr_ratio: 1.0
//
// Fields a record leaves out inherit the global value. Bad values never fail
// parsing; they fall back to defaults and are logged.
//
// Global values are coerced, so "72" and 72 are the same hr_duration. Record
// fields are typed strictly: a quoted number such as hr_duration: "72" drops
// the whole record with a logged reason. Site names match without regard to
// case.
//
// # Usage
//
//	cfg := hnr.Parse(raw, logger)
//	rules := cfg.EffectiveConfig("tracker.example.org")
//	if rules.Active() {
//	    hours := rules.SeedDuration()
//	}
package hnr
