package hnr

import "errors"

var (
	// ErrMalformedSiteConfig is reported when the site override blob is not a
	// YAML list of records
	ErrMalformedSiteConfig = errors.New("malformed site config")

	// ErrInvalidSiteRecord is reported for a single override record that
	// cannot be used
	ErrInvalidSiteRecord = errors.New("invalid site record")
)
