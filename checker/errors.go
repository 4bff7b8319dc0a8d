package checker

import "errors"

var (
	// ErrUnknownSite is returned when a run is restricted to a site that is not configured
	ErrUnknownSite = errors.New("unknown site")
)
