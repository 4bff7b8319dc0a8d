package filter

import (
	"github.com/s0up4200/seedwarden/qbittorrent"
)

// Filter decides whether a torrent matches an expression
type Filter interface {
	// Match checks if a torrent on the given site matches the filter
	Match(torrent *qbittorrent.TorrentInfo, site string) bool

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (Filter, error)
}
