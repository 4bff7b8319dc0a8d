// Package qbittorrent provides a client for interacting with the qBittorrent Web API.
//
// This package wraps the autobrr/go-qbittorrent library to provide the pieces
// seedwarden needs to enforce hit-and-run rules: listing torrents with their
// seeding time, resolving the tracker a torrent belongs to, and tagging.
//
// # Features
//
//   - Connection management with authentication
//   - Tracker host resolution, cached per torrent and rate limited
//   - Tag management
//   - Context-aware operations for graceful cancellation
//
// # Usage
//
//	client, err := qbittorrent.NewClient(ctx, url, username, password, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	torrents, err := client.GetAllTorrents(ctx)
//	for _, t := range torrents {
//	    host, err := client.ResolveTrackerHost(ctx, t)
//	    ...
//	}
package qbittorrent
