package checker

import (
	"context"

	"github.com/s0up4200/seedwarden/qbittorrent"
)

// TorrentSource defines the torrent client operations a check needs
type TorrentSource interface {
	GetAllTorrents(ctx context.Context) ([]*qbittorrent.TorrentInfo, error)
	ResolveTrackerHost(ctx context.Context, t *qbittorrent.TorrentInfo) (string, error)
	AddTags(ctx context.Context, hashes []string, tag string) error
	RemoveTags(ctx context.Context, hashes []string, tag string) error
}

// Notifier delivers the outcome of a check run
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
