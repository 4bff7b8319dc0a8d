package qbittorrent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/s0up4200/seedwarden/cache"
)

// api is the subset of the go-qbittorrent client used here
type api interface {
	GetTorrentsCtx(ctx context.Context, o qbittorrent.TorrentFilterOptions) ([]qbittorrent.Torrent, error)
	GetTorrentTrackersCtx(ctx context.Context, hash string) ([]qbittorrent.TorrentTracker, error)
	AddTagsCtx(ctx context.Context, hashes []string, tags string) error
	RemoveTagsCtx(ctx context.Context, hashes []string, tags string) error
}

// Client wraps the qBittorrent API client
type Client struct {
	client   api
	logger   zerolog.Logger
	trackers *cache.Cache[string]
	limiter  *rate.Limiter
}

// NewClient creates a new qBittorrent client and logs in
func NewClient(ctx context.Context, url, username, password string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	client := qbittorrent.NewClient(qbittorrent.Config{
		Host:          url,
		Username:      username,
		Password:      password,
		TLSSkipVerify: o.skipVerify,
	})

	// Test connection by logging in
	if err := client.LoginCtx(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	logger.Debug().Str("url", url).Msg("Connected to qBittorrent")

	return newClient(client, logger, o), nil
}

func newClient(client api, logger zerolog.Logger, o clientOptions) *Client {
	limit := rate.Inf
	if o.requestsPerSec > 0 {
		limit = rate.Limit(o.requestsPerSec)
	}

	return &Client{
		client:   client,
		logger:   logger,
		trackers: cache.New[string](o.trackerCacheSize, o.trackerCacheTTL),
		limiter:  rate.NewLimiter(limit, o.burst),
	}
}

// GetAllTorrents retrieves all torrents from qBittorrent
func (c *Client) GetAllTorrents(ctx context.Context) ([]*TorrentInfo, error) {
	torrents, err := c.client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d torrents from qBittorrent", len(torrents))

	results := make([]*TorrentInfo, 0, len(torrents))
	for _, t := range torrents {
		info := &TorrentInfo{
			Hash:           t.Hash,
			Name:           t.Name,
			SavePath:       t.SavePath,
			ContentPath:    t.ContentPath,
			State:          string(t.State),
			Size:           t.Size,
			Progress:       t.Progress,
			DownloadedSize: t.Downloaded,
			UploadedSize:   t.Uploaded,
			Ratio:          t.Ratio,
			SeedingTime:    time.Duration(t.SeedingTime) * time.Second,
			AddedOn:        time.Unix(t.AddedOn, 0),
			Category:       t.Category,
			Tags:           splitTags(t.Tags),
			Tracker:        t.Tracker,
		}
		if t.CompletionOn > 0 {
			info.CompletionOn = time.Unix(t.CompletionOn, 0)
		}

		info.IsSeeding = info.IsActivelySeeding()

		results = append(results, info)
	}

	return results, nil
}

// ResolveTrackerHost returns the tracker host of a torrent. The current
// tracker reported in the torrent list is used when present; otherwise the
// tracker list is fetched once per hash and cached.
func (c *Client) ResolveTrackerHost(ctx context.Context, t *TorrentInfo) (string, error) {
	if host := TrackerHost(t.Tracker); host != "" {
		return host, nil
	}
	if t.Hash == "" {
		return "", ErrInvalidHash
	}

	key := cache.Key("trackers", t.Hash)
	if host, ok := c.trackers.Get(key); ok {
		return host, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	trackers, err := c.client.GetTorrentTrackersCtx(ctx, t.Hash)
	if err != nil {
		return "", fmt.Errorf("failed to get trackers for %s: %w", t.Hash, err)
	}

	var host string
	for _, tr := range trackers {
		// DHT, PeX and LSD show up as pseudo trackers like "** [DHT] **"
		if strings.HasPrefix(tr.Url, "**") {
			continue
		}
		if host = TrackerHost(tr.Url); host != "" {
			break
		}
	}

	c.trackers.Put(key, host)
	return host, nil
}

// AddTags adds a tag to the given torrents
func (c *Client) AddTags(ctx context.Context, hashes []string, tag string) error {
	if len(hashes) == 0 {
		return nil
	}
	if err := c.client.AddTagsCtx(ctx, hashes, tag); err != nil {
		return fmt.Errorf("failed to add tag %q: %w", tag, err)
	}
	c.logger.Debug().Str("tag", tag).Int("torrents", len(hashes)).Msg("Added tag")
	return nil
}

// RemoveTags removes a tag from the given torrents
func (c *Client) RemoveTags(ctx context.Context, hashes []string, tag string) error {
	if len(hashes) == 0 {
		return nil
	}
	if err := c.client.RemoveTagsCtx(ctx, hashes, tag); err != nil {
		return fmt.Errorf("failed to remove tag %q: %w", tag, err)
	}
	c.logger.Debug().Str("tag", tag).Int("torrents", len(hashes)).Msg("Removed tag")
	return nil
}
