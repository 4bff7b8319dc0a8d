package filter

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/seedwarden/qbittorrent"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testTorrent() *qbittorrent.TorrentInfo {
	return &qbittorrent.TorrentInfo{
		Hash:         "abc",
		Name:         "Some.Show.S01.1080p.WEB-DL",
		Category:     "tv",
		Tags:         []string{"Keep", "H&R"},
		State:        "stalledUP",
		Size:         4 << 30,
		Progress:     1,
		Ratio:        0.8,
		SeedingTime:  36 * time.Hour,
		CompletionOn: fixedNow.AddDate(0, 0, -40),
		IsSeeding:    true,
	}
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `hasTag("keep")`,
		},
		{
			name:        "empty expression",
			expression:  "   ",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:       "invalid syntax",
			expression: `hasTag("unclosed`,
			wantErr:    true,
		},
		{
			name:       "unknown variable",
			expression: `Year > 2020`,
			wantErr:    true,
		},
		{
			name:       "non boolean result",
			expression: `Ratio + 1`,
			wantErr:    true,
		},
		{
			name:       "complex expression",
			expression: `Category == "tv" and Ratio < 1.0 and daysSince(CompletionOn) > 30`,
		},
	}

	compiler := NewCompiler(WithClock(func() time.Time { return fixedNow }))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := compiler.Compile(tt.expression)

			if tt.wantErr {
				require.Error(t, err)
				var compErr *CompilationError
				assert.True(t, errors.As(err, &compErr))
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, filter)
			assert.Equal(t, tt.expression, filter.Expression())
		})
	}
}

func TestMatch(t *testing.T) {
	compiler := NewCompiler(WithClock(func() time.Time { return fixedNow }))
	torrent := testTorrent()

	tests := []struct {
		name       string
		expression string
		site       string
		expected   bool
	}{
		{"has tag case insensitive", `hasTag("keep")`, "", true},
		{"missing tag", `hasTag("music")`, "", false},
		{"category", `Category == "tv"`, "", true},
		{"ratio and seeding hours", `Ratio >= 0.5 and SeedingHours > 24`, "", true},
		{"size", `SizeGB > 3.5 and Size > 1000`, "", true},
		{"days since completion", `daysSince(CompletionOn) >= 40`, "", true},
		{"name helpers", `icontains(Name, "s01") and isuffix(Name, "web-dl") and Name startsWith "Some"`, "", true},
		{"site", `Site == "tracker.example.org"`, "tracker.example.org", true},
		{"other site", `Site == "tracker.example.org"`, "other.org", false},
		{"state", `State in ["uploading", "stalledUP"]`, "", true},
		{"not", `not IsSeeding`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := compiler.Compile(tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, filter.Match(torrent, tt.site))
		})
	}
}

func TestCompileCache(t *testing.T) {
	compiler := NewCompiler(WithCache(10))

	first, err := compiler.Compile(`hasTag("keep")`)
	require.NoError(t, err)
	second, err := compiler.Compile(`  hasTag("keep")  `)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestIsHardlinked(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hardlink detection not supported on Windows")
	}

	dir := t.TempDir()
	file := filepath.Join(dir, "video.mkv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	torrent := testTorrent()
	torrent.ContentPath = file

	filter, err := NewCompiler().Compile(`isHardlinked()`)
	require.NoError(t, err)
	assert.False(t, filter.Match(torrent, ""))

	require.NoError(t, os.Link(file, filepath.Join(dir, "library.mkv")))
	assert.True(t, filter.Match(torrent, ""))

	// missing content never matches
	torrent.ContentPath = filepath.Join(dir, "gone")
	assert.False(t, filter.Match(torrent, ""))
}
