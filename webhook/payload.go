package webhook

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/s0up4200/seedwarden/checker"
)

// Format selects the request body layout
type Format string

const (
	// FormatJSON posts a flat JSON object
	FormatJSON Format = "json"
	// FormatDiscord posts a Discord compatible embed
	FormatDiscord Format = "discord"
)

// Valid reports whether f is a known format
func (f Format) Valid() bool {
	return f == FormatJSON || f == FormatDiscord
}

// genericPayload is the body sent in FormatJSON
type genericPayload struct {
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Problem bool      `json:"problem"`
	SentAt  time.Time `json:"sent_at"`
}

type discordPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

const (
	colorOK      = 0x2ecc71
	colorProblem = 0xe74c3c

	// discordDescriptionLimit is Discord's maximum embed description length in characters
	discordDescriptionLimit = 4096
)

func buildPayload(format Format, n checker.Notification, now time.Time) any {
	if format == FormatDiscord {
		color := colorOK
		if n.Problem {
			color = colorProblem
		}
		return discordPayload{
			Username: "seedwarden",
			Embeds: []discordEmbed{{
				Title:       n.Title,
				Description: truncate(n.Body, discordDescriptionLimit),
				Color:       color,
				Timestamp:   now.UTC().Format(time.RFC3339),
			}},
		}
	}

	return genericPayload{
		Title:   n.Title,
		Body:    n.Body,
		Problem: n.Problem,
		SentAt:  now.UTC(),
	}
}

// truncate shortens s to at most limit characters, cutting on a line
// boundary when there is one and never inside a multi-byte rune
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	const marker = "\n..."

	cut := s
	n := 0
	for i := range s {
		if n == limit-len(marker) {
			cut = s[:i]
			break
		}
		n++
	}

	// keep the last line whole
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + marker
}
