// Package ingest turns collected chat messages into file records.
package ingest

import (
	"regexp"
	"time"
)

var linkPattern = regexp.MustCompile(`(?i)https?://\S+`)

// ExtractLinks returns every http(s) URL in text, in order of appearance.
func ExtractLinks(text string) []string {
	return linkPattern.FindAllString(text, -1)
}

type Attachment struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Message is a collected chat message. The JSON form is the payload accepted
// by POST /api/files.
type Message struct {
	ID          string       `json:"message_id"`
	AuthorID    string       `json:"uploader_id"`
	AuthorName  string       `json:"uploader_name"`
	AuthorBot   bool         `json:"-"`
	GuildID     string       `json:"-"`
	ChannelID   string       `json:"channel_id"`
	ChannelName string       `json:"channel_name"`
	Content     string       `json:"content_text"`
	Attachments []Attachment `json:"attachments"`
	Links       []string     `json:"links"`
	Timestamp   time.Time    `json:"timestamp"`
}

// AllLinks prefers the links captured by the collector and falls back to
// scanning the message text.
func (m Message) AllLinks() []string {
	if len(m.Links) > 0 {
		return m.Links
	}
	return ExtractLinks(m.Content)
}

// Collectable reports whether the message carries anything worth ingesting.
func (m Message) Collectable() bool {
	return len(m.Attachments) > 0 || len(m.AllLinks()) > 0
}
