// Package relay implements the ingestion-to-delivery core: it receives
// inbound channel messages, fans them out to subscribed recipients with
// per-pair deduplication, and dispatches Telegram sends.
package relay

import (
	"fmt"
	"strings"
	"time"
)

// noTextPlaceholder substitutes for messages that carry no extractable text.
const noTextPlaceholder = "[no text]"

// Embed is embedded rich content attached to an inbound message.
type Embed struct {
	Title       string
	Description string
	ImageURL    string
}

// Attachment is a file attached to an inbound message.
type Attachment struct {
	URL      string
	Filename string
}

// InboundMessage is one message received from the source platform,
// decoupled from the transport SDK.
type InboundMessage struct {
	MessageID      string
	ChannelID      string
	ChannelName    string
	AuthorID       string
	IsBot          bool
	IsTrustedRelay bool
	Content        string
	Embeds         []Embed
	Attachments    []Attachment
	CreatedAt      time.Time
}

// CollectText joins the message body with embed titles and descriptions,
// double-newline separated. Empty messages yield a fixed placeholder.
func (m InboundMessage) CollectText() string {
	var parts []string
	if m.Content != "" {
		parts = append(parts, m.Content)
	}
	for _, emb := range m.Embeds {
		if emb.Title != "" {
			parts = append(parts, fmt.Sprintf("**%s**", emb.Title))
		}
		if emb.Description != "" {
			parts = append(parts, emb.Description)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if text == "" {
		return noTextPlaceholder
	}
	return text
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// ImageURLs returns the URLs of image-type attachments and embed images,
// in message order.
func (m InboundMessage) ImageURLs() []string {
	var urls []string
	for _, att := range m.Attachments {
		name := strings.ToLower(att.Filename)
		for _, ext := range imageExtensions {
			if strings.HasSuffix(name, ext) {
				urls = append(urls, att.URL)
				break
			}
		}
	}
	for _, emb := range m.Embeds {
		if emb.ImageURL != "" {
			urls = append(urls, emb.ImageURL)
		}
	}
	return urls
}
