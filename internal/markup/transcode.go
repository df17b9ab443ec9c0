package markup

import (
	"html"
	"regexp"
)

// Resolver looks up display names for mention tokens. Lookups that miss
// return ok=false and the transcoder falls back to a fixed placeholder.
type Resolver interface {
	ChannelName(channelID string) (string, bool)
	UserHandle(userID string) (string, bool)
}

var (
	reChannelMention = regexp.MustCompile(`<#(\d+)>`)
	reUserMention    = regexp.MustCompile(`<@!?(\d+)>`)
	reRoleMention    = regexp.MustCompile(`<@&\d+>`)

	reHTMLBold      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reHTMLUnderline = regexp.MustCompile(`__(.+?)__`)
	reHTMLItalicS   = regexp.MustCompile(`\*(.+?)\*`)
	reHTMLItalicU   = regexp.MustCompile(`_(.+?)_`)
	reHTMLCode      = regexp.MustCompile("`(.+?)`")
	reHTMLLink      = regexp.MustCompile(`\[([^\]]+?)\]\((https?://[^\)]+?)\)`)
)

// Transcode rewrites clean Discord-dialect text into Telegram HTML.
// Mention tokens are resolved to display names first, then the whole
// string is HTML-escaped, and only then is the remaining markup rewritten
// into tags. Escaping before rewriting keeps the inserted tags intact
// while neutralizing any angle brackets in the source text.
func Transcode(clean string, resolver Resolver) string {
	text := reChannelMention.ReplaceAllStringFunc(clean, func(tok string) string {
		id := reChannelMention.FindStringSubmatch(tok)[1]
		if name, ok := resolver.ChannelName(id); ok {
			return "#" + name
		}
		return "#unknown"
	})

	text = reUserMention.ReplaceAllStringFunc(text, func(tok string) string {
		id := reUserMention.FindStringSubmatch(tok)[1]
		if handle, ok := resolver.UserHandle(id); ok {
			return "@" + handle
		}
		return "@unknown"
	})

	text = reRoleMention.ReplaceAllString(text, "@role")

	text = html.EscapeString(text)

	text = reHTMLBold.ReplaceAllString(text, "<b>$1</b>")
	text = reHTMLUnderline.ReplaceAllString(text, "<u>$1</u>")
	text = reHTMLItalicS.ReplaceAllString(text, "<i>$1</i>")
	text = reHTMLItalicU.ReplaceAllString(text, "<i>$1</i>")
	text = reHTMLCode.ReplaceAllString(text, "<code>$1</code>")
	text = reHTMLLink.ReplaceAllString(text, `<a href="$2">$1</a>`)

	return text
}
