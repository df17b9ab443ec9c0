// Package markup cleans Discord-flavored markup and transcodes the
// remaining dialect into Telegram HTML.
package markup

import (
	"regexp"
	"strings"
)

var (
	reCodeBlock  = regexp.MustCompile("```(?:[^\\S\r\n]*\n)?([\\s\\S]*?)```")
	reCodeSpan   = regexp.MustCompile("`([^`\n]+?)`")
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reUnderline  = regexp.MustCompile(`__(.+?)__`)
	reStrike     = regexp.MustCompile(`~~(.+?)~~`)
	reItalicStar = regexp.MustCompile(`\*(.+?)\*`)
	reItalicUnd  = regexp.MustCompile(`_(.+?)_`)
	reRole       = regexp.MustCompile(`<@&\d+>`)
	reSpoiler    = regexp.MustCompile(`\|\|(.+?)\|\|`)
	reShortcode  = regexp.MustCompile(`:[A-Za-z0-9_\-+]+?:`)
	reHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	reQuote      = regexp.MustCompile(`(?m)(^|[ \t])> `)
	reNewlines   = regexp.MustCompile(`\n{3,}`)
)

// Normalize strips Discord markup artifacts from raw text and returns the
// clean text. Total over all inputs; empty in, empty out.
//
// Code blocks and code spans are unwrapped before emphasis markers are
// stripped, so delimiters inside code are never treated as emphasis. The
// remaining rules operate on the already-unwrapped text, in order: strong
// emphasis, underline, strikethrough, italics, role mentions, spoilers,
// shortcode emoji, heading markers, quote markers, zero-width characters,
// and finally whitespace normalization.
func Normalize(raw string) string {
	text := raw

	text = reCodeBlock.ReplaceAllString(text, "$1")
	text = reCodeSpan.ReplaceAllString(text, "$1")

	text = reBold.ReplaceAllString(text, "$1")
	text = reUnderline.ReplaceAllString(text, "$1")
	text = reStrike.ReplaceAllString(text, "$1")

	text = reItalicStar.ReplaceAllString(text, "$1")
	text = reItalicUnd.ReplaceAllString(text, "$1")

	text = reRole.ReplaceAllString(text, "")
	text = reSpoiler.ReplaceAllString(text, "$1")
	text = reShortcode.ReplaceAllString(text, "")

	text = reHeading.ReplaceAllString(text, "")
	text = reQuote.ReplaceAllString(text, "$1")

	text = strings.ReplaceAll(text, "\u200b", "")
	text = strings.ReplaceAll(text, "\ufeff", "")

	text = reNewlines.ReplaceAllString(text, "\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
