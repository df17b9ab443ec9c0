package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSubscribeArgs extracts a Discord channel ID and an optional custom
// label from /subscribe arguments.
func ParseSubscribeArgs(args string) (string, string, error) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return "", "", fmt.Errorf("usage: /subscribe <channel_id> [label]")
	}
	channelID := parts[0]
	for _, r := range channelID {
		if r < '0' || r > '9' {
			return "", "", fmt.Errorf("invalid channel ID %q", channelID)
		}
	}
	return channelID, strings.Join(parts[1:], " "), nil
}

// ParseIDArg extracts a numeric ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}

// ParseFilterArgs extracts a subscription ID and a keyword from
// /addfilter arguments.
func ParseFilterArgs(args string) (int64, string, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 {
		return 0, "", fmt.Errorf("usage: /addfilter <subscription_id> <keyword>")
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid subscription ID %q", parts[0])
	}
	keyword := strings.TrimSpace(parts[1])
	if keyword == "" {
		return 0, "", fmt.Errorf("filter keyword is required")
	}
	return id, keyword, nil
}
