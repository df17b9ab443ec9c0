package bot

import (
	"fmt"
	"strings"

	"relay_bot/internal/model"
)

// FormatChannelList formats the active catalog entries for display.
func FormatChannelList(channels []model.SourceChannel) string {
	var b strings.Builder
	b.WriteString("Available Discord channels:\n")
	for i, ch := range channels {
		fmt.Fprintf(&b, "\n%d. #%s  (id %s)", i+1, ch.Name, ch.ChannelID)
	}
	b.WriteString("\n\nTap a channel below or use /subscribe <channel_id>.")
	return b.String()
}

// FormatSubscriptionList formats a recipient's active subscriptions.
func FormatSubscriptionList(subs []model.Subscription, filterCounts map[int64]int) string {
	var b strings.Builder
	b.WriteString("Your subscriptions:\n")
	for _, sub := range subs {
		fmt.Fprintf(&b, "\n#%d %s  (channel %s)\n", sub.ID, sub.Label, sub.ChannelID)
		if n := filterCounts[sub.ID]; n > 0 {
			fmt.Fprintf(&b, "   %d filter(s)\n", n)
		} else {
			b.WriteString("   no filters, everything is relayed\n")
		}
	}
	return b.String()
}

// FormatFilterList formats the active filters of a subscription.
func FormatFilterList(sub *model.Subscription, filters []model.Filter) string {
	if len(filters) == 0 {
		return fmt.Sprintf("No filters for \"%s\" (#%d); every message is relayed.\nUse /addfilter %d <keyword> to add one.",
			sub.Label, sub.ID, sub.ID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Filters for \"%s\" (#%d), any match relays:\n", sub.Label, sub.ID)
	for _, f := range filters {
		fmt.Fprintf(&b, "\n  F%d: %s", f.ID, f.Keyword)
	}
	return b.String()
}

// FormatRecentDeliveries formats the newest delivery records for display,
// newest first.
func FormatRecentDeliveries(recs []model.DeliveryRecord) string {
	if len(recs) == 0 {
		return "No announcements received yet."
	}

	var b strings.Builder
	b.WriteString("Your latest announcements:\n")
	for _, rec := range recs {
		excerpt := rec.Normalized
		if len(excerpt) > 200 {
			excerpt = excerpt[:200] + "..."
		}
		fmt.Fprintf(&b, "\n[%s] channel %s\n%s\n", rec.CreatedAt.Format("02.01.2006 15:04"), rec.ChannelID, excerpt)
		if rec.MatchedFilter != "" {
			fmt.Fprintf(&b, "(matched filter: %s)\n", rec.MatchedFilter)
		}
	}
	return b.String()
}
