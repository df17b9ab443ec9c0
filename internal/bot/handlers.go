package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relay_bot/internal/model"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to the Discord announcement relay!

Subscribe to Discord channels and receive their announcements here.

Quick start:
1. /channels — browse the available channels
2. /subscribe <channel_id> — subscribe to one
3. /addfilter <subscription_id> <keyword> — only relay matching messages

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Subscriptions:
/channels — list available Discord channels
/subscribe <channel_id> [label] — subscribe to a channel
/unsubscribe <id> — stop notifications for a subscription
/list — show your subscriptions
/recent — show your last received announcements

Filters:
/filters <id> — show filters for a subscription
/addfilter <id> <keyword> — only relay messages containing the keyword
/rmfilter <filter_id> — remove a filter

A subscription without filters relays every message. With filters, a
message is relayed when any keyword matches.`)
}

func (b *Bot) handleChannels(ctx context.Context, chatID int64) {
	channels, err := b.store.ListActiveChannels(ctx)
	if err != nil {
		b.log.Error("list channels", "error", err)
		b.reply(chatID, "Internal error, try again later.")
		return
	}
	if len(channels) == 0 {
		b.reply(chatID, "No channels available yet. The catalog refreshes automatically.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatChannelList(channels))
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ch := range channels {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("#"+ch.Name, fmt.Sprintf("sub:%s", ch.ChannelID)),
		))
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send channel list", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleSubscribe(ctx context.Context, chatID, recipientID int64, args string) {
	channelID, label, err := ParseSubscribeArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	b.subscribe(ctx, chatID, recipientID, channelID, label)
}

// subscribe creates (or re-activates) a subscription to channelID.
func (b *Bot) subscribe(ctx context.Context, chatID, recipientID int64, channelID, label string) {
	ch, err := b.store.GetChannelByPlatformID(ctx, channelID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Channel %s is not in the catalog. Use /channels to see what is available.", channelID))
		return
	}
	if label == "" {
		label = ch.Name
	}

	subs, err := b.store.ListSubscriptions(ctx, recipientID)
	if err != nil {
		b.log.Error("list subscriptions", "recipient_id", recipientID, "error", err)
		b.reply(chatID, "Internal error, try again later.")
		return
	}
	for _, sub := range subs {
		if sub.ChannelID != channelID {
			continue
		}
		if sub.IsActive {
			b.reply(chatID, fmt.Sprintf("You are already subscribed to #%s (subscription #%d).", ch.Name, sub.ID))
			return
		}
		if err := b.store.SetSubscriptionActive(ctx, sub.ID, true); err != nil {
			b.log.Error("reactivate subscription", "subscription_id", sub.ID, "error", err)
			b.reply(chatID, "Internal error, try again later.")
			return
		}
		b.reply(chatID, fmt.Sprintf("Re-subscribed to #%s (subscription #%d).", ch.Name, sub.ID))
		return
	}

	sub := &model.Subscription{
		RecipientID: recipientID,
		ChannelID:   channelID,
		Label:       label,
		IsActive:    true,
	}
	if err := b.store.CreateSubscription(ctx, sub); err != nil {
		b.log.Error("create subscription", "recipient_id", recipientID, "channel_id", channelID, "error", err)
		b.reply(chatID, "Internal error, try again later.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Subscribed to #%s (subscription #%d).\nAdd a filter with /addfilter %d <keyword> to narrow what gets relayed.",
		ch.Name, sub.ID, sub.ID))
}

func (b *Bot) handleUnsubscribe(ctx context.Context, chatID, recipientID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /unsubscribe <subscription_id>")
		return
	}

	sub, err := b.store.GetSubscription(ctx, id)
	if err != nil || sub.RecipientID != recipientID {
		b.reply(chatID, fmt.Sprintf("Subscription #%d not found.", id))
		return
	}

	if err := b.store.SetSubscriptionActive(ctx, id, false); err != nil {
		b.log.Error("deactivate subscription", "subscription_id", id, "error", err)
		b.reply(chatID, "Internal error, try again later.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Unsubscribed from \"%s\" (#%d).", sub.Label, id))
}

func (b *Bot) handleList(ctx context.Context, chatID, recipientID int64) {
	subs, err := b.store.ListSubscriptions(ctx, recipientID)
	if err != nil {
		b.log.Error("list subscriptions", "recipient_id", recipientID, "error", err)
		b.reply(chatID, "Internal error, try again later.")
		return
	}

	counts := make(map[int64]int)
	var active []model.Subscription
	for _, sub := range subs {
		if !sub.IsActive {
			continue
		}
		filters, err := b.store.ListActiveFilters(ctx, sub.ID)
		if err != nil {
			continue
		}
		counts[sub.ID] = len(filters)
		active = append(active, sub)
	}

	if len(active) == 0 {
		b.reply(chatID, "You have no subscriptions yet. Use /channels to browse channels.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatSubscriptionList(active, counts))
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, sub := range active {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("+ filter #%d", sub.ID), fmt.Sprintf("filter:%d", sub.ID)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("unsubscribe #%d", sub.ID), fmt.Sprintf("unsub:%d", sub.ID)),
		))
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send subscription list", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleFilters(ctx context.Context, chatID, recipientID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /filters <subscription_id>")
		return
	}

	sub, err := b.store.GetSubscription(ctx, id)
	if err != nil || sub.RecipientID != recipientID {
		b.reply(chatID, fmt.Sprintf("Subscription #%d not found.", id))
		return
	}

	filters, err := b.store.ListActiveFilters(ctx, id)
	if err != nil {
		b.log.Error("list filters", "subscription_id", id, "error", err)
		b.reply(chatID, "Internal error, try again later.")
		return
	}
	b.reply(chatID, FormatFilterList(sub, filters))
}

func (b *Bot) handleAddFilter(ctx context.Context, chatID, recipientID int64, args string) {
	subID, keyword, err := ParseFilterArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	b.createFilter(ctx, chatID, recipientID, subID, keyword)
}

// createFilter validates ownership and attaches a keyword filter to the
// subscription. Shared by /addfilter and the inline-keyboard flow.
func (b *Bot) createFilter(ctx context.Context, chatID, recipientID, subID int64, keyword string) {
	sub, err := b.store.GetSubscription(ctx, subID)
	if err != nil || sub.RecipientID != recipientID {
		b.reply(chatID, fmt.Sprintf("Subscription #%d not found.", subID))
		return
	}

	f := &model.Filter{
		RecipientID:    recipientID,
		SubscriptionID: subID,
		Keyword:        keyword,
		IsActive:       true,
	}
	if err := b.store.CreateFilter(ctx, f); err != nil {
		b.log.Error("create filter", "subscription_id", subID, "error", err)
		b.reply(chatID, "Internal error, try again later.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Filter F%d added to \"%s\" (#%d): %q", f.ID, sub.Label, subID, keyword))
}

func (b *Bot) handleRmFilter(ctx context.Context, chatID, recipientID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /rmfilter <filter_id>")
		return
	}

	f, err := b.store.GetFilter(ctx, id)
	if err != nil || f.RecipientID != recipientID {
		b.reply(chatID, fmt.Sprintf("Filter F%d not found.", id))
		return
	}

	if err := b.store.SetFilterActive(ctx, id, false); err != nil {
		b.log.Error("deactivate filter", "filter_id", id, "error", err)
		b.reply(chatID, "Internal error, try again later.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Filter F%d (%q) removed.", id, f.Keyword))
}

func (b *Bot) handleRecent(ctx context.Context, chatID, recipientID int64) {
	recs, err := b.store.ListRecentDeliveries(ctx, recipientID, 5)
	if err != nil {
		b.log.Error("list deliveries", "recipient_id", recipientID, "error", err)
		b.reply(chatID, "Internal error, try again later.")
		return
	}
	b.reply(chatID, FormatRecentDeliveries(recs))
}
