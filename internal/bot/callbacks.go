package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return
	}
	action, arg := parts[0], parts[1]

	rec, err := b.store.GetOrCreateRecipient(ctx, cb.From.ID, cb.From.UserName)
	if err != nil {
		b.log.Error("get or create recipient", "telegram_id", cb.From.ID, "error", err)
		return
	}

	b.log.Info("callback",
		"action", action,
		"arg", arg,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case "sub":
		b.subscribe(ctx, chatID, rec.ID, arg, "")
	case "unsub":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return
		}
		b.handleUnsubscribe(ctx, chatID, rec.ID, strconv.FormatInt(id, 10))
	case "filter":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return
		}
		sub, err := b.store.GetSubscription(ctx, id)
		if err != nil || sub.RecipientID != rec.ID {
			b.reply(chatID, "Subscription not found.")
			return
		}
		b.sessions.set(chatID, conversation{state: stateAwaitFilterKeyword, subscriptionID: id})
		b.reply(chatID, "Send the keyword for the new filter (or any command to cancel).")
	}
}
