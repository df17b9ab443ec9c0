// Package bot implements the Telegram front-end: recipient registration,
// subscription and filter management, and the outbound delivery transport
// used by the relay dispatcher.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relay_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot that handles user commands and carries outbound
// relay deliveries.
type Bot struct {
	api      telegramAPI
	store    storage.Storage
	sessions *sessions
	log      *slog.Logger
}

// New creates a Bot with the given Telegram token and storage.
func New(token string, store storage.Storage, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:      api,
		store:    store,
		sessions: newSessions(),
		log:      log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			switch {
			case update.CallbackQuery != nil:
				b.handleCallback(ctx, update.CallbackQuery)
			case update.Message != nil && update.Message.IsCommand():
				b.handleCommand(ctx, update.Message)
			case update.Message != nil:
				b.handleConversation(ctx, update.Message)
			}
		}
	}
}

// SendHTML sends an HTML-formatted message to the given chat.
func (b *Bot) SendHTML(chatID int64, htmlBody string) error {
	msg := tgbotapi.NewMessage(chatID, htmlBody)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send html message: %w", err)
	}
	return nil
}

// SendMediaGroup sends the given image URLs to the chat as one album.
func (b *Bot) SendMediaGroup(chatID int64, imageURLs []string) error {
	media := make([]interface{}, 0, len(imageURLs))
	for _, u := range imageURLs {
		media = append(media, tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(u)))
	}
	if _, err := b.api.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media)); err != nil {
		return fmt.Errorf("send media group: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	rec, err := b.store.GetOrCreateRecipient(ctx, msg.From.ID, msg.From.UserName)
	if err != nil {
		b.log.Error("get or create recipient", "telegram_id", msg.From.ID, "error", err)
		b.reply(chatID, "Internal error, try again later.")
		return
	}

	kind := parseCommandKind(msg.Command())
	args := strings.TrimSpace(msg.CommandArguments())

	b.log.Debug("command", "cmd", msg.Command(), "args", args, "chat_id", chatID)

	// Any command aborts a pending multi-step flow.
	b.sessions.clear(chatID)

	switch kind {
	case cmdStart:
		b.handleStart(chatID)
	case cmdHelp:
		b.handleHelp(chatID)
	case cmdChannels:
		b.handleChannels(ctx, chatID)
	case cmdSubscribe:
		b.handleSubscribe(ctx, chatID, rec.ID, args)
	case cmdUnsubscribe:
		b.handleUnsubscribe(ctx, chatID, rec.ID, args)
	case cmdList:
		b.handleList(ctx, chatID, rec.ID)
	case cmdFilters:
		b.handleFilters(ctx, chatID, rec.ID, args)
	case cmdAddFilter:
		b.handleAddFilter(ctx, chatID, rec.ID, args)
	case cmdRmFilter:
		b.handleRmFilter(ctx, chatID, rec.ID, args)
	case cmdRecent:
		b.handleRecent(ctx, chatID, rec.ID)
	case cmdUnknown:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

// handleConversation advances a pending multi-step flow with the user's
// plain-text message. Messages outside a flow are ignored.
func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	conv := b.sessions.get(chatID)
	if conv.state == stateIdle {
		return
	}

	rec, err := b.store.GetOrCreateRecipient(ctx, msg.From.ID, msg.From.UserName)
	if err != nil {
		b.log.Error("get or create recipient", "telegram_id", msg.From.ID, "error", err)
		return
	}

	switch conv.state {
	case stateAwaitFilterKeyword:
		b.sessions.clear(chatID)
		keyword := strings.TrimSpace(msg.Text)
		if keyword == "" {
			b.reply(chatID, "Filter keyword cannot be empty.")
			return
		}
		b.createFilter(ctx, chatID, rec.ID, conv.subscriptionID, keyword)
	case stateIdle:
	}
}
