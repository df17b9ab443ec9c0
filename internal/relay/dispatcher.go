package relay

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"sync"

	"relay_bot/internal/markup"
	"relay_bot/internal/model"
	"relay_bot/internal/storage"
	"relay_bot/internal/translate"
)

// Sender is the interface for outbound Telegram delivery.
type Sender interface {
	SendHTML(chatID int64, htmlBody string) error
	SendMediaGroup(chatID int64, imageURLs []string) error
}

// Dispatcher relays inbound channel messages to subscribed recipients.
// Every error along the way is logged and contained: a failure for one
// recipient never aborts the remaining fan-out, and nothing propagates
// out of Handle.
type Dispatcher struct {
	store      storage.Storage
	sender     Sender
	translator translate.Translator
	log        *slog.Logger

	wg sync.WaitGroup
}

// New creates a Dispatcher. translator may be nil to disable translation.
func New(store storage.Storage, sender Sender, translator translate.Translator, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:      store,
		sender:     sender,
		translator: translator,
		log:        log,
	}
}

// Run consumes inbound events until ctx is cancelled or the channel
// closes. Events are ingested one at a time in arrival order; each
// event's fan-out runs on its own goroutine so a slow delivery does not
// stall ingestion of the next event.
func (d *Dispatcher) Run(ctx context.Context, events <-chan InboundMessage) {
	defer d.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.Handle(ctx, msg)
			}()
		}
	}
}

// Handle relays a single inbound message to all interested recipients and
// returns when the fan-out completes.
func (d *Dispatcher) Handle(ctx context.Context, msg InboundMessage) {
	if msg.ChannelID == "" || msg.MessageID == "" {
		return
	}
	// Automated authors are dropped unless flagged as a trusted relay
	// (webhooks forwarding announcements from other platforms).
	if msg.IsBot && !msg.IsTrustedRelay {
		return
	}

	subscribers, err := d.store.ListActiveSubscribers(ctx, msg.ChannelID)
	if err != nil {
		d.log.Error("list subscribers", "channel_id", msg.ChannelID, "error", err)
		return
	}
	if len(subscribers) == 0 {
		return
	}

	raw := msg.CollectText()

	text := raw
	if d.translator != nil {
		translated, err := d.translator.Translate(ctx, raw)
		if err != nil {
			d.log.Warn("translate failed, relaying original", "message_id", msg.MessageID, "error", err)
		} else {
			text = translated
		}
	}

	normalized := markup.Normalize(text)

	var wg sync.WaitGroup
	for _, sub := range subscribers {
		wg.Add(1)
		go func(sub model.Subscriber) {
			defer wg.Done()
			d.deliver(ctx, msg, sub, raw, normalized)
		}(sub)
	}
	wg.Wait()
}

// deliver handles one recipient: filter check, delivery claim, transcode,
// send. The claim is recorded before the send, so a failed send is not
// retried on message redelivery.
func (d *Dispatcher) deliver(ctx context.Context, msg InboundMessage, sub model.Subscriber, raw, normalized string) {
	filters, err := d.store.ListActiveFilters(ctx, sub.Subscription.ID)
	if err != nil {
		d.log.Error("list filters", "subscription_id", sub.Subscription.ID, "error", err)
		return
	}
	label, ok := matchFilters(normalized, filters)
	if !ok {
		return
	}

	rec := &model.DeliveryRecord{
		MessageID:     msg.MessageID,
		ChannelID:     sub.Subscription.ChannelID,
		RecipientID:   sub.Recipient.ID,
		Content:       raw,
		Normalized:    normalized,
		MatchedFilter: label,
	}
	claimed, err := d.store.TryClaimDelivery(ctx, rec)
	if err != nil {
		d.log.Error("claim delivery", "message_id", msg.MessageID, "recipient_id", sub.Recipient.ID, "error", err)
		return
	}
	if !claimed {
		d.log.Debug("already delivered", "message_id", msg.MessageID, "recipient_id", sub.Recipient.ID)
		return
	}

	body := markup.Transcode(normalized, &storeResolver{ctx: ctx, store: d.store})
	caption := d.header(ctx, msg) + body

	if err := d.sender.SendHTML(sub.Recipient.TelegramID, caption); err != nil {
		d.log.Error("send message", "recipient_id", sub.Recipient.ID, "message_id", msg.MessageID, "error", err)
		return
	}

	if images := msg.ImageURLs(); len(images) > 0 {
		if err := d.sender.SendMediaGroup(sub.Recipient.TelegramID, images); err != nil {
			d.log.Error("send media group", "recipient_id", sub.Recipient.ID, "message_id", msg.MessageID, "error", err)
		}
	}

	d.log.Info("relayed message",
		"message_id", msg.MessageID,
		"channel_id", msg.ChannelID,
		"recipient_id", sub.Recipient.ID,
	)
}

// header composes the HTML preamble with the source channel and timestamp.
func (d *Dispatcher) header(ctx context.Context, msg InboundMessage) string {
	name := msg.ChannelName
	if ch, err := d.store.GetChannelByPlatformID(ctx, msg.ChannelID); err == nil && ch.Name != "" {
		name = ch.Name
	}
	return fmt.Sprintf("<b>New Discord announcement</b>\n<b>Channel:</b> #%s\n<b>Time:</b> %s\n\n",
		html.EscapeString(name), msg.CreatedAt.Format("02.01.2006 15:04"))
}

// storeResolver resolves mention tokens against the catalog and the
// recipient table.
type storeResolver struct {
	ctx   context.Context
	store storage.Storage
}

func (r *storeResolver) ChannelName(channelID string) (string, bool) {
	ch, err := r.store.GetChannelByPlatformID(r.ctx, channelID)
	if err != nil || ch.Name == "" {
		return "", false
	}
	return ch.Name, true
}

func (r *storeResolver) UserHandle(userID string) (string, bool) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return "", false
	}
	rec, err := r.store.GetRecipient(r.ctx, id)
	if err != nil || rec.Handle == "" {
		return "", false
	}
	return rec.Handle, true
}
