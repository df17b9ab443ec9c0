// Package source adapts the Discord gateway connection into the
// transport-agnostic event stream consumed by the relay.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"relay_bot/internal/model"
	"relay_bot/internal/relay"
)

// Discord wraps a gateway session for one guild and exposes its text
// channels and message stream.
type Discord struct {
	session *discordgo.Session
	guildID string
	events  chan relay.InboundMessage
	ready   chan struct{}
	once    sync.Once
	log     *slog.Logger
}

// NewDiscord creates a gateway connection for the given bot token and guild.
func NewDiscord(token, guildID string, log *slog.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	d := &Discord{
		session: session,
		guildID: guildID,
		events:  make(chan relay.InboundMessage, 64),
		ready:   make(chan struct{}),
		log:     log,
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent
	// Handlers run on the gateway read loop so events keep arrival order.
	session.SyncEvents = true
	session.AddHandler(d.onReady)
	session.AddHandler(d.onMessage)

	return d, nil
}

// Events returns the inbound message stream.
func (d *Discord) Events() <-chan relay.InboundMessage {
	return d.events
}

// Ready is closed once the gateway connection has been established.
func (d *Discord) Ready() <-chan struct{} {
	return d.ready
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (d *Discord) Run(ctx context.Context) error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	<-ctx.Done()
	err := d.session.Close()
	close(d.events)
	return err
}

// ListChannels returns the guild's text channels.
func (d *Discord) ListChannels(_ context.Context) ([]model.ObservedChannel, error) {
	channels, err := d.session.GuildChannels(d.guildID)
	if err != nil {
		return nil, fmt.Errorf("guild channels: %w", err)
	}

	var observed []model.ObservedChannel
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		observed = append(observed, model.ObservedChannel{ChannelID: ch.ID, Name: ch.Name})
	}
	return observed, nil
}

func (d *Discord) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	d.log.Info("discord connected", "user", r.User.Username, "user_id", r.User.ID)
	d.once.Do(func() { close(d.ready) })
}

func (d *Discord) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	// Only guild messages from the configured guild are relayed.
	if m.GuildID == "" || m.GuildID != d.guildID {
		return
	}
	d.events <- toInbound(m.Message)
}

func toInbound(m *discordgo.Message) relay.InboundMessage {
	msg := relay.InboundMessage{
		MessageID:      m.ID,
		ChannelID:      m.ChannelID,
		Content:        m.Content,
		IsTrustedRelay: m.WebhookID != "",
		CreatedAt:      m.Timestamp,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.IsBot = m.Author.Bot
	}
	for _, emb := range m.Embeds {
		e := relay.Embed{Title: emb.Title, Description: emb.Description}
		if emb.Image != nil {
			e.ImageURL = emb.Image.URL
		}
		msg.Embeds = append(msg.Embeds, e)
	}
	for _, att := range m.Attachments {
		msg.Attachments = append(msg.Attachments, relay.Attachment{URL: att.URL, Filename: att.Filename})
	}
	return msg
}
