package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relay_bot/internal/model"
	"relay_bot/internal/storage"
)

type mockAPI struct {
	sent   []tgbotapi.Chattable
	albums []tgbotapi.MediaGroupConfig
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.sent = append(m.sent, c)
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockAPI) SendMediaGroup(cfg tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	m.albums = append(m.albums, cfg)
	return nil, nil
}

func (m *mockAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (m *mockAPI) StopReceivingUpdates() {}

// texts returns the message bodies sent so far, in order.
func (m *mockAPI) texts() []string {
	var out []string
	for _, c := range m.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (m *mockAPI) lastText(t *testing.T) string {
	t.Helper()
	texts := m.texts()
	if len(texts) == 0 {
		t.Fatal("no messages sent")
	}
	return texts[len(texts)-1]
}

func newTestBot(t *testing.T) (*Bot, *mockAPI, *storage.SQLite) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	api := &mockAPI{}
	b := &Bot{
		api:      api,
		store:    store,
		sessions: newSessions(),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return b, api, store
}

// commandMessage builds an incoming message carrying a bot_command entity,
// the way the Telegram API reports commands.
func commandMessage(userID int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.Index(text, " "); i >= 0 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		Text: text,
		From: &tgbotapi.User{ID: userID, UserName: "alice"},
		Chat: &tgbotapi.Chat{ID: userID},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
	}
}

func plainMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		From: &tgbotapi.User{ID: userID, UserName: "alice"},
		Chat: &tgbotapi.Chat{ID: userID},
	}
}

func seedChannel(t *testing.T, store *storage.SQLite, channelID, name string) {
	t.Helper()
	if err := store.SyncChannels(context.Background(), []model.ObservedChannel{
		{ChannelID: channelID, Name: name},
	}); err != nil {
		t.Fatalf("seed channel: %v", err)
	}
}

func TestHandleSubscribe(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedChannel(t, store, "555", "ann-news")

	b.handleCommand(ctx, commandMessage(1001, "/subscribe 555"))

	reply := api.lastText(t)
	if !strings.Contains(reply, "Subscribed to #ann-news") {
		t.Errorf("unexpected reply: %q", reply)
	}

	rec, err := store.GetOrCreateRecipient(ctx, 1001, "alice")
	if err != nil {
		t.Fatalf("get recipient: %v", err)
	}
	subs, err := store.ListSubscriptions(ctx, rec.ID)
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 1 || !subs[0].IsActive || subs[0].Label != "ann-news" {
		t.Errorf("unexpected subscriptions: %+v", subs)
	}
}

func TestHandleSubscribeUnknownChannel(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleCommand(context.Background(), commandMessage(1001, "/subscribe 999"))

	if reply := api.lastText(t); !strings.Contains(reply, "not in the catalog") {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestHandleSubscribeReactivates(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedChannel(t, store, "555", "ann-news")

	b.handleCommand(ctx, commandMessage(1001, "/subscribe 555"))
	b.handleCommand(ctx, commandMessage(1001, "/unsubscribe 1"))
	b.handleCommand(ctx, commandMessage(1001, "/subscribe 555"))

	if reply := api.lastText(t); !strings.Contains(reply, "Re-subscribed") {
		t.Errorf("unexpected reply: %q", reply)
	}

	rec, _ := store.GetOrCreateRecipient(ctx, 1001, "alice")
	subs, err := store.ListSubscriptions(ctx, rec.ID)
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 1 || !subs[0].IsActive {
		t.Errorf("expected one reactivated subscription, got %+v", subs)
	}
}

func TestHandleSubscribeDuplicate(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedChannel(t, store, "555", "ann-news")

	b.handleCommand(ctx, commandMessage(1001, "/subscribe 555"))
	b.handleCommand(ctx, commandMessage(1001, "/subscribe 555"))

	if reply := api.lastText(t); !strings.Contains(reply, "already subscribed") {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestHandleUnsubscribeOwnership(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedChannel(t, store, "555", "ann-news")

	// User 1001 owns subscription #1.
	b.handleCommand(ctx, commandMessage(1001, "/subscribe 555"))

	// User 2002 must not be able to touch it.
	b.handleCommand(ctx, commandMessage(2002, "/unsubscribe 1"))
	if reply := api.lastText(t); !strings.Contains(reply, "not found") {
		t.Errorf("foreign subscription should look like it does not exist, got %q", reply)
	}

	sub, err := store.GetSubscription(ctx, 1)
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if !sub.IsActive {
		t.Error("subscription must stay active after a foreign unsubscribe attempt")
	}
}

func TestHandleListEmpty(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleCommand(context.Background(), commandMessage(1001, "/list"))

	if reply := api.lastText(t); !strings.Contains(reply, "no subscriptions") {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestHandleListShowsSubscriptions(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedChannel(t, store, "555", "ann-news")

	b.handleCommand(ctx, commandMessage(1001, "/subscribe 555"))
	b.handleCommand(ctx, commandMessage(1001, "/addfilter 1 listing"))
	b.handleCommand(ctx, commandMessage(1001, "/list"))

	reply := api.lastText(t)
	if !strings.Contains(reply, "ann-news") {
		t.Errorf("list should name the subscription, got %q", reply)
	}
	if !strings.Contains(reply, "1 filter(s)") {
		t.Errorf("list should show the filter count, got %q", reply)
	}

	// The listing carries inline unsubscribe/filter buttons.
	last := api.sent[len(api.sent)-1].(tgbotapi.MessageConfig)
	if _, ok := last.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); !ok {
		t.Error("expected an inline keyboard on the subscription list")
	}
}

func TestHandleAddAndRemoveFilter(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedChannel(t, store, "555", "ann-news")

	b.handleCommand(ctx, commandMessage(1001, "/subscribe 555"))
	b.handleCommand(ctx, commandMessage(1001, "/addfilter 1 token listing"))

	if reply := api.lastText(t); !strings.Contains(reply, `"token listing"`) {
		t.Errorf("unexpected add-filter reply: %q", reply)
	}

	filters, err := store.ListActiveFilters(ctx, 1)
	if err != nil {
		t.Fatalf("list filters: %v", err)
	}
	if len(filters) != 1 || filters[0].Keyword != "token listing" {
		t.Errorf("unexpected filters: %+v", filters)
	}

	b.handleCommand(ctx, commandMessage(1001, "/rmfilter 1"))
	filters, err = store.ListActiveFilters(ctx, 1)
	if err != nil {
		t.Fatalf("list filters: %v", err)
	}
	if len(filters) != 0 {
		t.Errorf("expected no active filters after /rmfilter, got %+v", filters)
	}
}

func TestHandleAddFilterOwnership(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedChannel(t, store, "555", "ann-news")

	b.handleCommand(ctx, commandMessage(1001, "/subscribe 555"))
	b.handleCommand(ctx, commandMessage(2002, "/addfilter 1 listing"))

	if reply := api.lastText(t); !strings.Contains(reply, "not found") {
		t.Errorf("foreign subscription should look like it does not exist, got %q", reply)
	}
}

func TestHandleRecentEmpty(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleCommand(context.Background(), commandMessage(1001, "/recent"))

	if reply := api.lastText(t); !strings.Contains(reply, "No announcements") {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleCommand(context.Background(), commandMessage(1001, "/frobnicate"))

	if reply := api.lastText(t); !strings.Contains(reply, "Unknown command") {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestCallbackFilterFlow(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedChannel(t, store, "555", "ann-news")
	b.handleCommand(ctx, commandMessage(1001, "/subscribe 555"))

	cb := &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    "filter:1",
		From:    &tgbotapi.User{ID: 1001, UserName: "alice"},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1001}},
	}
	b.handleCallback(ctx, cb)

	if reply := api.lastText(t); !strings.Contains(reply, "Send the keyword") {
		t.Errorf("expected keyword prompt, got %q", reply)
	}

	b.handleConversation(ctx, plainMessage(1001, "airdrop"))

	filters, err := store.ListActiveFilters(ctx, 1)
	if err != nil {
		t.Fatalf("list filters: %v", err)
	}
	if len(filters) != 1 || filters[0].Keyword != "airdrop" {
		t.Errorf("expected filter from conversation flow, got %+v", filters)
	}

	// The flow is one-shot: another plain message does nothing.
	before := len(api.texts())
	b.handleConversation(ctx, plainMessage(1001, "more"))
	if len(api.texts()) != before {
		t.Error("idle conversation message should be ignored")
	}
}

func TestCommandAbortsConversation(t *testing.T) {
	ctx := context.Background()
	b, _, store := newTestBot(t)
	seedChannel(t, store, "555", "ann-news")
	b.handleCommand(ctx, commandMessage(1001, "/subscribe 555"))

	b.sessions.set(1001, conversation{state: stateAwaitFilterKeyword, subscriptionID: 1})
	b.handleCommand(ctx, commandMessage(1001, "/help"))

	if conv := b.sessions.get(1001); conv.state != stateIdle {
		t.Error("any command should abort a pending flow")
	}
}

func TestCallbackSubscribe(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedChannel(t, store, "555", "ann-news")

	cb := &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    "sub:555",
		From:    &tgbotapi.User{ID: 1001, UserName: "alice"},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1001}},
	}
	b.handleCallback(ctx, cb)

	if reply := api.lastText(t); !strings.Contains(reply, "Subscribed to #ann-news") {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestSendHTML(t *testing.T) {
	b, api, _ := newTestBot(t)

	if err := b.SendHTML(1001, "<b>hello</b>"); err != nil {
		t.Fatalf("SendHTML: %v", err)
	}

	msg := api.sent[0].(tgbotapi.MessageConfig)
	if msg.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("expected HTML parse mode, got %q", msg.ParseMode)
	}
	if msg.Text != "<b>hello</b>" {
		t.Errorf("unexpected body %q", msg.Text)
	}
}

func TestSendMediaGroup(t *testing.T) {
	b, api, _ := newTestBot(t)

	urls := []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.jpg"}
	if err := b.SendMediaGroup(1001, urls); err != nil {
		t.Fatalf("SendMediaGroup: %v", err)
	}

	if len(api.albums) != 1 {
		t.Fatalf("expected 1 media group, got %d", len(api.albums))
	}
	if got := len(api.albums[0].Media); got != 2 {
		t.Errorf("expected 2 media items, got %d", got)
	}
}
