package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mafiabot/internal/bot"
	"mafiabot/internal/game"
	"mafiabot/internal/messages"
	"mafiabot/internal/notify"
)

// fakeAPI records every call and serves updates from a channel
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	answered []string
	updates  chan tgbotapi.Update
	stopped  bool
	sendErr  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.answered = append(f.answered, cb.CallbackQueryID)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) messagesTo(chatID int64) []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func user(id int64, handle string) *tgbotapi.User {
	return &tgbotapi.User{ID: id, UserName: handle}
}

func privateChat(id int64) *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: id, Type: "private"}
}

func commandUpdate(from *tgbotapi.User, text string) tgbotapi.Update {
	name, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: from,
		Chat: privateChat(from.ID),
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(name)},
		},
	}}
}

func textUpdate(from *tgbotapi.User, chat *tgbotapi.Chat, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{From: from, Chat: chat, Text: text}}
}

func TestCommandFor(t *testing.T) {
	host := user(100, "host")

	tests := []struct {
		name   string
		update tgbotapi.Update
		want   bot.Command
		ok     bool
	}{
		{
			name:   "join",
			update: commandUpdate(host, "/join"),
			want:   bot.Command{Name: bot.CmdJoin, Caller: bot.Caller{ID: 100, Handle: "host"}},
			ok:     true,
		},
		{
			name:   "command addressed to the bot",
			update: commandUpdate(host, "/startgame@mafia_bot"),
			want:   bot.Command{Name: bot.CmdStartGame, Caller: bot.Caller{ID: 100, Handle: "host"}},
			ok:     true,
		},
		{
			name:   "deep link join",
			update: commandUpdate(host, "/start join"),
			want:   bot.Command{Name: bot.CmdJoin, Caller: bot.Caller{ID: 100, Handle: "host"}},
			ok:     true,
		},
		{
			name:   "plain start is ignored",
			update: commandUpdate(host, "/start"),
		},
		{
			name:   "unknown command",
			update: commandUpdate(host, "/help"),
		},
		{
			name:   "name in private chat",
			update: textUpdate(user(1, "olena"), privateChat(1), "Олена"),
			want:   bot.Command{Name: bot.CmdText, Caller: bot.Caller{ID: 1, Handle: "olena"}, Text: "Олена"},
			ok:     true,
		},
		{
			name:   "group chatter is ignored",
			update: textUpdate(user(1, "olena"), &tgbotapi.Chat{ID: -5, Type: "group"}, "hello"),
		},
		{
			name: "send role callback",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID:      "cb1",
				From:    host,
				Data:    "send_role:42",
				Message: &tgbotapi.Message{MessageID: 7, Chat: privateChat(100), Text: "Player #1"},
			}},
			want: bot.Command{
				Name:     bot.CmdSendRole,
				Caller:   bot.Caller{ID: 100, Handle: "host"},
				Target:   42,
				Original: "Player #1",
			},
			ok: true,
		},
		{
			name: "foreign callback data",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID: "cb2", From: host, Data: "vote:1",
			}},
		},
		{
			name:   "channel post without sender",
			update: tgbotapi.Update{ChannelPost: &tgbotapi.Message{Text: "hi"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := commandFor(tt.update)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRender(t *testing.T) {
	resp := bot.Response{
		Replies: []bot.Reply{
			{Text: "Player #1", Button: &bot.Button{Text: "Send role", Data: "send_role:1"}},
			{Text: "Done"},
		},
	}

	out := render(100, 0, resp)
	require.Len(t, out, 2)

	first := out[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(100), first.ChatID)
	assert.Equal(t, "Player #1", first.Text)
	markup, ok := first.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 1)
	assert.Equal(t, "Send role", markup.InlineKeyboard[0][0].Text)
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "send_role:1", *markup.InlineKeyboard[0][0].CallbackData)

	second := out[1].(tgbotapi.MessageConfig)
	assert.Nil(t, second.ReplyMarkup)

	t.Run("edit in place", func(t *testing.T) {
		out := render(100, 7, bot.Response{Edit: &bot.Reply{Text: "sent"}})
		require.Len(t, out, 1)
		edit := out[0].(tgbotapi.EditMessageTextConfig)
		assert.Equal(t, 7, edit.MessageID)
		assert.Equal(t, "sent", edit.Text)
	})

	t.Run("edit without a message", func(t *testing.T) {
		out := render(100, 0, bot.Response{Edit: &bot.Reply{Text: "sent"}})
		require.Len(t, out, 1)
		assert.IsType(t, tgbotapi.MessageConfig{}, out[0])
	})
}

func TestNotifier(t *testing.T) {
	api := newFakeAPI()
	n := NewNotifier(api)

	require.NoError(t, n.Send(context.Background(), notify.Message{Recipient: 5, Text: "Ваш номер: 1"}))
	msgs := api.messagesTo(5)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Ваш номер: 1", msgs[0].Text)

	api.sendErr = errors.New("Forbidden: bot was blocked by the user")
	err := n.Send(context.Background(), notify.Message{Recipient: 5, Text: "x"})
	assert.ErrorContains(t, err, "blocked")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Send(ctx, notify.Message{Recipient: 5}), context.Canceled)
}

func newTestService(t *testing.T, api API) *bot.Service {
	t.Helper()
	session := game.NewSession(game.SessionConfig{
		HostHandle: "host",
		Roles:      game.NewRoleDistribution("Civilian", game.RoleSlot{Role: "Mafia", Count: 1}),
	})
	printer, err := messages.NewPrinter("en")
	require.NoError(t, err)
	dispatcher := notify.NewDispatcher(NewNotifier(api), notify.Options{Concurrency: 2})
	return bot.New(session, dispatcher, printer)
}

func TestPollerRoundTrip(t *testing.T) {
	api := newFakeAPI()
	svc := newTestService(t, api)
	p := NewPoller(api, svc, PollerOptions{PollTimeout: time.Second})

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	api.updates <- commandUpdate(user(100, "host"), "/join")
	api.updates <- commandUpdate(user(1, "a"), "/join")
	api.updates <- commandUpdate(user(2, "b"), "/join")
	close(api.updates)
	require.NoError(t, <-done)

	assert.Len(t, api.messagesTo(100), 2, "host greeting and hint")
	assert.Len(t, api.messagesTo(1), 1)
	assert.Len(t, api.messagesTo(2), 1)
	assert.Len(t, svc.Session().Snapshot().Players, 2)
}

func TestPollerCallback(t *testing.T) {
	api := newFakeAPI()
	svc := newTestService(t, api)
	ctx := context.Background()
	svc.Join(ctx, bot.Caller{ID: 100, Handle: "host"})
	svc.Join(ctx, bot.Caller{ID: 1, Handle: "a"})
	svc.Join(ctx, bot.Caller{ID: 2, Handle: "b"})
	svc.StartGame(ctx, bot.Caller{ID: 100, Handle: "host"})

	p := NewPoller(api, svc, PollerOptions{})
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	api.updates <- tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    user(100, "host"),
		Data:    bot.RoleCallbackData(1),
		Message: &tgbotapi.Message{MessageID: 9, Chat: privateChat(100), Text: "Player #1"},
	}}
	close(api.updates)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"cb1"}, api.answered)
	var want game.RoleName
	for _, e := range svc.Session().Snapshot().Players {
		if e.Player.ID == 1 {
			want = e.Role
		}
	}
	role := api.messagesTo(1)
	require.Len(t, role, 1)
	assert.Contains(t, role[0].Text, string(want))

	api.mu.Lock()
	defer api.mu.Unlock()
	var edit *tgbotapi.EditMessageTextConfig
	for _, c := range api.sent {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			edit = &e
		}
	}
	require.NotNil(t, edit)
	assert.Equal(t, 9, edit.MessageID)
	assert.True(t, strings.HasPrefix(edit.Text, "Player #1\n"))
}

func TestPollerRateLimitsPerUser(t *testing.T) {
	api := newFakeAPI()
	svc := newTestService(t, api)
	p := NewPoller(api, svc, PollerOptions{RateLimit: 0.001, RateLimitBurst: 1})

	// handled synchronously so the order is fixed
	p.handle(context.Background(), commandUpdate(user(1, "a"), "/join"))
	p.handle(context.Background(), commandUpdate(user(1, "a"), "/join"))
	p.handle(context.Background(), commandUpdate(user(2, "b"), "/join"))

	assert.Len(t, api.messagesTo(1), 1, "second update from the same user is dropped")
	assert.Len(t, api.messagesTo(2), 1)
}

func TestPollerStopsOnCancel(t *testing.T) {
	api := newFakeAPI()
	p := NewPoller(api, newTestService(t, api), PollerOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.True(t, api.stopped)
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(ClientOptions{ConnectTimeout: 10 * time.Second, ReadTimeout: 20 * time.Second, PollTimeout: 30 * time.Second})
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 50*time.Second, tr.ResponseHeaderTimeout)
	assert.Equal(t, 10*time.Second, tr.TLSHandshakeTimeout)
}
