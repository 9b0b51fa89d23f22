package telegram

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mafiabot/internal/bot"
	"mafiabot/internal/game"
	"mafiabot/internal/middleware"
)

// PollerOptions configures the update loop
type PollerOptions struct {
	PollTimeout time.Duration
	// Per-user flood control; RateLimit 0 disables it
	RateLimit      float64
	RateLimitBurst int
}

// Poller long-polls for updates and runs each one through the service
type Poller struct {
	api         API
	service     *bot.Service
	limiter     *middleware.RateLimiter
	pollTimeout time.Duration
	wg          sync.WaitGroup
}

// NewPoller creates a poller
func NewPoller(api API, service *bot.Service, opts PollerOptions) *Poller {
	p := &Poller{
		api:         api,
		service:     service,
		pollTimeout: opts.PollTimeout,
	}
	if opts.RateLimit > 0 {
		p.limiter = middleware.NewRateLimiter(opts.RateLimit, opts.RateLimitBurst)
	}
	return p
}

// Run handles updates until ctx is cancelled or the update channel closes.
// Each update runs in its own goroutine; Run waits for them before
// returning.
func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = int(p.pollTimeout / time.Second)
	updates := p.api.GetUpdatesChan(cfg)

	defer p.wg.Wait()
	// in-flight commands finish even when shutdown begins
	handleCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				p.handle(handleCtx, update)
			}()
		}
	}
}

func (p *Poller) handle(ctx context.Context, update tgbotapi.Update) {
	cmd, ok := commandFor(update)
	if !ok {
		return
	}
	if p.limiter != nil && !p.limiter.Allow(strconv.FormatInt(int64(cmd.Caller.ID), 10)) {
		log.Printf("telegram: dropping %s from %d: rate limited", cmd.Name, cmd.Caller.ID)
		return
	}

	if cq := update.CallbackQuery; cq != nil {
		// stop the button spinner before the slower delivery runs
		if _, err := p.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			log.Printf("telegram: answer callback: %v", err)
		}
	}

	resp, err := p.service.Handle(ctx, cmd)
	if err != nil {
		log.Printf("telegram: %s: %v", cmd.Name, err)
		return
	}

	chatID, messageID := origin(update)
	for _, c := range render(chatID, messageID, resp) {
		if _, err := p.api.Send(c); err != nil {
			log.Printf("telegram: reply to %d: %v", chatID, err)
		}
	}
}

// commandFor maps an update to a bot command. ok is false for updates the
// bot does not react to.
func commandFor(update tgbotapi.Update) (bot.Command, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.From == nil {
			return bot.Command{}, false
		}
		target, ok := bot.ParseRoleCallback(cq.Data)
		if !ok {
			return bot.Command{}, false
		}
		cmd := bot.Command{
			Name:   bot.CmdSendRole,
			Caller: callerOf(cq.From),
			Target: target,
		}
		if cq.Message != nil {
			cmd.Original = cq.Message.Text
		}
		return cmd, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return bot.Command{}, false
	}
	cmd := bot.Command{Caller: callerOf(msg.From)}

	if msg.IsCommand() {
		switch msg.Command() {
		case bot.CmdJoin, bot.CmdStartGame, bot.CmdStopGame, bot.CmdSendNumbers:
			cmd.Name = msg.Command()
		case "start":
			// deep link from the join QR code: t.me/<bot>?start=join
			if msg.CommandArguments() != bot.CmdJoin {
				return bot.Command{}, false
			}
			cmd.Name = bot.CmdJoin
		default:
			return bot.Command{}, false
		}
		return cmd, true
	}

	// names are only read from private chats
	if msg.Text == "" || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return bot.Command{}, false
	}
	cmd.Name = bot.CmdText
	cmd.Text = msg.Text
	return cmd, true
}

func callerOf(u *tgbotapi.User) bot.Caller {
	return bot.Caller{ID: game.PlayerID(u.ID), Handle: u.UserName}
}

// origin returns the chat to answer in and, for callbacks, the message
// that carried the button.
func origin(update tgbotapi.Update) (chatID int64, messageID int) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.Message != nil && cq.Message.Chat != nil {
			return cq.Message.Chat.ID, cq.Message.MessageID
		}
		return cq.From.ID, 0
	}
	if update.Message.Chat != nil {
		return update.Message.Chat.ID, 0
	}
	return update.Message.From.ID, 0
}

// render turns a response into Bot API calls. Replies with a button get a
// one-button inline keyboard. An edit needs the id of the message it
// replaces; without one it is sent as a new message.
func render(chatID int64, messageID int, resp bot.Response) []tgbotapi.Chattable {
	out := make([]tgbotapi.Chattable, 0, len(resp.Replies)+1)

	if resp.Edit != nil {
		if messageID != 0 {
			out = append(out, tgbotapi.NewEditMessageText(chatID, messageID, resp.Edit.Text))
		} else {
			out = append(out, tgbotapi.NewMessage(chatID, resp.Edit.Text))
		}
	}

	for _, r := range resp.Replies {
		msg := tgbotapi.NewMessage(chatID, r.Text)
		if r.Button != nil {
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData(r.Button.Text, r.Button.Data),
				),
			)
		}
		out = append(out, msg)
	}
	return out
}
