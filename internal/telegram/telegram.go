// Package telegram connects bot.Service to the Telegram Bot API by long
// polling, and sends notifications as private messages.
package telegram

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mafiabot/internal/notify"
)

// API is the part of *tgbotapi.BotAPI the transport uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// ClientOptions bounds calls to the Bot API
type ClientOptions struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	PollTimeout    time.Duration
}

// NewHTTPClient builds the client used for Bot API calls. getUpdates holds
// the response for up to the poll timeout, so that is added to the read
// timeout.
func NewHTTPClient(opts ClientOptions) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: opts.ConnectTimeout}).DialContext,
			TLSHandshakeTimeout:   opts.ConnectTimeout,
			ResponseHeaderTimeout: opts.ReadTimeout + opts.PollTimeout,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConnsPerHost:   8,
		},
	}
}

// Connect authenticates with the Bot API
func Connect(token string, opts ClientOptions) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, NewHTTPClient(opts))
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	return api, nil
}

// Notifier sends notifications as plain private messages. A user's chat
// id equals their user id once they have started the bot.
type Notifier struct {
	api API
}

// NewNotifier creates a notifier
func NewNotifier(api API) *Notifier {
	return &Notifier{api: api}
}

// Send delivers msg.Text to msg.Recipient
func (n *Notifier) Send(ctx context.Context, msg notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.api.Send(tgbotapi.NewMessage(msg.Recipient, msg.Text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
