package main

import (
	"fmt"
	"log"
	"net/http"

	"mafiabot/internal/bot"
	"mafiabot/internal/config"
	"mafiabot/internal/game"
	"mafiabot/internal/handlers"
	"mafiabot/internal/messages"
	"mafiabot/internal/notify"
	"mafiabot/internal/telegram"
)

// App is the wired bot: the HTTP handler plus, when a token is configured,
// the Telegram update loop.
type App struct {
	Handler http.Handler
	Service *bot.Service
	Poller  *telegram.Poller
}

// SetupServer wires every component from cfg. api may be nil, in which case
// a Bot API client is created from the token unless cfg.Bot.DryRun is set.
func SetupServer(cfg *config.ServerConfig, api telegram.API) (*App, error) {
	printer, err := messages.NewPrinter(cfg.Bot.Locale)
	if err != nil {
		return nil, fmt.Errorf("message catalog: %w", err)
	}

	if api == nil && !cfg.Bot.DryRun {
		api, err = telegram.Connect(cfg.Bot.Token, telegram.ClientOptions{
			ConnectTimeout: cfg.Bot.ConnectTimeout,
			ReadTimeout:    cfg.Bot.ReadTimeout,
			PollTimeout:    cfg.Bot.PollTimeout,
		})
		if err != nil {
			return nil, err
		}
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if api != nil {
		notifier = telegram.NewNotifier(api)
	} else {
		log.Printf("Dry run: outbound messages are logged, not sent")
	}

	session := game.NewSession(cfg.SessionConfig())
	dispatcher := notify.NewDispatcher(notifier, cfg.NotifyOptions())
	service := bot.New(session, dispatcher, printer)

	h := handlers.New(service, cfg.Bot.Username, cfg.Server.WebhookSecret)
	app := &App{
		Handler: handlers.NewRouter(h, handlers.RouterOptions{
			RequestTimeout: cfg.Server.RequestTimeout,
			MaxRequestSize: cfg.Server.MaxRequestSize,
			RateLimit:      cfg.Server.RateLimit,
			RateLimitBurst: cfg.Server.RateLimitBurst,
		}),
		Service: service,
	}

	if api != nil {
		app.Poller = telegram.NewPoller(api, service, telegram.PollerOptions{
			PollTimeout:    cfg.Bot.PollTimeout,
			RateLimit:      cfg.Server.RateLimit,
			RateLimitBurst: cfg.Server.RateLimitBurst,
		})
	}
	return app, nil
}
