package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mafiabot"
	"mafiabot/internal/config"
)

func main() {
	// A local .env may hold BOT_TOKEN; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal("Failed to read .env: ", err)
	}

	// Load server configuration
	cfg, err := config.LoadConfig("", mafiabot.DefaultConfigYAML)
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	log.Printf("Loaded configuration: host %s, %d role slots, locale %s",
		cfg.Bot.HostHandle, len(cfg.Game.Roles), cfg.Bot.Locale)

	app, err := SetupServer(cfg, nil)
	if err != nil {
		log.Fatal("Failed to set up bot: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: ", err)
		}
	}()

	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		if app.Poller == nil {
			return
		}
		log.Printf("Polling Telegram for updates")
		if err := app.Poller.Run(ctx); err != nil {
			log.Printf("Poller stopped: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	select {
	case <-pollerDone:
	case <-shutdownCtx.Done():
		log.Printf("Gave up waiting for in-flight updates")
	}

	log.Println("Server gracefully stopped")
}
