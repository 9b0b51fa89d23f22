package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mafiabot/internal/game"
	"mafiabot/internal/notify"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// ServerConfig represents the whole process configuration
type ServerConfig struct {
	Server ServerSettings `yaml:"server"`
	Bot    BotSettings    `yaml:"bot"`
	Game   GameSettings   `yaml:"game"`
	Notify NotifySettings `yaml:"notify"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"` // middleware timeout per request

	// Rate limiting (using golang.org/x/time/rate)
	RateLimit      float64 `yaml:"rateLimit"`      // requests per second
	RateLimitBurst int     `yaml:"rateLimitBurst"` // burst size

	MaxRequestSize int64  `yaml:"maxRequestSize"`
	LogLevel       string `yaml:"logLevel"`
	WebhookSecret  string `yaml:"webhookSecret"`
}

// BotSettings configures the chat transport
type BotSettings struct {
	Token          string        `yaml:"token"`
	Username       string        `yaml:"username"`
	HostHandle     string        `yaml:"hostHandle"`
	Locale         string        `yaml:"locale"`
	DryRun         bool          `yaml:"dryRun"`
	PollTimeout    time.Duration `yaml:"pollTimeout"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
}

// GameSettings configures the session
type GameSettings struct {
	MinPlayers  int    `yaml:"minPlayers"`
	DefaultRole string `yaml:"defaultRole"`
	// Roles keeps file order, which viper's maps cannot, so it is
	// decoded separately with yaml.v3.
	Roles RoleList `yaml:"roles" mapstructure:"-"`
}

// NotifySettings configures outbound delivery
type NotifySettings struct {
	Concurrency   int           `yaml:"concurrency"`
	RatePerSecond float64       `yaml:"ratePerSecond"`
	Burst         int           `yaml:"burst"`
	Timeout       time.Duration `yaml:"timeout"`
}

// RoleEntry is one special role and how many players receive it
type RoleEntry struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

// RoleList is an ordered role distribution. In YAML it is written either
// as a mapping (role: count, order preserved) or as a list of
// {name, count} entries.
type RoleList []RoleEntry

// UnmarshalYAML walks the node directly so mapping order survives
func (l *RoleList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		list := make(RoleList, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var count int
			if err := node.Content[i+1].Decode(&count); err != nil {
				return fmt.Errorf("role %s: %w", node.Content[i].Value, err)
			}
			list = append(list, RoleEntry{Name: node.Content[i].Value, Count: count})
		}
		*l = list
		return nil
	case yaml.SequenceNode:
		var entries []RoleEntry
		if err := node.Decode(&entries); err != nil {
			return err
		}
		*l = entries
		return nil
	default:
		return fmt.Errorf("line %d: roles must be a mapping or a list", node.Line)
	}
}

// ParseRoleList parses the MAFIA_ROLES form "Мафія=1,Дон=1"
func ParseRoleList(s string) (RoleList, error) {
	var list RoleList
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, rawCount, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("role %q: expected name=count", part)
		}
		count, err := strconv.Atoi(strings.TrimSpace(rawCount))
		if err != nil {
			return nil, fmt.Errorf("role %q: %w", part, err)
		}
		list = append(list, RoleEntry{Name: strings.TrimSpace(name), Count: count})
	}
	return list, nil
}

// Distribution converts the role list for the session
func (g GameSettings) Distribution() game.RoleDistribution {
	slots := make([]game.RoleSlot, 0, len(g.Roles))
	for _, r := range g.Roles {
		slots = append(slots, game.RoleSlot{Role: game.RoleName(r.Name), Count: r.Count})
	}
	return game.NewRoleDistribution(game.RoleName(g.DefaultRole), slots...)
}

// SessionConfig returns the immutable inputs of the game session
func (c *ServerConfig) SessionConfig() game.SessionConfig {
	return game.SessionConfig{
		HostHandle: c.Bot.HostHandle,
		Roles:      c.Game.Distribution(),
		MinPlayers: c.Game.MinPlayers,
	}
}

// NotifyOptions returns the dispatcher options
func (c *ServerConfig) NotifyOptions() notify.Options {
	return notify.Options{
		Concurrency:   c.Notify.Concurrency,
		RatePerSecond: c.Notify.RatePerSecond,
		Burst:         c.Notify.Burst,
		Timeout:       c.Notify.Timeout,
		Debug:         c.Server.LogLevel == "debug",
	}
}

// Addr returns the HTTP listen address
func (c *ServerConfig) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Validate checks if the configuration is valid
func (c *ServerConfig) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT environment variable must be set")
	}
	if strings.Trim(c.Bot.HostHandle, "@ ") == "" {
		return fmt.Errorf("HOST_USERNAME environment variable must be set")
	}
	if c.Bot.Token == "" && !c.Bot.DryRun {
		return fmt.Errorf("BOT_TOKEN must be set unless dryRun is enabled")
	}
	if c.Game.MinPlayers < game.MinPlayers {
		return fmt.Errorf("minPlayers must be at least %d", game.MinPlayers)
	}
	if err := c.Game.Distribution().Validate(); err != nil {
		return fmt.Errorf("roles: %w", err)
	}
	if c.Notify.Concurrency < 1 {
		return fmt.Errorf("notify concurrency must be at least 1")
	}
	if c.Notify.RatePerSecond < 0 {
		return fmt.Errorf("notify ratePerSecond cannot be negative")
	}
	switch c.Server.LogLevel {
	case "debug", "info":
	default:
		return fmt.Errorf("unknown log level %q", c.Server.LogLevel)
	}
	return nil
}
