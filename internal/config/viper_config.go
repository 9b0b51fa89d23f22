package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// rolesDocument picks the role list out of a config file
type rolesDocument struct {
	Game struct {
		Roles RoleList `yaml:"roles"`
	} `yaml:"game"`
}

// LoadConfig loads configuration using Viper
// Priority order: Environment variables > Config file > Embedded defaults
func LoadConfig(configPath string, defaults []byte) (*ServerConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("error reading default config: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("server")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/mafiabot")
	}

	// Enable environment variable binding
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// These allow both MAFIABOT-style keys and the short names to work
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.loglevel", "LOG_LEVEL")
	v.BindEnv("server.ratelimit", "RATE_LIMIT")
	v.BindEnv("server.ratelimitburst", "RATE_LIMIT_BURST")
	v.BindEnv("server.maxrequestsize", "MAX_REQUEST_SIZE")
	v.BindEnv("server.webhooksecret", "WEBHOOK_SECRET")
	v.BindEnv("bot.token", "BOT_TOKEN")
	v.BindEnv("bot.username", "BOT_USERNAME")
	v.BindEnv("bot.hosthandle", "HOST_USERNAME")
	v.BindEnv("bot.locale", "LOCALE")
	v.BindEnv("bot.dryrun", "DRY_RUN")
	v.BindEnv("game.minplayers", "MIN_PLAYERS")
	v.BindEnv("notify.ratepersecond", "NOTIFY_RATE")

	// The config file is optional; a missing one leaves the defaults
	fileUsed := true
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		fileUsed = false
	}

	cfg := &ServerConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	roles, err := loadRoles(defaults, fileUsed, v.ConfigFileUsed())
	if err != nil {
		return nil, err
	}
	cfg.Game.Roles = roles

	if env := os.Getenv("MAFIA_ROLES"); env != "" {
		roles, err := ParseRoleList(env)
		if err != nil {
			return nil, fmt.Errorf("MAFIA_ROLES: %w", err)
		}
		cfg.Game.Roles = roles
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadRoles returns the role list of the config file when it has one,
// otherwise the embedded default.
func loadRoles(defaults []byte, fileUsed bool, path string) (RoleList, error) {
	var doc rolesDocument
	if err := yaml.Unmarshal(defaults, &doc); err != nil {
		return nil, fmt.Errorf("error reading default roles: %w", err)
	}
	roles := doc.Game.Roles

	if !fileUsed || path == "" {
		return roles, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading roles from %s: %w", path, err)
	}
	var fileDoc rolesDocument
	if err := yaml.Unmarshal(data, &fileDoc); err != nil {
		return nil, fmt.Errorf("error reading roles from %s: %w", path, err)
	}
	if fileDoc.Game.Roles != nil {
		roles = fileDoc.Game.Roles
	}
	return roles, nil
}
