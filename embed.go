package mafiabot

import (
	_ "embed"
)

// Embed the default server configuration
//
//go:embed config/server.yaml
var DefaultConfigYAML []byte
