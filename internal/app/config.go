package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/blueprintgo/internal/livechannel"
)

// Commands understood by App.Run.
const (
	CommandCatalog = "catalog"
	CommandSubmit  = "submit"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command   string
	GraphFile string // hcl graph document, submit only

	Backend       string // execution backend base URL
	CatalogPath   string // hcl manifest file or directory
	CatalogCache  string // sqlite file
	Live          string // base URL of the live channel
	LiveTransport string // livechannel.TransportWebSocket or TransportSocketIO
	ClientID      string

	Follow          bool
	DryRun          bool
	FollowTimeout   time.Duration
	HealthcheckPort int

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandCatalog:
	case CommandSubmit:
		if cfg.GraphFile == "" {
			return nil, errors.New("submit requires a graph document")
		}
		if cfg.Backend == "" && !cfg.DryRun {
			return nil, errors.New("submit requires -backend unless -dry-run is set")
		}
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}

	if cfg.Backend == "" && cfg.CatalogPath == "" && cfg.CatalogCache == "" {
		return nil, errors.New("at least one catalog source is required: -backend, -catalog or -catalog-cache")
	}
	if cfg.Follow && cfg.Live == "" {
		return nil, errors.New("-follow requires -live")
	}
	switch cfg.LiveTransport {
	case "", livechannel.TransportWebSocket, livechannel.TransportSocketIO:
	default:
		return nil, fmt.Errorf("unknown live transport %q: must be %q or %q",
			cfg.LiveTransport, livechannel.TransportWebSocket, livechannel.TransportSocketIO)
	}
	if cfg.FollowTimeout < 0 {
		return nil, errors.New("follow timeout cannot be negative")
	}
	if cfg.HealthcheckPort < 0 {
		return nil, errors.New("healthcheck port cannot be negative")
	}

	return &cfg, nil
}
