// Package config loads the server's HCL configuration file and applies
// defaults, mirroring how the rest of the platform treats missing files
// as "run with defaults".
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration
type Config struct {
	Server  ServerSettings  `hcl:"server,block"`
	Store   StoreSettings   `hcl:"store,block"`
	Content ContentSettings `hcl:"content,block"`
	Game    GameSettings    `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address     string   `hcl:"address,optional"`
	Port        int      `hcl:"port,optional"`
	PublicURL   string   `hcl:"public_url,optional"`
	LogLevel    string   `hcl:"log_level,optional"`
	LogFile     string   `hcl:"log_file,optional"`
	CORSOrigins []string `hcl:"cors_origins,optional"`
}

// StoreSettings selects and configures the game store backend.
// Backend is "memory" or "redis".
type StoreSettings struct {
	Backend   string `hcl:"backend,optional"`
	RedisAddr string `hcl:"redis_addr,optional"`
	RedisDB   int    `hcl:"redis_db,optional"`
	// RedisPassword is read from REDIS_PASSWORD when empty.
	RedisPassword string `hcl:"redis_password,optional"`
}

// ContentSettings configures the question generation service.
type ContentSettings struct {
	GeneratorURL string `hcl:"generator_url,optional"`
	// APIKey is read from CONTENT_API_KEY when empty.
	APIKey         string `hcl:"api_key,optional"`
	TimeoutSeconds int    `hcl:"timeout_seconds,optional"`
	MaxRetries     int    `hcl:"max_retries,optional"`
}

// GameSettings contains gameplay-level knobs that apply to every game.
type GameSettings struct {
	MaxTeams          int `hcl:"max_teams,optional"`
	MaxPlayersPerTeam int `hcl:"max_players_per_team,optional"`
	PollIntervalMS    int `hcl:"poll_interval_ms,optional"`
	TransitionMS      int `hcl:"transition_ms,optional"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			LogFile:  "gameshow-server.log",
		},
		Store: StoreSettings{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
		},
		Content: ContentSettings{
			TimeoutSeconds: 30,
			MaxRetries:     2,
		},
		Game: GameSettings{
			MaxTeams:          4,
			MaxPlayersPerTeam: 8,
			PollIntervalMS:    1500,
			TransitionMS:      2000,
		},
	}
}

// Load loads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = d.Server.LogLevel
	}
	if c.Server.LogFile == "" {
		c.Server.LogFile = d.Server.LogFile
	}
	if c.Store.Backend == "" {
		c.Store.Backend = d.Store.Backend
	}
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = d.Store.RedisAddr
	}
	if c.Content.TimeoutSeconds == 0 {
		c.Content.TimeoutSeconds = d.Content.TimeoutSeconds
	}
	if c.Content.MaxRetries == 0 {
		c.Content.MaxRetries = d.Content.MaxRetries
	}
	if c.Game.MaxTeams == 0 {
		c.Game.MaxTeams = d.Game.MaxTeams
	}
	if c.Game.MaxPlayersPerTeam == 0 {
		c.Game.MaxPlayersPerTeam = d.Game.MaxPlayersPerTeam
	}
	if c.Game.PollIntervalMS == 0 {
		c.Game.PollIntervalMS = d.Game.PollIntervalMS
	}
	if c.Game.TransitionMS == 0 {
		c.Game.TransitionMS = d.Game.TransitionMS
	}
}

// applyEnv fills secrets from the environment so they stay out of the
// config file.
func (c *Config) applyEnv() {
	if c.Store.RedisPassword == "" {
		c.Store.RedisPassword = os.Getenv("REDIS_PASSWORD")
	}
	if c.Content.APIKey == "" {
		c.Content.APIKey = os.Getenv("CONTENT_API_KEY")
	}
	if url := os.Getenv("CONTENT_GENERATOR_URL"); url != "" && c.Content.GeneratorURL == "" {
		c.Content.GeneratorURL = url
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("redis backend requires redis_addr")
		}
	default:
		return fmt.Errorf("invalid store backend: %s", c.Store.Backend)
	}
	if c.Game.MaxTeams < 2 {
		return fmt.Errorf("max teams must be at least 2, got %d", c.Game.MaxTeams)
	}
	if c.Game.MaxPlayersPerTeam < 1 {
		return fmt.Errorf("max players per team must be positive, got %d", c.Game.MaxPlayersPerTeam)
	}
	if c.Game.PollIntervalMS < 100 {
		return fmt.Errorf("poll interval must be at least 100ms, got %d", c.Game.PollIntervalMS)
	}
	return nil
}

// ServerAddress returns the listen address.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
