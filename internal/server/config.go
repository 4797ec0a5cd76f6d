package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/elimdraw/internal/lottery"
)

// Config represents the complete server configuration. Blocks are
// pointers so a config file may omit any of them.
type Config struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Game    *GameSettings    `hcl:"game,block"`
	Raid    *RaidSettings    `hcl:"raid,block"`
	Storage *StorageSettings `hcl:"storage,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// GameSettings tunes the lottery engine. Durations are strings in Go
// duration syntax ("5m", "30s").
type GameSettings struct {
	StartDelay          string `hcl:"start_delay,optional"`
	MinStartDelay       string `hcl:"min_start_delay,optional"`
	MaxStartDelay       string `hcl:"max_start_delay,optional"`
	SelectionMultiplier int    `hcl:"selection_multiplier,optional"`
	MaxPlayers          int    `hcl:"max_players,optional"`
	WinnerCount         int    `hcl:"winner_count,optional"`
	MaxGamesPerChat     int    `hcl:"max_games_per_chat,optional"`
	MaxRoundRetries     int    `hcl:"max_round_retries,optional"`
	RetryDelay          string `hcl:"retry_delay,optional"`
	HistoryLimit        int    `hcl:"history_limit,optional"`
}

// RaidSettings configures the raid gate.
type RaidSettings struct {
	Sender             string   `hcl:"sender,optional"`
	InProgressPatterns []string `hcl:"in_progress_patterns,optional"`
	SuccessPatterns    []string `hcl:"success_patterns,optional"`
	FailurePatterns    []string `hcl:"failure_patterns,optional"`
	ReminderInterval   string   `hcl:"reminder_interval,optional"`
	GraceDelay         string   `hcl:"grace_delay,optional"`
}

// StorageSettings configures the persistence tiers.
type StorageSettings struct {
	DataDir   string `hcl:"data_dir,optional"`
	StateFile string `hcl:"state_file,optional"`
	CacheTTL  string `hcl:"cache_ttl,optional"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: &GameSettings{
			StartDelay:          "5m",
			MinStartDelay:       "1m",
			MaxStartDelay:       "30m",
			SelectionMultiplier: 2,
			MaxPlayers:          50,
			WinnerCount:         1,
			MaxGamesPerChat:     5,
			MaxRoundRetries:     3,
			RetryDelay:          "30s",
			HistoryLimit:        20,
		},
		Raid: &RaidSettings{
			ReminderInterval: "30s",
			GraceDelay:       "10s",
		},
		Storage: &StorageSettings{
			DataDir:  "data",
			CacheTTL: "5m",
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(c *Config) {
	def := DefaultConfig()
	if c.Server == nil {
		c.Server = def.Server
	}
	if c.Game == nil {
		c.Game = def.Game
	}
	if c.Raid == nil {
		c.Raid = def.Raid
	}
	if c.Storage == nil {
		c.Storage = def.Storage
	}
	if c.Server.Address == "" {
		c.Server.Address = def.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}
	if c.Game.StartDelay == "" {
		c.Game.StartDelay = def.Game.StartDelay
	}
	if c.Game.MinStartDelay == "" {
		c.Game.MinStartDelay = def.Game.MinStartDelay
	}
	if c.Game.MaxStartDelay == "" {
		c.Game.MaxStartDelay = def.Game.MaxStartDelay
	}
	if c.Game.SelectionMultiplier == 0 {
		c.Game.SelectionMultiplier = def.Game.SelectionMultiplier
	}
	if c.Game.MaxPlayers == 0 {
		c.Game.MaxPlayers = def.Game.MaxPlayers
	}
	if c.Game.WinnerCount == 0 {
		c.Game.WinnerCount = def.Game.WinnerCount
	}
	if c.Game.MaxGamesPerChat == 0 {
		c.Game.MaxGamesPerChat = def.Game.MaxGamesPerChat
	}
	if c.Game.MaxRoundRetries == 0 {
		c.Game.MaxRoundRetries = def.Game.MaxRoundRetries
	}
	if c.Game.RetryDelay == "" {
		c.Game.RetryDelay = def.Game.RetryDelay
	}
	if c.Game.HistoryLimit == 0 {
		c.Game.HistoryLimit = def.Game.HistoryLimit
	}
	if c.Raid.ReminderInterval == "" {
		c.Raid.ReminderInterval = def.Raid.ReminderInterval
	}
	if c.Raid.GraceDelay == "" {
		c.Raid.GraceDelay = def.Raid.GraceDelay
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = def.Storage.DataDir
	}
	if c.Storage.CacheTTL == "" {
		c.Storage.CacheTTL = def.Storage.CacheTTL
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.MaxPlayers < 2 {
		return fmt.Errorf("max_players must be at least 2")
	}
	if c.Game.WinnerCount < 1 || c.Game.WinnerCount >= c.Game.MaxPlayers {
		return fmt.Errorf("winner_count must be between 1 and %d", c.Game.MaxPlayers-1)
	}
	if c.Game.SelectionMultiplier < 1 {
		return fmt.Errorf("selection_multiplier must be at least 1")
	}
	for name, value := range map[string]string{
		"start_delay":       c.Game.StartDelay,
		"min_start_delay":   c.Game.MinStartDelay,
		"max_start_delay":   c.Game.MaxStartDelay,
		"retry_delay":       c.Game.RetryDelay,
		"reminder_interval": c.Raid.ReminderInterval,
		"grace_delay":       c.Raid.GraceDelay,
		"cache_ttl":         c.Storage.CacheTTL,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	min, _ := time.ParseDuration(c.Game.MinStartDelay)
	max, _ := time.ParseDuration(c.Game.MaxStartDelay)
	if min > max {
		return fmt.Errorf("min_start_delay exceeds max_start_delay")
	}
	return nil
}

// ListenAddress returns the full listen address
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// EngineConfig converts the game block into an engine config. Call
// Validate first; parse errors here fall back to the defaults.
func (c *Config) EngineConfig() lottery.Config {
	cfg := lottery.DefaultConfig()
	cfg.StartDelay = parseDuration(c.Game.StartDelay, cfg.StartDelay)
	cfg.MinStartDelay = parseDuration(c.Game.MinStartDelay, cfg.MinStartDelay)
	cfg.MaxStartDelay = parseDuration(c.Game.MaxStartDelay, cfg.MaxStartDelay)
	cfg.SelectionMultiplier = c.Game.SelectionMultiplier
	cfg.DefaultMaxPlayers = c.Game.MaxPlayers
	cfg.DefaultWinnerCount = c.Game.WinnerCount
	cfg.MaxGamesPerChat = c.Game.MaxGamesPerChat
	cfg.MaxRoundRetries = c.Game.MaxRoundRetries
	cfg.RetryDelay = parseDuration(c.Game.RetryDelay, cfg.RetryDelay)
	cfg.HistoryLimit = c.Game.HistoryLimit
	return cfg
}

// RaidConfig converts the raid block into gate settings.
func (c *Config) RaidConfig() lottery.RaidSettings {
	settings := lottery.DefaultRaidSettings()
	settings.Sender = c.Raid.Sender
	if len(c.Raid.InProgressPatterns) > 0 {
		settings.InProgressPatterns = c.Raid.InProgressPatterns
	}
	if len(c.Raid.SuccessPatterns) > 0 {
		settings.SuccessPatterns = c.Raid.SuccessPatterns
	}
	if len(c.Raid.FailurePatterns) > 0 {
		settings.FailurePatterns = c.Raid.FailurePatterns
	}
	settings.ReminderInterval = parseDuration(c.Raid.ReminderInterval, settings.ReminderInterval)
	settings.GraceDelay = parseDuration(c.Raid.GraceDelay, settings.GraceDelay)
	return settings
}

// StoreOptions converts the storage block into store options.
func (c *Config) StoreOptions() lottery.StoreOptions {
	statePath := c.Storage.StateFile
	if statePath == "" {
		statePath = lottery.StatePathDefault(c.Storage.DataDir)
	}
	return lottery.StoreOptions{
		DataDir:   c.Storage.DataDir,
		StatePath: statePath,
		CacheTTL:  parseDuration(c.Storage.CacheTTL, 5*time.Minute),
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
