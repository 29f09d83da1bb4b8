package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Network   NetworkConfig   `toml:"network"`
	Game      GameConfig      `toml:"game"`
	Scripting ScriptingConfig `toml:"scripting"`
	HTTP      HTTPConfig      `toml:"http"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	StartTime int64  // set at boot, not from config
}

type NetworkConfig struct {
	BindAddress  string        `toml:"bind_address"`
	TickRate     time.Duration `toml:"tick_rate"`
	MaxStep      time.Duration `toml:"max_step"` // ceiling for elapsed time fed into one tick
	OutQueueSize int           `toml:"out_queue_size"`
	MaxFrameSize int           `toml:"max_frame_size"`
	WriteTimeout time.Duration `toml:"write_timeout"` // 0 = none

	CommandsPerSecond float64 `toml:"commands_per_second"` // 0 = unlimited
	CommandBurst      int     `toml:"command_burst"`
}

type GameConfig struct {
	DataFile string `toml:"data_file"` // empty = built-in layout
}

type ScriptingConfig struct {
	Dir string `toml:"dir"`
}

type HTTPConfig struct {
	BindAddress    string   `toml:"bind_address"` // empty disables the admin surface
	WSPath         string   `toml:"ws_path"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Default returns the built-in configuration, used when no file exists.
func Default() *Config {
	cfg := defaults()
	cfg.Server.StartTime = time.Now().Unix()
	return cfg
}

func (c *Config) validate() error {
	if c.Network.BindAddress == "" {
		return fmt.Errorf("network.bind_address is required")
	}
	if c.Network.TickRate <= 0 {
		return fmt.Errorf("network.tick_rate must be positive, got %s", c.Network.TickRate)
	}
	if c.Network.MaxStep < c.Network.TickRate {
		return fmt.Errorf("network.max_step %s is below tick_rate %s", c.Network.MaxStep, c.Network.TickRate)
	}
	if c.Network.CommandsPerSecond < 0 {
		return fmt.Errorf("network.commands_per_second must not be negative")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "lanewars",
		},
		Network: NetworkConfig{
			BindAddress:  "127.0.0.1:5555",
			TickRate:     time.Second / 60,
			MaxStep:      50 * time.Millisecond,
			OutQueueSize: 64,
			MaxFrameSize: 1 << 20,
		},
		Scripting: ScriptingConfig{
			Dir: "scripts",
		},
		HTTP: HTTPConfig{
			BindAddress:    "127.0.0.1:5556",
			WSPath:         "/ws",
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
