package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	Bot     BotConfig     `json:"bot"`
	Storage StorageConfig `json:"storage"`
	Ops     OpsConfig     `json:"ops"`
}

type BotConfig struct {
	Token       string `json:"token"`
	DeveloperID string `json:"developer_id"`
}

type StorageConfig struct {
	DatabasePath string `json:"database_path"`
	LogPath      string `json:"log_path"`
}

type OpsConfig struct {
	Enabled    bool   `json:"enabled"`
	ListenAddr string `json:"listen_addr"`
}

// Load reads the JSON config file. The Discord token may also come from
// the DISCORD_TOKEN environment variable, which takes precedence when
// the file leaves it empty.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.Bot.Token == "" {
		cfg.Bot.Token = os.Getenv("DISCORD_TOKEN")
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Token: os.Getenv("DISCORD_TOKEN"),
		},
		Storage: StorageConfig{
			DatabasePath: "antinuke360.db",
			LogPath:      "antinuke360.log",
		},
		Ops: OpsConfig{
			Enabled:    true,
			ListenAddr: "127.0.0.1:9360",
		},
	}
}
