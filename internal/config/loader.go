package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Load loads configuration from the global config file, with credentials
// taken from the environment when the file does not set them.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := ConfigPath(); path != "" {
		if err := loadFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnv(cfg)

	if cfg.Client.DataDir == "" {
		cfg.Client.DataDir = DataDir()
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

// applyEnv fills credentials that the config file left empty. Environment
// values never override an explicit file setting.
func applyEnv(cfg *Config) {
	if cfg.Claude.APIKey == "" {
		cfg.Claude.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Notion.Token == "" {
		cfg.Notion.Token = os.Getenv("NOTION_TOKEN")
	}
	if cfg.Notion.DatabaseID == "" {
		cfg.Notion.DatabaseID = os.Getenv("NOTION_DATABASE_ID")
	}
	if addr := os.Getenv("SMARTNOTES_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if url := os.Getenv("SMARTNOTES_API_URL"); url != "" {
		cfg.Client.APIBaseURL = url
	}
}

// ConfigPath returns the path to the global config file
func ConfigPath() string {
	dir := DataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DataDir returns the smartnotes home directory
func DataDir() string {
	if dir := os.Getenv("SMARTNOTES_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".smartnotes")
}
