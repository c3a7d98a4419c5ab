package config

// Config is the full smartnotes configuration, shared by the service and
// the capture client.
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Server configures the note service.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Client configures the capture client.
	Client ClientConfig `yaml:"client" mapstructure:"client"`

	// Claude configures AI categorization.
	Claude ClaudeConfig `yaml:"claude" mapstructure:"claude"`

	// Notion configures sync to a Notion database.
	Notion NotionConfig `yaml:"notion" mapstructure:"notion"`
}

// ServerConfig holds the service listen address and storage backend.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	// DBPath is a sqlite file path. Empty selects the in-memory store.
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// ClientConfig holds the capture client settings.
type ClientConfig struct {
	APIBaseURL string `yaml:"api_base_url" mapstructure:"api_base_url"`
	DataDir    string `yaml:"data_dir" mapstructure:"data_dir"`
	UseAI      bool   `yaml:"use_ai" mapstructure:"use_ai"`
}

// ClaudeConfig holds the Anthropic API settings.
type ClaudeConfig struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	Model  string `yaml:"model" mapstructure:"model"`
}

// NotionConfig holds the Notion integration settings.
type NotionConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	DatabaseID string `yaml:"database_id" mapstructure:"database_id"`
}
