package config

import (
	"os"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			Addr: ":8000",
		},
		Client: ClientConfig{
			APIBaseURL: "http://localhost:8000",
		},
		Claude: ClaudeConfig{
			Model: "claude-3-haiku-20240307",
		},
	}
}

// WriteDefault writes a commented default configuration to a file
func WriteDefault(path string) error {
	content := `# smartnotes configuration
version: "1"

# Note service
server:
  addr: ":8000"
  # Empty db_path keeps notes in memory. Set a file path for sqlite.
  # db_path: ~/.smartnotes/notes.db

# Capture client
client:
  api_base_url: http://localhost:8000
  # data_dir: ~/.smartnotes
  use_ai: false

# AI categorization (api_key also read from ANTHROPIC_API_KEY)
claude:
  model: claude-3-haiku-20240307
  # api_key: sk-ant-...

# Notion sync (also read from NOTION_TOKEN / NOTION_DATABASE_ID)
# notion:
#   token: secret_...
#   database_id: 1234abcd...
`
	return os.WriteFile(path, []byte(content), 0644)
}
