package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all client configuration
type Config struct {
	Server     string   `yaml:"server"`
	Port       int      `yaml:"port"`
	ServerPass string   `yaml:"server_pass"`
	Nick       string   `yaml:"nick"`
	Username   string   `yaml:"username"`
	IRCName    string   `yaml:"irc_name"`
	Channels   []string `yaml:"channels"`
	DataDir    string   `yaml:"data_dir"`

	QuitMessage string `yaml:"quit_message"`

	// Encoding names the legacy charset used for lines that are not valid
	// UTF-8. Empty or "utf-8" disables conversion
	Encoding string `yaml:"encoding"`

	Debug         bool          `yaml:"debug"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	ReadBuffer    int           `yaml:"read_buffer"`
	MaxLineLength int           `yaml:"max_line_length"`

	// CTCP auto-replies. A nil CTCPReplies means enabled
	CTCPReplies  *bool  `yaml:"ctcp_replies"`
	VersionReply string `yaml:"version_reply"`
	UserInfo     string `yaml:"userinfo"`
	Finger       string `yaml:"finger"`
	Source       string `yaml:"source"`

	DCC DCCConfig `yaml:"dcc"`
}

// DCCConfig holds settings for direct client connections
type DCCConfig struct {
	// Address is advertised in offers and used to listen on
	Address     string `yaml:"address"`
	DownloadDir string `yaml:"download_dir"`
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.SetDefaults()

	return &cfg, nil
}

// SetDefaults fills in every unset field
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = 6667
	}
	if c.Nick == "" {
		c.Nick = "nobody"
	}
	if c.Username == "" {
		c.Username = c.Nick
	}
	if c.IRCName == "" {
		c.IRCName = "noname"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.ReadBuffer <= 0 {
		c.ReadBuffer = 512
	}
	if c.MaxLineLength <= 0 {
		c.MaxLineLength = 8192
	}
	if c.CTCPReplies == nil {
		enabled := true
		c.CTCPReplies = &enabled
	}
	if c.DCC.DownloadDir == "" {
		c.DCC.DownloadDir = c.DataDir
	}
}

// Validate reports the first missing required setting
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server is required")
	}
	if c.Nick == "" {
		return fmt.Errorf("nick is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// RepliesToCTCP reports whether CTCP auto-replies are enabled
func (c *Config) RepliesToCTCP() bool {
	return c.CTCPReplies == nil || *c.CTCPReplies
}
