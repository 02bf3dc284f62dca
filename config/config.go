package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UI modes.
const (
	UIModeAuto     = "auto"
	UIModeTview    = "tview"
	UIModeHeadless = "headless"
)

// Source kinds.
const (
	SourceStatic = "static"
	SourceFile   = "file"
	SourceHTTP   = "http"
)

// Config represents the complete dashboard configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	UI         UIConfig         `yaml:"ui"`
	Logging    LoggingConfig    `yaml:"logging"`
	Simulation SimulationConfig `yaml:"simulation"`
	Source     SourceConfig     `yaml:"source"`
	Admin      AdminConfig      `yaml:"admin"`

	// LoadedFrom is the directory the configuration was read from.
	LoadedFrom string `yaml:"-"`
}

// ServerConfig contains general process settings
type ServerConfig struct {
	Name string `yaml:"name"`
	// StatsInterval paces the headless status line; 0 disables it.
	StatsInterval time.Duration `yaml:"stats_interval"`
}

// UIConfig selects and tunes the local presentation.
type UIConfig struct {
	Mode string `yaml:"mode"`
	// RefreshInterval is the minimum spacing between dashboard redraws.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Color           bool          `yaml:"color"`
	SystemLogLines  int           `yaml:"system_log_lines"`
}

// LoggingConfig controls the optional daily log file.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// SimulationConfig tunes the session engine.
type SimulationConfig struct {
	BannerDuration    time.Duration `yaml:"banner_duration"`
	NoticeDuration    time.Duration `yaml:"notice_duration"`
	ErrorLogInterval  time.Duration `yaml:"error_log_interval"`
	TopicInterval     time.Duration `yaml:"topic_interval"`
	ErrorLogRetention int           `yaml:"error_log_retention"`
	TopicRetention    int           `yaml:"topic_retention"`
	AlertRetention    int           `yaml:"alert_retention"`
	LeaderElection    bool          `yaml:"leader_election"`
	SeedErrorLogs     bool          `yaml:"seed_error_logs"`
	// Seed fixes the random source; 0 draws a fresh one per run.
	Seed uint64 `yaml:"seed"`
}

// SourceConfig selects where the initial registry comes from.
type SourceConfig struct {
	Kind string `yaml:"kind"`
	File string `yaml:"file"`
	// URL serves a document shaped like the admin /api/state response.
	URL     string        `yaml:"url"`
	Fail    bool          `yaml:"fail"`
	Timeout time.Duration `yaml:"timeout"`
}

// AdminConfig contains admin HTTP settings
type AdminConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Listen      string   `yaml:"listen"`
	CORSOrigins []string `yaml:"cors_origins"`
	MaxStreams  int      `yaml:"max_streams"`
}

// Defaults returns the configuration used for keys absent from every file.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Name:          "clusterwatch",
			StatsInterval: 30 * time.Second,
		},
		UI: UIConfig{
			Mode:            UIModeAuto,
			RefreshInterval: 100 * time.Millisecond,
			Color:           true,
			SystemLogLines:  200,
		},
		Logging: LoggingConfig{
			Dir:           "data/logs",
			RetentionDays: 7,
		},
		Simulation: SimulationConfig{
			BannerDuration:    4 * time.Second,
			NoticeDuration:    6 * time.Second,
			ErrorLogInterval:  4 * time.Second,
			TopicInterval:     time.Second,
			ErrorLogRetention: 51,
			TopicRetention:    50,
			AlertRetention:    50,
			LeaderElection:    true,
			SeedErrorLogs:     true,
		},
		Source: SourceConfig{
			Kind:    SourceStatic,
			Timeout: 5 * time.Second,
		},
		Admin: AdminConfig{
			Listen:     "127.0.0.1:8088",
			MaxStreams: 32,
		},
	}
}

// Load reads every *.yaml / *.yml file in dir in lexical order and merges
// them over Defaults. Later files override earlier ones key by key.
func Load(dir string) (*Config, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("config path %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config path %s is not a directory", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list config dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	cfg := Defaults()
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", filepath.Base(path), err)
		}
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.LoadedFrom = dir
	return &cfg, nil
}

func (c *Config) normalize() {
	c.UI.Mode = strings.ToLower(strings.TrimSpace(c.UI.Mode))
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	c.Source.File = strings.TrimSpace(c.Source.File)
	c.Source.URL = strings.TrimSpace(c.Source.URL)
	c.Admin.Listen = strings.TrimSpace(c.Admin.Listen)
}

// Validate rejects unknown enumerations and out-of-range values.
func (c *Config) Validate() error {
	switch c.UI.Mode {
	case UIModeAuto, UIModeTview, UIModeHeadless:
	default:
		return fmt.Errorf("invalid ui.mode %q (want auto, tview or headless)", c.UI.Mode)
	}
	if c.UI.RefreshInterval < 0 {
		return fmt.Errorf("invalid ui.refresh_interval %s", c.UI.RefreshInterval)
	}
	if c.UI.SystemLogLines <= 0 {
		return fmt.Errorf("invalid ui.system_log_lines %d", c.UI.SystemLogLines)
	}
	if c.Server.StatsInterval < 0 {
		return fmt.Errorf("invalid server.stats_interval %s", c.Server.StatsInterval)
	}
	if c.Logging.RetentionDays < 0 {
		return fmt.Errorf("invalid logging.retention_days %d", c.Logging.RetentionDays)
	}
	if c.Logging.Enabled && strings.TrimSpace(c.Logging.Dir) == "" {
		return fmt.Errorf("logging.dir is required when logging is enabled")
	}
	sim := c.Simulation
	for name, d := range map[string]time.Duration{
		"banner_duration":    sim.BannerDuration,
		"notice_duration":    sim.NoticeDuration,
		"error_log_interval": sim.ErrorLogInterval,
		"topic_interval":     sim.TopicInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid simulation.%s %s (must be positive)", name, d)
		}
	}
	for name, n := range map[string]int{
		"error_log_retention": sim.ErrorLogRetention,
		"topic_retention":     sim.TopicRetention,
		"alert_retention":     sim.AlertRetention,
	} {
		if n <= 0 {
			return fmt.Errorf("invalid simulation.%s %d (must be positive)", name, n)
		}
	}
	switch c.Source.Kind {
	case SourceStatic:
	case SourceFile:
		if c.Source.File == "" {
			return fmt.Errorf("source.file is required when source.kind is file")
		}
	case SourceHTTP:
		if c.Source.URL == "" {
			return fmt.Errorf("source.url is required when source.kind is http")
		}
	default:
		return fmt.Errorf("invalid source.kind %q (want static, file or http)", c.Source.Kind)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("invalid source.timeout %s", c.Source.Timeout)
	}
	if c.Admin.Enabled && c.Admin.Listen == "" {
		return fmt.Errorf("admin.listen is required when admin is enabled")
	}
	if c.Admin.MaxStreams < 0 {
		return fmt.Errorf("invalid admin.max_streams %d", c.Admin.MaxStreams)
	}
	return nil
}

// Print displays the configuration
func (c *Config) Print() {
	fmt.Printf("Server: %s (config %s)\n", c.Server.Name, c.LoadedFrom)
	fmt.Printf("UI: mode=%s refresh=%s\n", c.UI.Mode, c.UI.RefreshInterval)
	sim := c.Simulation
	fmt.Printf("Simulation: banner=%s notice=%s error_log=%s topics=%s retention(errors=%d topics=%d alerts=%d) leader_election=%t\n",
		sim.BannerDuration, sim.NoticeDuration, sim.ErrorLogInterval, sim.TopicInterval,
		sim.ErrorLogRetention, sim.TopicRetention, sim.AlertRetention, sim.LeaderElection)
	switch c.Source.Kind {
	case SourceFile:
		fmt.Printf("Source: file %s\n", c.Source.File)
	case SourceHTTP:
		fmt.Printf("Source: %s\n", c.Source.URL)
	default:
		fmt.Printf("Source: static (fail=%t)\n", c.Source.Fail)
	}
	if c.Logging.Enabled {
		fmt.Printf("Logging: %s (retain %d days)\n", c.Logging.Dir, c.Logging.RetentionDays)
	}
	if c.Admin.Enabled {
		fmt.Printf("Admin: http://%s\n", c.Admin.Listen)
	}
}
