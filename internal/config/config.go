// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Plex        PlexConfig        `toml:"plex"`
	Radarr      RadarrConfig      `toml:"radarr"`
	QBittorrent QBittorrentConfig `toml:"qbittorrent"`
	Telegram    TelegramConfig    `toml:"telegram"`
	Tracker     TrackerConfig     `toml:"tracker"`
	Collections CollectionsConfig `toml:"collections"`
	Policy      UpgradePolicy     `toml:"policy"`
	Scheduler   SchedulerConfig   `toml:"scheduler"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// PlexConfig describes the single Plex server this instance scans.
type PlexConfig struct {
	URL     string `toml:"url"`
	Token   string `toml:"token"`
	Section string `toml:"section"` // movie library section name
}

type RadarrConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

type QBittorrentConfig struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
	ChatID   int64  `toml:"chat_id"`
}

// TrackerConfig configures the in-process tracker polling client. The
// tracker itself is an external collaborator; this only carries the
// knobs the core needs to poll it.
type TrackerConfig struct {
	URL          string        `toml:"url"`
	PollInterval time.Duration `toml:"poll_interval"`
}

// CollectionsConfig independently enables each of the three curated
// collections.
type CollectionsConfig struct {
	AllDV       bool `toml:"all_dv"`
	Profile7FEL bool `toml:"profile7_fel"`
	TrueHDAtmos bool `toml:"truehd_atmos"`
}

// UpgradePolicy carries the Upgrade Policy options. applyDefaults
// fills in only NotifyExpireHours (24); a boolean left out of the
// config file stays false.
type UpgradePolicy struct {
	NotifyFEL                bool `toml:"notify_fel" json:"notify_fel"`
	NotifyFELFromP5          bool `toml:"notify_fel_from_p5" json:"notify_fel_from_p5"`
	NotifyFELFromHDR         bool `toml:"notify_fel_from_hdr" json:"notify_fel_from_hdr"`
	NotifyFELDuplicates      bool `toml:"notify_fel_duplicates" json:"notify_fel_duplicates"`
	NotifyDV                 bool `toml:"notify_dv" json:"notify_dv"`
	NotifyDVFromHDR          bool `toml:"notify_dv_from_hdr" json:"notify_dv_from_hdr"`
	NotifyDVProfileUpgrades  bool `toml:"notify_dv_profile_upgrades" json:"notify_dv_profile_upgrades"`
	NotifyAtmos              bool `toml:"notify_atmos" json:"notify_atmos"`
	NotifyAtmosWithDVUpgrade bool `toml:"notify_atmos_with_dv_upgrade" json:"notify_atmos_with_dv_upgrade"`
	NotifyAtmosOnlyIfNoAtmos bool `toml:"notify_atmos_only_if_no_atmos" json:"notify_atmos_only_if_no_atmos"`
	NotifyResolution         bool `toml:"notify_resolution" json:"notify_resolution"`
	NotifyResolutionOnlyUp   bool `toml:"notify_resolution_only_upgrades" json:"notify_resolution_only_upgrades"`
	NotifyOnlyLibraryMovies  bool `toml:"notify_only_library_movies" json:"notify_only_library_movies"`
	NotifyExpireHours        int  `toml:"notify_expire_hours" json:"notify_expire_hours"`
}

type SchedulerConfig struct {
	ScanFrequencyHours int `toml:"scan_frequency_hours"`
}

// Load reads, parses, and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	configErr := &ConfigError{Path: path, Missing: missing}
	configErr.Errors = cfg.Validate()

	if configErr.HasErrors() {
		return nil, configErr
	}

	return cfg, nil
}

// LoadWithoutValidation reads and parses the config without validation.
// Useful for init commands or debugging.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

// load is the internal loader that returns config, missing vars, and parse error.
func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, missing, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8484
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/felscan.db"
	}
	if cfg.Plex.Section == "" {
		cfg.Plex.Section = "Movies"
	}
	if cfg.Tracker.PollInterval == 0 {
		cfg.Tracker.PollInterval = 5 * time.Minute
	}
	if cfg.Scheduler.ScanFrequencyHours == 0 {
		cfg.Scheduler.ScanFrequencyHours = 24
	}
	if cfg.Policy.NotifyExpireHours == 0 {
		cfg.Policy.NotifyExpireHours = 24
	}
}

// substituteEnvVars replaces ${VAR}, ${VAR:-default}, ${VAR:?error} patterns.
// Returns the substituted content and a list of missing/error variables.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?:(:[-?])([^}]*))?\}`)

func substituteEnvVars(content string) (string, []string) {
	var missing []string

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		varName := parts[1]
		modifier := parts[2]
		modValue := parts[3]

		value, exists := os.LookupEnv(varName)

		switch modifier {
		case ":-":
			if !exists || value == "" {
				return modValue
			}
			return value
		case ":?":
			if !exists || value == "" {
				missing = append(missing, varName+": "+modValue)
				return match
			}
			return value
		default:
			if exists {
				return value
			}
			missing = append(missing, varName)
			return match
		}
	})

	return result, missing
}
