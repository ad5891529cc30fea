/*
Package config manages TOML config for the input method core.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/inkwell-ime/imecore/internal/utils"
)

// Config holds the entire config structure.
type Config struct {
	Script   ScriptConfig   `toml:"script"`
	Table    TableConfig    `toml:"table"`
	UserDict UserDictConfig `toml:"user_dict"`
	Server   ServerConfig   `toml:"server"`
}

// ScriptConfig controls the syllable-graph/pinyin-style translator.
type ScriptConfig struct {
	Delimiters       string  `toml:"delimiters"`
	StrictSpelling   bool    `toml:"strict_spelling"`
	EnableCompletion bool    `toml:"enable_completion"`
	EnableUserDict   bool    `toml:"enable_user_dict"`
	InitialQuality   float64 `toml:"initial_quality"`
	SpellingHints    int     `toml:"spelling_hints"`
}

// TableConfig controls the literal shape-code translator.
type TableConfig struct {
	EnableUserDict         bool    `toml:"enable_user_dict"`
	EnableCompletion       bool    `toml:"enable_completion"`
	EnableCharsetFilter    bool    `toml:"enable_charset_filter"`
	EnableSentence         bool    `toml:"enable_sentence"`
	SentenceOverCompletion bool    `toml:"sentence_over_completion"`
	EnableEncoder          bool    `toml:"enable_encoder"`
	EncodeCommitHistory    bool    `toml:"encode_commit_history"`
	MaxPhraseLength        int     `toml:"max_phrase_length"`
	Delimiters             string  `toml:"delimiters"`
	InitialQuality         float64 `toml:"initial_quality"`
}

// UserDictConfig controls commit-weight decay and disabled-pattern rules.
type UserDictConfig struct {
	HalfLife                  int      `toml:"half_life"`
	DisableUserDictForPatterns []string `toml:"disable_user_dict_for_patterns"`
}

// ServerConfig has IPC server related options.
type ServerConfig struct {
	MaxLimit     int  `toml:"max_limit"`
	EnableFilter bool `toml:"enable_filter"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/imecore
// 2. ~/Library/Application Support/imecore (macOS)
// 3. Current executable dir
// It returns an error when none of these can be determined; falling back to
// builtin defaults is left to LoadConfigWithPriority.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", "imecore")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "imecore")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: config.toml in GetConfigDir's directory
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	var config *Config
	var err error

	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err = LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err = InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Script: ScriptConfig{
			Delimiters:       "'",
			StrictSpelling:   false,
			EnableCompletion: true,
			EnableUserDict:   true,
			InitialQuality:   0,
			SpellingHints:    0,
		},
		Table: TableConfig{
			EnableUserDict:         true,
			EnableCompletion:       true,
			EnableCharsetFilter:    false,
			EnableSentence:         true,
			SentenceOverCompletion: false,
			EnableEncoder:          true,
			EncodeCommitHistory:    false,
			MaxPhraseLength:        8,
			Delimiters:             " ",
			InitialQuality:         0,
		},
		UserDict: UserDictConfig{
			HalfLife:                   100,
			DisableUserDictForPatterns: nil,
		},
		Server: ServerConfig{
			MaxLimit:     64,
			EnableFilter: true,
		},
	}
}

// InitConfig loads config from file or creates default if missing.
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse attempts to salvage whatever sections of a TOML file do parse.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "script"); ok {
		extractScriptConfig(section, &config.Script)
	}
	if section, ok := utils.ExtractSection(tempConfig, "table"); ok {
		extractTableConfig(section, &config.Table)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	return config, nil
}

func extractScriptConfig(data map[string]any, c *ScriptConfig) {
	if val, ok := data["delimiters"].(string); ok {
		c.Delimiters = val
	}
	if val, ok := utils.ExtractBool(data, "strict_spelling"); ok {
		c.StrictSpelling = val
	}
	if val, ok := utils.ExtractBool(data, "enable_completion"); ok {
		c.EnableCompletion = val
	}
	if val, ok := utils.ExtractBool(data, "enable_user_dict"); ok {
		c.EnableUserDict = val
	}
	if val, ok := utils.ExtractInt64(data, "spelling_hints"); ok {
		c.SpellingHints = val
	}
}

func extractTableConfig(data map[string]any, c *TableConfig) {
	if val, ok := utils.ExtractBool(data, "enable_user_dict"); ok {
		c.EnableUserDict = val
	}
	if val, ok := utils.ExtractBool(data, "enable_completion"); ok {
		c.EnableCompletion = val
	}
	if val, ok := utils.ExtractBool(data, "enable_charset_filter"); ok {
		c.EnableCharsetFilter = val
	}
	if val, ok := utils.ExtractBool(data, "enable_sentence"); ok {
		c.EnableSentence = val
	}
	if val, ok := utils.ExtractBool(data, "sentence_over_completion"); ok {
		c.SentenceOverCompletion = val
	}
	if val, ok := utils.ExtractBool(data, "enable_encoder"); ok {
		c.EnableEncoder = val
	}
	if val, ok := utils.ExtractBool(data, "encode_commit_history"); ok {
		c.EncodeCommitHistory = val
	}
	if val, ok := utils.ExtractInt64(data, "max_phrase_length"); ok {
		c.MaxPhraseLength = val
	}
	if val, ok := data["delimiters"].(string); ok {
		c.Delimiters = val
	}
}

func extractServerConfig(data map[string]any, c *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		c.MaxLimit = val
	}
	if val, ok := utils.ExtractBool(data, "enable_filter"); ok {
		c.EnableFilter = val
	}
}

// RebuildConfigFile force creates a new config.toml at the default path.
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(defaultPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return err
	}
	config := DefaultConfig()
	return utils.SaveTOMLFile(config, defaultPath)
}

// GetActiveConfigPath returns the absolute path of the loaded config file.
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file.
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
