// config.go: configuration for the soundwatch application. Defines the
// settings struct and functions to load and save the settings.
package conf

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled    bool   // true to enable this log
	Path       string // path to log file
	MaxSize    int    // maximum log file size in MB before rotation
	MaxBackups int    // number of rotated log files to keep
	MaxAge     int    // days to retain rotated log files
}

// AudioSettings contains settings for audio capture.
type AudioSettings struct {
	Source string // audio capture source, device name or ID substring
}

// DetectionSettings controls which acoustic signatures are evaluated.
// Toggling these while a listening session runs takes effect on the
// next analysis cycle, no restart required.
type DetectionSettings struct {
	FireAlarm bool // detect fire alarm beep pattern
	Doorbell  bool // detect doorbell chime
	BabyCry   bool // detect baby crying
}

// TelemetrySettings contains settings for the Prometheus metrics endpoint.
type TelemetrySettings struct {
	Enabled bool   // true to expose metrics over HTTP
	Listen  string // listen address and port, e.g. "0.0.0.0:8090"
}

// MQTTSettings contains settings for publishing detections to an MQTT broker.
type MQTTSettings struct {
	Enabled  bool   // true to enable MQTT publishing
	Broker   string // broker URL, e.g. tcp://localhost:1883
	Topic    string // topic to publish detection events to
	Username string // broker username
	Password string // broker password
	Retain   bool   // true to publish with the retain flag
}

// RealtimeSettings contains all settings for realtime listening sessions.
type RealtimeSettings struct {
	Audio     AudioSettings     // audio capture settings
	Detection DetectionSettings // enabled signature kinds
	Telemetry TelemetrySettings // metrics endpoint settings
	MQTT      MQTTSettings      // MQTT publishing settings
}

// InputConfig holds runtime values for file analysis, not stored in the
// config file.
type InputConfig struct {
	Path string `yaml:"-"` // path to input audio file
}

// Settings is the root configuration struct.
type Settings struct {
	Debug bool // true to enable debug mode

	Main struct {
		Name string    // name of this soundwatch node, used as event source identifier
		Log  LogConfig // logging configuration
	}

	Realtime RealtimeSettings // realtime processing settings

	Input InputConfig `yaml:"-"`
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into the global settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

func initViper() error {
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}
	viper.SetConfigName("config")

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !asConfigFileNotFound(err, &configFileNotFound) {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
		// No config file found, create one with the defaults.
		configPath := filepath.Join(configPaths[0], "config.yaml")
		if createErr := createDefaultConfig(configPath); createErr != nil {
			// A missing config file is not fatal, defaults still apply.
			log.Printf("warning: unable to create default config file: %v", createErr)
		}
	}

	return nil
}

func asConfigFileNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	if cf, ok := err.(viper.ConfigFileNotFoundError); ok {
		*target = cf
		return true
	}
	return false
}

// createDefaultConfig writes the current (default) settings as a YAML config
// file so users have a file to edit.
func createDefaultConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return fmt.Errorf("error unmarshaling defaults: %w", err)
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling default settings: %w", err)
	}

	if err := os.WriteFile(configPath, out, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	log.Printf("created default config file at %s", configPath)
	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order: user config dir first, then the working directory.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user config directory: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	return []string{
		filepath.Join(configDir, "soundwatch"),
		filepath.Join(homeDir, ".config", "soundwatch"),
		".",
	}, nil
}

// Setting returns the global settings instance, loading it on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("error loading settings: %v", err)
			}
		}
	})

	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
