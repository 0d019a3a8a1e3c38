// Package config persists user settings as JSON under the OS config
// directory. A missing file is replaced with defaults on first read.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	// Receiver is the preferred receiver name, matched during discovery
	// when no explicit target is given.
	Receiver string `json:"receiver"`

	// Font is the caption font pushed to the receiver.
	Font string `json:"font"`

	// Autoplay starts playback right after a successful load.
	Autoplay bool `json:"autoplay"`

	// SliderHeight calibrates the volume drag easing.
	SliderHeight float64 `json:"slider_height"`

	// BarWidth is the progress bar width in cells.
	BarWidth int `json:"bar_width"`
}

func defaultConfig() *Config {
	return &Config{
		Font:         "sans-serif",
		Autoplay:     true,
		SliderHeight: 100,
		BarWidth:     40,
	}
}

func GetAppConfig() (*Config, error) {
	path, err := appPath()
	if err != nil {
		return nil, fmt.Errorf("GetAppConfig: failed to access config path due to error %w", err)
	}

	cfgfile, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return nil, fmt.Errorf("GetAppConfig: failed to create default path due to error %w", err)
			}

			conf := defaultConfig()

			b, err := json.Marshal(conf)
			if err != nil {
				return nil, fmt.Errorf("GetAppConfig: failed to convert and store default config %w", err)
			}

			if err := os.WriteFile(path, b, 0644); err != nil {
				return nil, fmt.Errorf("GetAppConfig: failed to create default config due to error %w", err)
			}

			return conf, nil
		}

		return nil, fmt.Errorf("GetAppConfig: failed to open config due to error %w", err)
	}
	defer cfgfile.Close()

	conf := &Config{}
	if err := json.NewDecoder(cfgfile).Decode(conf); err != nil {
		return nil, fmt.Errorf("GetAppConfig: failed to decode config due to error %w", err)
	}

	return conf, nil
}

func appPath() (string, error) {
	oscfg, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("appPath: failed to get config file due to error %w", err)
	}

	return filepath.Join(oscfg, "popcorncast", "settings.json"), nil
}

func (s *Config) SaveAppConfig() error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("SaveAppConfig: failed to marshal json due to error %w", err)
	}

	path, err := appPath()
	if err != nil {
		return fmt.Errorf("SaveAppConfig: failed to access config path due to error %w", err)
	}

	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("SaveAppConfig: failed save config due to error %w", err)
	}

	return nil
}
