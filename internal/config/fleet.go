package config

import (
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// FleetConfig describes the monitored assets: which vendor feed each one
// uses and the per-asset transform defaults.
type FleetConfig struct {
	FleetID   string        `yaml:"fleet_id"`
	FleetName string        `yaml:"fleet_name"`
	Assets    []AssetConfig `yaml:"assets"`
}

type AssetConfig struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Source string `yaml:"source"`

	// Timezone is a ±HH:MM offset applied to timestamps the vendor exports
	// without one.
	Timezone        string  `yaml:"timezone,omitempty"`
	IntervalMinutes int     `yaml:"interval_minutes,omitempty"`
	ExpectedDevices int     `yaml:"expected_devices,omitempty"`
	CapacityKW      float64 `yaml:"capacity_kw,omitempty"`
}

func MustLoadFleet(configPath string) *FleetConfig {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("fleet config file not found: " + configPath)
	}

	var cfg FleetConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("failed to read fleet config: " + err.Error())
	}

	return &cfg
}

// Asset finds an asset by id, case-insensitively.
func (c *FleetConfig) Asset(id string) (AssetConfig, bool) {
	for _, asset := range c.Assets {
		if strings.EqualFold(asset.ID, id) {
			return asset, true
		}
	}
	return AssetConfig{}, false
}
