package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env    string       `yaml:"env" env:"ODSE_ENV" env-default:"prod"`
	Fleet  FleetRef     `yaml:"fleet"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Sinks  SinksConfig  `yaml:"sinks"`
	Log    LogConfig    `yaml:"log"`
}

type FleetRef struct {
	ConfigPath string `yaml:"config_path"`
}

type ServerConfig struct {
	Address      string        `yaml:"address" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
}

type StoreConfig struct {
	Enabled bool          `yaml:"enabled" env-default:"false"`
	Path    string        `yaml:"path" env-default:"/var/lib/odse/records.db"`
	MaxAge  time.Duration `yaml:"max_age" env-default:"720h"`
}

type SinksConfig struct {
	Stdout StdoutSinkConfig `yaml:"stdout"`
	Influx InfluxSinkConfig `yaml:"influx"`
	MQTT   MQTTSinkConfig   `yaml:"mqtt"`
}

type StdoutSinkConfig struct {
	Enabled bool `yaml:"enabled" env-default:"false"`
}

type InfluxSinkConfig struct {
	Enabled bool   `yaml:"enabled" env-default:"false"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token" env:"INFLUX_TOKEN"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`
}

type MQTTSinkConfig struct {
	Enabled     bool   `yaml:"enabled" env-default:"false"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id" env-default:"odse"`
	Username    string `yaml:"username" env:"MQTT_USERNAME"`
	Password    string `yaml:"password" env:"MQTT_PASSWORD"`
	TopicPrefix string `yaml:"topic_prefix" env-default:"odse/records"`
	QoS         int    `yaml:"qos" env-default:"0"`
	Retain      bool   `yaml:"retain" env-default:"false"`
}

type LogConfig struct {
	Level  string `yaml:"level" env-default:"info"`
	Format string `yaml:"format" env-default:"json"`
}

func MustLoad(configPath string) *Config {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("failed to read config: " + err.Error())
	}

	return &cfg
}
