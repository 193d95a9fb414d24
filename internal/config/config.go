package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	Postgres Postgres `yaml:"postgres"`
	Server   Server   `yaml:"server" env-required:"true"`
	Summary  Summary  `yaml:"summary"`
	Session  Session  `yaml:"session"`
}

type Postgres struct {
	Username        string        `env:"POSTGRES_USER" env-required:"true"`
	Password        string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Host            string        `yaml:"host" env:"POSTGRES_HOST" env-required:"true"`
	Port            string        `env:"POSTGRES_PORT" env-required:"true"`
	Database        string        `env:"POSTGRES_DB" env-required:"true"`
	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"50"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env-default:"1m"`
}

type Server struct {
	Host    string        `yaml:"host" env-default:"localhost"`
	Port    string        `yaml:"port" env-default:"8080"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
}

// Summary holds the visibility threshold for the national and CCG summaries.
// An organisation is listed only when its problem or review count for
// ThresholdInterval reaches ThresholdCount. A zero count disables it.
type Summary struct {
	ThresholdInterval string `yaml:"threshold_interval" env-default:"all_time"`
	ThresholdCount    int    `yaml:"threshold_count" env:"SUMMARY_THRESHOLD" env-default:"0"`
}

type Session struct {
	CookieName string        `yaml:"cookie_name" env-default:"sessionid"`
	MaxAge     time.Duration `yaml:"max_age" env-default:"12h"`
	Store      string        `yaml:"store" env-default:"postgres"`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		return nil, errors.New("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file does not exist: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}

	return cfg
}

// ConnString builds the postgres URL shared by the server, the CLI and the migrator.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		p.Username, p.Password, p.Host, p.Port, p.Database,
	)
}
