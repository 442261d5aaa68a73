/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the application configuration from a YAML file with
// environment variable overrides. The file path comes from CONFIG_PATH or the
// --config flag; without either, configuration is read from the environment
// alone.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tomoncle/studentstore/database"
	"github.com/tomoncle/studentstore/utils"
)

// Config is the root configuration structure.
type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"dev" validate:"required"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Migrate  MigrateConfig  `yaml:"migrate"`
	Seed     SeedConfig     `yaml:"seed"`
}

type LogConfig struct {
	Level  string        `yaml:"level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string        `yaml:"format" env:"CONSOLE_LOG_FORMAT" env-default:"text" validate:"oneof=text json"`
	File   FileLogConfig `yaml:"file"`
}

// FileLogConfig controls the daily rolling log files. A negative
// MaxAgeDays keeps every day.
type FileLogConfig struct {
	Enabled    bool   `yaml:"enabled" env:"FILE_LOG_ENABLED"`
	Dir        string `yaml:"dir" env:"FILE_LOG_DIR" env-default:"logs"`
	MaxAgeDays int    `yaml:"max_age_days" env:"FILE_LOG_MAX_AGE_DAYS" env-default:"7"`
	Format     string `yaml:"format" env:"FILE_LOG_FORMAT" env-default:"text" validate:"oneof=text json"`
}

// DatabaseConfig mirrors database.ConnectionConfig.
type DatabaseConfig struct {
	Type                string        `yaml:"type" env:"DB_TYPE" env-default:"sqlite" validate:"required,oneof=sqlite sqlite3 postgres postgresql mysql"`
	Driver              string        `yaml:"driver" env:"DB_DRIVER" validate:"omitempty,oneof=pq pgx"`
	Host                string        `yaml:"host" env:"DB_HOST"`
	Port                int           `yaml:"port" env:"DB_PORT" validate:"gte=0,lte=65535"`
	Username            string        `yaml:"username" env:"DB_USERNAME"`
	Password            string        `yaml:"password" env:"DB_PASSWORD"`
	DBName              string        `yaml:"dbname" env:"DB_NAME" env-default:"students" validate:"required"`
	SSLMode             string        `yaml:"sslmode" env:"DB_SSLMODE"`
	MaxIdleConns        int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10" validate:"gte=0"`
	MaxOpenConns        int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"100" validate:"gte=0"`
	ConnMaxLifetime     time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	ConnMaxIdleTime     time.Duration `yaml:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" env-default:"30m"`
	ConnectTimeout      time.Duration `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT" env-default:"10s" validate:"gt=0"`
	ReadTimeout         time.Duration `yaml:"read_timeout" env:"DB_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout        time.Duration `yaml:"write_timeout" env:"DB_WRITE_TIMEOUT" env-default:"30s"`
	EnableReconnect     bool          `yaml:"enable_reconnect" env:"DB_ENABLE_RECONNECT"`
	ReconnectInterval   time.Duration `yaml:"reconnect_interval" env:"DB_RECONNECT_INTERVAL" env-default:"5s"`
	MaxReconnectTries   int           `yaml:"max_reconnect_tries" env:"DB_MAX_RECONNECT_TRIES" env-default:"3" validate:"gte=0"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval" env:"DB_HEALTH_CHECK_INTERVAL" env-default:"5m"`
	EnableQueryLog      bool          `yaml:"enable_query_log" env:"DB_ENABLE_QUERY_LOG"`
	SlowQueryTime       time.Duration `yaml:"slow_query_time" env:"DB_SLOW_QUERY_TIME" env-default:"2s"`
}

type MigrateConfig struct {
	EnableOnStartup bool `yaml:"enable_on_startup" env:"MIGRATE_ON_STARTUP"`
}

type SeedConfig struct {
	OnMigration bool   `yaml:"on_migration" env:"SEED_ON_MIGRATION"`
	Filepath    string `yaml:"filepath" env:"SEED_FILEPATH" env-default:"configs/sql"`
	Environment string `yaml:"environment" env:"SEED_ENVIRONMENT"`
}

var validate = validator.New()

// Load reads the YAML file at path, applies environment overrides and
// validates the result. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from environment: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and that network databases name a host.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Database.Type {
	case database.TypeSQLite, "sqlite3":
	default:
		if c.Database.Host == "" {
			return fmt.Errorf("invalid config: database.host is required for %s", c.Database.Type)
		}
	}
	return nil
}

// ResolvePath returns CONFIG_PATH, or else the value of the --config flag in
// args. It returns "" when neither is set.
func ResolvePath(args []string) (string, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path, nil
	}
	fs := flag.NewFlagSet("studentstore", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("config", "", "Path to the configuration YAML file")
	if err := fs.Parse(args); err != nil && !errors.Is(err, flag.ErrHelp) {
		return "", fmt.Errorf("parse flags: %w", err)
	}
	return *path, nil
}

// MustLoad resolves the config path from the process arguments, loads the
// configuration and exits the process on failure.
func MustLoad() *Config {
	log := utils.NewLogger("CONFIG")
	path, err := ResolvePath(os.Args[1:])
	if err != nil {
		log.Fatalf("cannot resolve config path: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	return cfg
}

// ApplyLogging configures the level and console format of the named loggers
// and turns file logging on or off.
func (c *Config) ApplyLogging() error {
	utils.ConfigureConsoleLogFormat(c.Log.Format)
	utils.ConfigureLogLevel(c.Log.Level)
	if !c.Log.File.Enabled {
		utils.DisableFileLog()
		return nil
	}
	return utils.ConfigureFileLog(c.Log.File.Dir, c.Log.File.MaxAgeDays, c.Log.File.Format)
}

// ConfigLoader converts the configuration into database settings.
func (c *Config) ConfigLoader() *database.Config {
	d := c.Database
	env := c.Seed.Environment
	if env == "" {
		env = c.Env
	}
	return &database.Config{
		ConnectionConfig: database.ConnectionConfig{
			Type:                d.Type,
			Driver:              d.Driver,
			Host:                d.Host,
			Port:                d.Port,
			Username:            d.Username,
			Password:            d.Password,
			DBName:              d.DBName,
			SSLMode:             d.SSLMode,
			MaxIdleConns:        d.MaxIdleConns,
			MaxOpenConns:        d.MaxOpenConns,
			ConnMaxLifetime:     d.ConnMaxLifetime,
			ConnMaxIdleTime:     d.ConnMaxIdleTime,
			ConnectTimeout:      d.ConnectTimeout,
			ReadTimeout:         d.ReadTimeout,
			WriteTimeout:        d.WriteTimeout,
			EnableReconnect:     d.EnableReconnect,
			ReconnectInterval:   d.ReconnectInterval,
			MaxReconnectTries:   d.MaxReconnectTries,
			HealthCheckInterval: d.HealthCheckInterval,
			EnableQueryLog:      d.EnableQueryLog,
			SlowQueryTime:       d.SlowQueryTime,
		},
		DataMigrateConfig: database.DataMigrateConfig{
			EnableMigrateOnStartup: c.Migrate.EnableOnStartup,
		},
		DataInitConfig: database.DataInitConfig{
			AutoInitOnMigration: c.Seed.OnMigration,
			Filepath:            c.Seed.Filepath,
			Environment:         env,
		},
	}
}

var _ database.AbstractDatabaseConfigProvider = (*Config)(nil)
