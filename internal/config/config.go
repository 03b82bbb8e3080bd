// Package config loads the library configuration from an optional .env file,
// the environment and command-line flags using Viper.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Keys understood in the environment and .env file.
const (
	KeyDBPath     = "LIBRARY_DB_PATH"
	KeyLogLevel   = "LIBRARY_LOG_LEVEL"
	KeyLogFormat  = "LIBRARY_LOG_FORMAT"
	KeyBcryptCost = "LIBRARY_BCRYPT_COST"
)

// Config holds application configuration.
type Config struct {
	// DBPath is the SQLite file; ":memory:" keeps the ledger for the life of the process.
	DBPath string `mapstructure:"LIBRARY_DB_PATH" validate:"required"`
	// LogLevel is one of debug, info, warn, warning or error.
	LogLevel string `mapstructure:"LIBRARY_LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	// LogFormat is text or json.
	LogFormat string `mapstructure:"LIBRARY_LOG_FORMAT" validate:"oneof=text json"`
	// BcryptCost is the cost factor for member passwords.
	BcryptCost int `mapstructure:"LIBRARY_BCRYPT_COST" validate:"min=4,max=31"`
}

// FlagKeys maps command-line flag names to config keys. Flags that are set
// override the environment and the .env file.
var FlagKeys = map[string]string{
	"db":          KeyDBPath,
	"log-level":   KeyLogLevel,
	"log-format":  KeyLogFormat,
	"bcrypt-cost": KeyBcryptCost,
}

var validate = validator.New()

// Load reads envFile (if present), then the environment, then any flags in
// flags named in FlagKeys. A missing .env file is ignored. flags may be nil.
func Load(envFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		_ = v.ReadInConfig() // ignore a missing file
	}

	v.AutomaticEnv()

	v.SetDefault(KeyDBPath, ":memory:")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyBcryptCost, bcrypt.DefaultCost)

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
