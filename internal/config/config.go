package config

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sponsornet/settlement-engine/internal/postgres"
	"github.com/sponsornet/settlement-engine/pkg/logger"
	"github.com/sponsornet/settlement-engine/pkg/logger/slogx"
)

var (
	configOnce sync.Once
	config     = &Config{
		Logger: logger.Config{
			Output: "TEXT",
		},
		HTTPServer: HTTPServer{
			Port: 8080,
		},
		Modules: Modules{
			Settlement: Settlement{
				Datastore:            "postgres",
				GasFeePerCall:        "0",
				CreationLogRetention: 100,
			},
		},
	}
)

type Config struct {
	Logger     logger.Config `mapstructure:"logger"`
	HTTPServer HTTPServer    `mapstructure:"http_server"`
	Modules    Modules       `mapstructure:"modules"`
}

type HTTPServer struct {
	Port int `mapstructure:"port"`
}

type Modules struct {
	Settlement Settlement `mapstructure:"settlement"`
}

type Settlement struct {
	// Datastore selects the settlement state backend: "postgres" or "memory".
	Datastore string          `mapstructure:"datastore"`
	Postgres  postgres.Config `mapstructure:"postgres"`
	// GasFeePerCall is the flat execution cost per call, in smallest units.
	GasFeePerCall string `mapstructure:"gas_fee_per_call"`
	// CreationLogRetention bounds each contract's creation log.
	CreationLogRetention int `mapstructure:"creation_log_retention"`
}

// Parse loads the configuration from the given config file, falling back to
// ./config.yaml, with environment variable overrides.
func Parse(configFile string) Config {
	ctx := logger.WithContext(context.Background(), slog.String("package", "config"))
	configOnce.Do(func() {
		if configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			viper.AddConfigPath("./")
			viper.SetConfigName("config")
		}

		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		if err := viper.ReadInConfig(); err != nil {
			var errNotfound viper.ConfigFileNotFoundError
			if errors.As(err, &errNotfound) {
				logger.WarnContext(ctx, "config file not found, use default value", slogx.Error(err))
			} else {
				logger.PanicContext(ctx, "invalid config file", slogx.Error(err))
			}
		}

		if err := viper.Unmarshal(&config); err != nil {
			logger.PanicContext(ctx, "failed to unmarshal config", slogx.Error(err))
		}
	})

	return *config
}

// Load returns the parsed configuration. Parse must have run first; Load with
// no prior Parse loads with defaults only.
func Load() Config {
	return Parse("")
}

// BindPFlag binds a command-line flag to a configuration key.
func BindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		logger.Panic("failed to bind flag to configuration", slogx.String("key", key), slogx.Error(err))
	}
}
