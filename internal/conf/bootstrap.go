// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment variables.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

const (
	defaultSuperCarURL   = "https://run.mocky.io/v3/9245229e-5c57-44e1-964b-36c7fb29168b"
	defaultPremiumCarURL = "https://run.mocky.io/v3/0dfda26a-3a5a-43e5-b68c-51f148eda473"
)

// NewBootstrap loads configuration from the given file, applies defaults and
// allows overrides from environment variables prefixed with CARVALUATOR_.
//
// Configuration priority: Environment variables > Config file > Defaults
//
// Required environment variables:
//   - MYSQL_DSN or CARVALUATOR_DATA_DATABASE_SOURCE: MySQL connection string
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CARVALUATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("data.database.source", "MYSQL_DSN", "CARVALUATOR_DATA_DATABASE_SOURCE")
	_ = v.BindEnv("data.redis.addr", "REDIS_ADDR", "CARVALUATOR_DATA_REDIS_ADDR")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	bc := &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
			},
		},
		Data: &Data{
			Database: &Data_Database{
				Driver: v.GetString("data.database.driver"),
				Source: v.GetString("data.database.source"),
			},
			Redis: &Data_Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  durationpb.New(v.GetDuration("data.redis.read_timeout")),
				WriteTimeout: durationpb.New(v.GetDuration("data.redis.write_timeout")),
			},
			Cache: &Data_Cache{
				LocalSize: v.GetInt32("data.cache.local_size"),
				Ttl:       durationpb.New(v.GetDuration("data.cache.ttl")),
			},
		},
		Providers: &Providers{
			SuperCar:   loadProvider(v, "providers.super_car"),
			PremiumCar: loadProvider(v, "providers.premium_car"),
		},
		Failover: &Failover{
			WindowSize:       v.GetInt32("failover.window_size"),
			FailureThreshold: v.GetFloat64("failover.failure_threshold"),
			Cooldown:         durationpb.New(v.GetDuration("failover.cooldown")),
		},
		Audit: &Audit{
			BufferSize:    v.GetInt32("audit.buffer_size"),
			Retention:     durationpb.New(v.GetDuration("audit.retention")),
			PurgeSchedule: v.GetString("audit.purge_schedule"),
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

func loadProvider(v *viper.Viper, prefix string) *Provider {
	return &Provider{
		BaseUrl:   v.GetString(prefix + ".base_url"),
		Timeout:   durationpb.New(v.GetDuration(prefix + ".timeout")),
		ProxyUrl:  v.GetString(prefix + ".proxy_url"),
		RateLimit: v.GetFloat64(prefix + ".rate_limit"),
		Burst:     v.GetInt32(prefix + ".burst"),
	}
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", 30*time.Second)

	v.SetDefault("data.database.driver", "mysql")
	// Note: data.database.source (MYSQL_DSN) is required from environment

	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.addr", "127.0.0.1:6379")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)

	v.SetDefault("data.cache.local_size", 10000)
	v.SetDefault("data.cache.ttl", 24*time.Hour)

	v.SetDefault("providers.super_car.base_url", defaultSuperCarURL)
	v.SetDefault("providers.super_car.timeout", 5*time.Second)
	v.SetDefault("providers.super_car.rate_limit", 0)
	v.SetDefault("providers.super_car.burst", 1)

	v.SetDefault("providers.premium_car.base_url", defaultPremiumCarURL)
	v.SetDefault("providers.premium_car.timeout", 5*time.Second)
	v.SetDefault("providers.premium_car.rate_limit", 0)
	v.SetDefault("providers.premium_car.burst", 1)

	v.SetDefault("failover.window_size", 100)
	v.SetDefault("failover.failure_threshold", 0.5)
	v.SetDefault("failover.cooldown", 5*time.Minute)

	v.SetDefault("audit.buffer_size", 1000)
	v.SetDefault("audit.retention", 30*24*time.Hour)
	v.SetDefault("audit.purge_schedule", "0 0 3 * * *")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that all required configuration fields are present and valid.
// It returns an error listing every problem found.
func Validate(bc *Bootstrap) error {
	var problems []string

	if bc.Data == nil || bc.Data.Database == nil || bc.Data.Database.Source == "" {
		problems = append(problems, "data.database.source (MYSQL_DSN)")
	}

	if bc.Providers == nil || bc.Providers.SuperCar == nil || bc.Providers.SuperCar.BaseUrl == "" {
		problems = append(problems, "providers.super_car.base_url")
	}
	if bc.Providers == nil || bc.Providers.PremiumCar == nil || bc.Providers.PremiumCar.BaseUrl == "" {
		problems = append(problems, "providers.premium_car.base_url")
	}

	if f := bc.Failover; f == nil {
		problems = append(problems, "failover")
	} else {
		if f.WindowSize <= 0 {
			problems = append(problems, "failover.window_size (must be > 0)")
		}
		if f.FailureThreshold <= 0 || f.FailureThreshold > 1 {
			problems = append(problems, "failover.failure_threshold (must be in (0,1])")
		}
		if f.Cooldown == nil || f.Cooldown.AsDuration() <= 0 {
			problems = append(problems, "failover.cooldown (must be > 0)")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("missing or invalid configuration fields: %s", strings.Join(problems, ", "))
	}

	return nil
}
