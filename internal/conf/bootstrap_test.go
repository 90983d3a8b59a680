package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewBootstrap_Defaults(t *testing.T) {
	configPath := writeConfig(t, `server:
  http:
    addr: :8080
data:
  redis:
    addr: 127.0.0.1:6379
`)
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/valuations")

	bc, err := NewBootstrap(configPath)
	require.NoError(t, err)
	require.NotNil(t, bc)

	assert.Equal(t, ":8080", bc.Server.Http.Addr)
	assert.Equal(t, "tcp", bc.Server.Http.Network)
	assert.Equal(t, 30*time.Second, bc.Server.Http.Timeout.AsDuration())

	assert.Equal(t, "mysql", bc.Data.Database.Driver)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/valuations", bc.Data.Database.Source)
	assert.Equal(t, "127.0.0.1:6379", bc.Data.Redis.Addr)
	assert.Equal(t, 200*time.Millisecond, bc.Data.Redis.ReadTimeout.AsDuration())
	assert.Equal(t, int32(10000), bc.Data.Cache.LocalSize)
	assert.Equal(t, 24*time.Hour, bc.Data.Cache.Ttl.AsDuration())

	assert.Equal(t, defaultSuperCarURL, bc.Providers.SuperCar.BaseUrl)
	assert.Equal(t, defaultPremiumCarURL, bc.Providers.PremiumCar.BaseUrl)
	assert.Equal(t, 5*time.Second, bc.Providers.SuperCar.Timeout.AsDuration())

	assert.Equal(t, int32(100), bc.Failover.WindowSize)
	assert.Equal(t, 0.5, bc.Failover.FailureThreshold)
	assert.Equal(t, 5*time.Minute, bc.Failover.Cooldown.AsDuration())

	assert.Equal(t, int32(1000), bc.Audit.BufferSize)
	assert.Equal(t, 30*24*time.Hour, bc.Audit.Retention.AsDuration())
	assert.Equal(t, "0 0 3 * * *", bc.Audit.PurgeSchedule)

	assert.Equal(t, "info", bc.Log.Level)
	assert.Equal(t, "json", bc.Log.Format)
}

func TestNewBootstrap_FileValues(t *testing.T) {
	configPath := writeConfig(t, `providers:
  super_car:
    base_url: http://supercar.local
    rate_limit: 20
    burst: 5
  premium_car:
    base_url: http://premiumcar.local
    proxy_url: socks5://127.0.0.1:1080
failover:
  window_size: 10
  failure_threshold: 0.25
  cooldown: 30s
`)
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/valuations")

	bc, err := NewBootstrap(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://supercar.local", bc.Providers.SuperCar.BaseUrl)
	assert.Equal(t, 20.0, bc.Providers.SuperCar.RateLimit)
	assert.Equal(t, int32(5), bc.Providers.SuperCar.Burst)
	assert.Equal(t, "socks5://127.0.0.1:1080", bc.Providers.PremiumCar.ProxyUrl)
	assert.Equal(t, int32(10), bc.Failover.WindowSize)
	assert.Equal(t, 0.25, bc.Failover.FailureThreshold)
	assert.Equal(t, 30*time.Second, bc.Failover.Cooldown.AsDuration())
}

func TestNewBootstrap_EnvOverrides(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		expectedVal func(*Bootstrap) bool
	}{
		{
			name: "override_http_addr",
			envVars: map[string]string{
				"CARVALUATOR_SERVER_HTTP_ADDR": ":9999",
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Server.Http.Addr == ":9999"
			},
		},
		{
			name: "override_redis_addr",
			envVars: map[string]string{
				"REDIS_ADDR": "redis.example.com:6379",
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Data.Redis.Addr == "redis.example.com:6379"
			},
		},
		{
			name: "override_failover_window",
			envVars: map[string]string{
				"CARVALUATOR_FAILOVER_WINDOW_SIZE": "50",
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Failover.WindowSize == 50
			},
		},
		{
			name: "override_log_level",
			envVars: map[string]string{
				"CARVALUATOR_LOG_LEVEL": "debug",
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Log.Level == "debug"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, `server:
  http:
    addr: :8080
`)
			t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/valuations")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			bc, err := NewBootstrap(configPath)
			require.NoError(t, err)
			assert.True(t, tt.expectedVal(bc))
		})
	}
}

func TestNewBootstrap_MissingDSN(t *testing.T) {
	configPath := writeConfig(t, `server:
  http:
    addr: :8080
`)
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("CARVALUATOR_DATA_DATABASE_SOURCE", "")

	bc, err := NewBootstrap(configPath)
	assert.Error(t, err)
	assert.Nil(t, bc)
	assert.Contains(t, err.Error(), "data.database.source (MYSQL_DSN)")
}

func TestNewBootstrap_ConfigFileNotFound(t *testing.T) {
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/valuations")

	bc, err := NewBootstrap("/non/existent/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, bc)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestNewBootstrap_EmptyConfigPath(t *testing.T) {
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/valuations")

	bc, err := NewBootstrap("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", bc.Server.Http.Addr)
	assert.Equal(t, int32(100), bc.Failover.WindowSize)
}

func validBootstrap() *Bootstrap {
	return &Bootstrap{
		Data: &Data{
			Database: &Data_Database{Driver: "mysql", Source: "user:pass@tcp(localhost:3306)/valuations"},
		},
		Providers: &Providers{
			SuperCar:   &Provider{BaseUrl: "http://supercar.local"},
			PremiumCar: &Provider{BaseUrl: "http://premiumcar.local"},
		},
		Failover: &Failover{
			WindowSize:       100,
			FailureThreshold: 0.5,
			Cooldown:         durationpb.New(5 * time.Minute),
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Bootstrap)
		wantErr string
	}{
		{name: "valid", mutate: func(*Bootstrap) {}},
		{
			name:    "zero window",
			mutate:  func(bc *Bootstrap) { bc.Failover.WindowSize = 0 },
			wantErr: "failover.window_size",
		},
		{
			name:    "threshold above one",
			mutate:  func(bc *Bootstrap) { bc.Failover.FailureThreshold = 1.5 },
			wantErr: "failover.failure_threshold",
		},
		{
			name:    "threshold zero",
			mutate:  func(bc *Bootstrap) { bc.Failover.FailureThreshold = 0 },
			wantErr: "failover.failure_threshold",
		},
		{
			name:    "zero cooldown",
			mutate:  func(bc *Bootstrap) { bc.Failover.Cooldown = durationpb.New(0) },
			wantErr: "failover.cooldown",
		},
		{
			name:    "missing premium car url",
			mutate:  func(bc *Bootstrap) { bc.Providers.PremiumCar.BaseUrl = "" },
			wantErr: "providers.premium_car.base_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc := validBootstrap()
			tt.mutate(bc)

			err := Validate(bc)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_EmptyBootstrap(t *testing.T) {
	err := Validate(&Bootstrap{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.database.source")
	assert.Contains(t, err.Error(), "providers.super_car.base_url")
	assert.Contains(t, err.Error(), "failover")
}
