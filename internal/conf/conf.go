package conf

import "google.golang.org/protobuf/types/known/durationpb"

// Bootstrap is the root configuration of the service.
type Bootstrap struct {
	Server    *Server
	Data      *Data
	Providers *Providers
	Failover  *Failover
	Audit     *Audit
	Log       *Log
}

// Server holds transport settings.
type Server struct {
	Http *Server_HTTP
}

// Server_HTTP configures the kratos HTTP server.
type Server_HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Data holds storage settings.
type Data struct {
	Database *Data_Database
	Redis    *Data_Redis
	Cache    *Data_Cache
}

// Data_Database configures the MySQL connection.
type Data_Database struct {
	Driver string
	Source string
}

// Data_Redis configures the Redis connection used by the valuation read cache.
type Data_Redis struct {
	Network      string
	Addr         string
	ReadTimeout  *durationpb.Duration
	WriteTimeout *durationpb.Duration
}

// Data_Cache configures the in-process and Redis valuation caches.
type Data_Cache struct {
	LocalSize int32
	Ttl       *durationpb.Duration
}

// Providers holds the upstream valuation provider clients.
type Providers struct {
	SuperCar   *Provider
	PremiumCar *Provider
}

// Provider configures one upstream valuation API.
type Provider struct {
	BaseUrl   string
	Timeout   *durationpb.Duration
	ProxyUrl  string
	RateLimit float64 // requests per second, 0 disables limiting
	Burst     int32
}

// Failover configures the primary provider failover controller.
type Failover struct {
	WindowSize       int32
	FailureThreshold float64
	Cooldown         *durationpb.Duration
}

// Audit configures the provider call log.
type Audit struct {
	BufferSize    int32
	Retention     *durationpb.Duration
	PurgeSchedule string
}

// Log configures the zap logger.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}
