// Package main is the entry point of the CarValuator service.
// It initializes the Kratos application with the HTTP and cron servers.
package main

import (
	"flag"
	"os"

	"CarValuator/internal/conf"
	"CarValuator/internal/server"
	zapLogger "CarValuator/pkg/log"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "CarValuator"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/config.yaml", "config path, eg: -conf config.yaml")
}

func newApp(logger log.Logger, hs *http.Server, cs *server.CronServer) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			hs,
			cs,
		),
	)
}

func main() {
	flag.Parse()

	bc, err := conf.NewBootstrap(flagconf)
	if err != nil {
		// Zap is not initialized yet.
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLog, err := zapLogger.NewZapLogger(bc.Log)
	if err != nil {
		log.Fatalf("failed to initialize zap logger: %v", err)
	}
	defer zapLog.Sync()

	logger := log.With(zapLogger.NewKratosAdapter(zapLog),
		"service.id", id,
		"service.version", Version,
	)

	zapLogger.NewLogHelper(logger).Startup("CarValuator service starting",
		"http.addr", bc.Server.Http.Addr,
		"failover.window_size", bc.Failover.WindowSize,
		"failover.failure_threshold", bc.Failover.FailureThreshold,
		"failover.cooldown", bc.Failover.Cooldown.AsDuration().String(),
		"log.level", bc.Log.Level,
		"log.format", bc.Log.Format,
	)

	app, cleanup, err := wireApp(bc.Server, bc.Data, bc.Providers, bc.Failover, bc.Audit, logger)
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		log.NewHelper(logger).Errorw("msg", "application stopped with error", "error", err)
	}
}
