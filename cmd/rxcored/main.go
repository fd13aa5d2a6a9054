package main

import (
	"fmt"
	"log"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/dougsko/rxcore/pkg/config"
	"github.com/dougsko/rxcore/pkg/engine"
	"github.com/dougsko/rxcore/pkg/logging"
)

var (
	configPath = flag.StringP("config", "c", "config.yaml", "Configuration file path")
	socketPath = flag.StringP("socket", "s", "", "Unix socket path (overrides api.unix_socket)")
	version    = flag.BoolP("version", "v", false, "Show version information")
)

const Build = "development"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("rxcored version %s (%s)\n", engine.Version, Build)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *socketPath != "" {
		cfg.API.UnixSocket = *socketPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logging.InitGlobalLogger(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseGlobalLogger()

	logging.Info("main", "rxcored starting", map[string]interface{}{
		"version":  engine.Version,
		"callsign": cfg.Station.Callsign,
		"vfos":     cfg.Radio.MaxVFOs,
		"web":      fmt.Sprintf("http://%s:%d", cfg.Web.BindAddress, cfg.Web.Port),
	})

	daemon, err := NewDaemon(cfg)
	if err != nil {
		logging.Error("main", "failed to create daemon", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	if err := daemon.Run(); err != nil {
		logging.Error("main", "daemon exited", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	logging.Info("main", "rxcored stopped")
}
