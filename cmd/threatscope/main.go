// Command threatscope runs the threat-intelligence lookup API server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/threatscope/threatscope/internal/app"
	"github.com/threatscope/threatscope/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigFile, "path to the YAML configuration file")
	flag.Parse()

	cfg := config.AppConfig{ConfigPath: *configPath}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flag.Arg(0) == "migrate" {
		if errMigrate := app.Migrate(ctx, cfg); errMigrate != nil {
			log.Fatalf("migrate: %v", errMigrate)
		}
		log.Info("migrations applied")
		return
	}

	if errRun := app.RunServer(ctx, cfg); errRun != nil {
		log.Fatalf("server: %v", errRun)
	}
}
