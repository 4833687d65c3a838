// migrate applies the embedded merchant schema migrations.
package main

import (
	"flag"
	"fmt"
	"os"

	"merchant-service/internal/config"
	"merchant-service/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		fmt.Fprintf(os.Stderr, "database.driver is %q; migrations only apply to postgres\n", cfg.Database.Driver)
		os.Exit(1)
	}

	if err := storage.Migrate(cfg.Database.URL(), *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
