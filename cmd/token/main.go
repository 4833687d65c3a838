// token mints a bearer token for the merchant API from the configured jwt.secret.
package main

import (
	"flag"
	"fmt"
	"os"

	"merchant-service/internal/auth"
	"merchant-service/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	subject := flag.String("subject", "", "Token subject, e.g. the calling service name")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "-subject is required")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "jwt.secret is empty; the API is not authenticated")
		os.Exit(1)
	}

	token, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours).GenerateToken(*subject)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
