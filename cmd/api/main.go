package main

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/yigit/sqlguide/internal/bootstrap"
	"github.com/yigit/sqlguide/internal/pkg/logger"
	"github.com/yigit/sqlguide/internal/server"
)

// @title sqlguide API
// @version 1.0
// @description Browse the SQL practice guide, check its reference solutions and grade attempts against company_db

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	configPath := pflag.StringP("config", "c", bootstrap.DefaultConfigPath, "path to the YAML configuration")
	pflag.Parse()

	srv, err := server.NewServer(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
