// Command sitewatch runs the website monitoring API server.
package main

import (
	"context"
	"fmt"
	"os"

	"sitewatch/internal/config"
	"sitewatch/internal/logging"
	"sitewatch/internal/server"
	"sitewatch/internal/store"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.NewStdoutLogger("sitewatch")

	st, err := store.NewMongo(context.Background(), cfg.DatabaseURL, cfg.DatabaseName, logger)
	if err != nil {
		logger.Error("opening store", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}

	srv, err := server.NewServer(server.Config{
		ListenAddr:      fmt.Sprintf(":%d", cfg.Port),
		Store:           st,
		Logger:          logger,
		DatabaseURLSet:  cfg.DatabaseURLSet,
		DatabaseNameSet: cfg.DatabaseNameSet,
	})
	if err != nil {
		logger.Error("creating server", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}

	logger.Info("listening", logging.Field{Key: "port", Value: cfg.Port})
	if err := srv.HTTPServer().ListenAndServe(); err != nil {
		logger.Error("server stopped", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
}
