package config

import (
	"flag"
	"os"

	"go.uber.org/zap"
)

type Config struct {
	RunAddress           string
	DatabaseURI          string
	Key                  string
	SponsorIncludeCoffee bool
	Logger               *zap.SugaredLogger
}

func NewConfig() *Config {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stdout", "server.log"}

	logger := zap.Must(logCfg.Build())

	cfg := &Config{}
	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "HTTP server address")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "DB connection string")
	flag.StringVar(&cfg.Key, "k", "", "JWT signing key")
	flag.BoolVar(&cfg.SponsorIncludeCoffee, "coffee", false, "include coffee in breakfast sponsoring")
	flag.Parse()

	cfg.Logger = logger.Sugar()

	ReadServerEnvironment(cfg)

	return cfg
}

func ReadServerEnvironment(cfg *Config) {
	if runAddress := os.Getenv("RUN_ADDRESS"); runAddress != "" {
		cfg.RunAddress = runAddress
	}

	if databaseURI := os.Getenv("DATABASE_URI"); databaseURI != "" {
		cfg.DatabaseURI = databaseURI
	}

	if key := os.Getenv("KANTINE_KEY"); key != "" {
		cfg.Key = key
	}

	if includeCoffee := os.Getenv("SPONSOR_INCLUDE_COFFEE"); includeCoffee != "" {
		cfg.SponsorIncludeCoffee = includeCoffee == "true" || includeCoffee == "1"
	}
}
