package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/feuerwache/kantine/internal/config"
	"github.com/feuerwache/kantine/internal/deps"
	"github.com/feuerwache/kantine/internal/server"
	"github.com/feuerwache/kantine/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := config.NewConfig()
	storage, err := storage.NewPostgresStorage(ctx, config.DatabaseURI, config.Logger)
	if err != nil {
		config.Logger.Fatal(err)
	}

	deps := deps.NewDependencies(config.Key)

	srv := server.NewServer(storage, config, deps)
	if err := srv.Run(ctx); err != nil {
		config.Logger.Fatal(err)
	}
}
