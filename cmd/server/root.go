package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leca/loqed-births/internal/config"
	"github.com/leca/loqed-births/internal/database"
	"github.com/leca/loqed-births/internal/gateway"
	"github.com/leca/loqed-births/internal/storage"
	"github.com/leca/loqed-births/internal/token"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	serve := newServeCmd(cfg)

	cmd := &cobra.Command{
		Use:           "loqed",
		Short:         "Person registry with secure image delivery",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.AddCommand(
		serve,
		newMigrateImagesCmd(cfg),
	)

	return cmd
}

// app bundles the components shared by the commands.
type app struct {
	db     *database.SQLiteDB
	images *gateway.Gateway
}

func openApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := database.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	tokens, err := token.New(cfg.SigningSecret, token.ImageNamespace)
	if err != nil {
		db.Close()
		return nil, err
	}

	images := gateway.New(db.Blobs(), storage.NewFileSystem(cfg.CacheDir), tokens, gateway.Config{
		BaseURL:       cfg.BaseURL,
		TokenValidity: cfg.TokenValidity,
		Logger:        slog.Default(),
	})

	return &app{db: db, images: images}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
