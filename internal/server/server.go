package server

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/panelforge/panelforge/internal/auth"
	"github.com/panelforge/panelforge/internal/comic"
	"github.com/panelforge/panelforge/internal/config"
	"github.com/panelforge/panelforge/internal/imagestore"
	"github.com/panelforge/panelforge/internal/logger"
	"github.com/panelforge/panelforge/internal/quota"
	"github.com/panelforge/panelforge/internal/storage"
	"github.com/panelforge/panelforge/pkg/togetherai"
)

// Run wires the whole service together from a validated config and blocks
// serving HTTP.
func Run(cfg *config.Config, version string, buildTime string) error {
	log, err := logger.InitLogger(cfg.LogConfig.Level, cfg.LogConfig.Format, cfg.LogConfig.File)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	log.Info("Starting panelforge",
		zap.String("version", version),
		zap.String("buildTime", buildTime),
		zap.String("listen_addr", cfg.ListenAddr))

	db, err := storage.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	model, err := cfg.ResolveModel()
	if err != nil {
		return err
	}
	log.Info("Generation model selected",
		zap.String("model", model.Model),
		zap.Int("width", model.Width),
		zap.Int("height", model.Height))

	tokens := make(map[string]string, len(cfg.Auth.Tokens))
	for _, t := range cfg.Auth.Tokens {
		tokens[t.Token] = t.UserID
	}

	stories := storage.NewStoryStore(db)
	pages := storage.NewPageStore(db)
	gate := quota.NewGate(db, cfg.Quota.MaxGenerations, cfg.Quota.Window())
	gateway := togetherai.NewClient(cfg.TogetherAPIKey, cfg.APIEndpoints.ImageGeneration, log.Named("togetherai"))
	artifacts := imagestore.NewDiskStore(cfg.Storage.Dir, cfg.Storage.PublicBaseURL, log.Named("imagestore"))

	svc := comic.NewService(stories, pages, gate, gateway, artifacts, model, cfg.Generation.Temperature, log.Named("comic"))
	authorizer := auth.NewAuthorizer(tokens)

	router := NewRouter(svc, authorizer, cfg.Storage.Dir, log.Named("http"))

	log.Info("Listening", zap.String("addr", cfg.ListenAddr))
	return router.Run(cfg.ListenAddr)
}
