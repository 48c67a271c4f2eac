package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/textprep/pkg/api"
	"github.com/hazyhaar/textprep/pkg/chassis"
	"github.com/hazyhaar/textprep/pkg/modelstore"
	"github.com/hazyhaar/textprep/pkg/pipeline"
)

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	addr := fs.String("addr", "", "listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers()
	}
	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	langs, err := loadLanguages(cfg.LanguagesDir)
	if err != nil {
		return err
	}
	logger.Info("languages loaded", "count", len(langs.Codes()), "dir", cfg.LanguagesDir)

	pool, err := pipeline.NewPool(cfg.Workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	var store *modelstore.Store
	if cfg.ModelsDB != "" {
		if store, err = modelstore.Open(cfg.ModelsDB); err != nil {
			return err
		}
		defer store.Close()
		logger.Info("model store opened", "path", cfg.ModelsDB)
	}

	svc, err := api.NewService(api.Config{
		Languages:       langs,
		Models:          store,
		Pool:            pool,
		DefaultLanguage: cfg.DefaultLanguage,
		MaxBatch:        cfg.MaxBatch,
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	mcpSrv := api.NewMCPServer(svc, version)
	router := api.NewRouter(svc, api.NewMCPHandler(mcpSrv))

	srv, err := chassis.New(chassis.Config{
		Addr:     cfg.Addr,
		CertFile: cfg.TLS.Cert,
		KeyFile:  cfg.TLS.Key,
		DevTLS:   cfg.TLS.Dev,
		HTTP3:    cfg.TLS.HTTP3,
		Handler:  router,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	// SIGHUP: reload language data.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	go func() {
		for range sighup {
			if cfg.LanguagesDir == "" {
				logger.Info("SIGHUP received, no languages_dir to reload")
				continue
			}
			logger.Info("SIGHUP received, reloading languages", "dir", cfg.LanguagesDir)
			if err := svc.ReloadLanguages(cfg.LanguagesDir); err != nil {
				logger.Error("reload failed", "error", err)
			} else {
				logger.Info("languages reloaded", "count", len(langs.Codes()))
			}
		}
	}()

	logger.Info("textprep listening", "addr", cfg.Addr, "workers", cfg.Workers, "version", version)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
