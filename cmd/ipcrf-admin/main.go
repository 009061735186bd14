package main

import (
	"errors"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-ipcrf-api/internal/repository"
	"github.com/noah-isme/sma-ipcrf-api/internal/service"
	"github.com/noah-isme/sma-ipcrf-api/pkg/config"
	"github.com/noah-isme/sma-ipcrf-api/pkg/database"
	"github.com/noah-isme/sma-ipcrf-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	validate := service.NewValidator()
	cli := commandLine{
		db:    db.DB,
		users: service.NewAuthService(users, validate, logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret}),
		ratings: service.NewIPCRFService(service.IPCRFServiceDeps{
			Repo:      repository.NewIPCRFRepository(db),
			Teachers:  repository.NewTeacherRepository(db),
			KRAs:      repository.NewKRARepository(db),
			Users:     users,
			Audit:     users,
			Validator: validate,
			Logger:    logr,
		}),
		out: os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			logr.Error("command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}
