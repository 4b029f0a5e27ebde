package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/Wikid82/logtrackr/internal/config"
	"github.com/Wikid82/logtrackr/internal/database"
	"github.com/Wikid82/logtrackr/internal/logger"
	"github.com/Wikid82/logtrackr/internal/models"
	"github.com/Wikid82/logtrackr/internal/server"
	"github.com/Wikid82/logtrackr/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log().WithError(err).Fatal("load config")
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		logger.Log().WithError(err).Fatal("create log directory")
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "logtrackr.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	defer rotator.Close()
	logger.Init(cfg.Debug, io.MultiWriter(os.Stdout, rotator))

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		logger.Log().WithError(err).Fatal("connect database")
	}

	if len(os.Args) > 1 && os.Args[1] == "reset-password" {
		resetPassword(db, os.Args[2:])
		return
	}

	srv, err := server.New(db, cfg)
	if err != nil {
		logger.Log().WithError(err).Fatal("build server")
	}

	logger.WithFields(logrus.Fields{
		"version":     version.Full(),
		"environment": cfg.Environment,
		"database":    cfg.DatabasePath,
	}).Info("starting " + version.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Log().WithError(err).Fatal("server error")
	}
	logger.Log().Info("server stopped")
}

// resetPassword handles "reset-password <email> <new-password>".
func resetPassword(db *gorm.DB, args []string) {
	if len(args) != 2 {
		logger.Log().Fatalf("usage: %s reset-password <email> <new-password>", os.Args[0])
	}
	email := strings.ToLower(strings.TrimSpace(args[0]))

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		logger.Log().WithError(err).Fatal("user not found")
	}
	if err := user.SetPassword(args[1]); err != nil {
		logger.Log().WithError(err).Fatal("hash password")
	}
	user.Enabled = true
	if err := db.Save(&user).Error; err != nil {
		logger.Log().WithError(err).Fatal("save user")
	}
	logger.Log().WithField("email", email).Info("password updated")
}
