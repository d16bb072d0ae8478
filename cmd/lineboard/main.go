package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sebas/lineboard/internal/banner"
	"github.com/sebas/lineboard/internal/config"
	"github.com/sebas/lineboard/internal/console"
	"github.com/sebas/lineboard/internal/console/notify"
	"github.com/sebas/lineboard/internal/console/server"
	"github.com/sebas/lineboard/internal/engine/sipws"
	"github.com/sebas/lineboard/internal/logger"
	"github.com/sebas/lineboard/internal/media"
)

func main() {
	// Load configuration
	if err := config.LoadEnv(); err != nil {
		slog.Warn("Failed to load env file", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.Error("Failed to open log file", "path", cfg.LogFile, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.InitLogger(os.Stdout, f)
	} else {
		logger.InitLogger(os.Stdout)
	}
	logger.SetLevel(cfg.LogLevel)
	if cfg.Debug {
		logger.SetLevel("debug")
	}

	banner.Print("Lineboard Operator Console", []banner.ConfigLine{
		{Label: "SIP domain", Value: cfg.Domain},
		{Label: "SIP server", Value: cfg.WebSocketURL},
		{Label: "User", Value: cfg.AuthorizationUser},
		{Label: "Console", Value: "http://" + cfg.ListenAddr},
		{Label: "Log level", Value: logger.GetLevel()},
	})

	agent, err := sipws.NewAgent(cfg.EngineConfig(),
		sipws.WithMediaEndpoint(cfg.MediaAddr, cfg.MediaPort),
	)
	if err != nil {
		slog.Error("Failed to create SIP agent", "error", err)
		os.Exit(1)
	}

	consoleCfg := console.Config{
		Engine:       cfg.EngineConfig(),
		NoticeBuffer: cfg.NoticeBuffer,
	}
	if cfg.ToneSinkAddr != "" {
		player := media.NewPlayer(cfg.ToneSinkAddr, media.CodecPCMU)
		defer player.Close()
		consoleCfg.Tones = player
	}
	if cfg.DesktopNotify {
		consoleCfg.Notifier = notify.NewDesktopNotifier("Lineboard")
	}

	var srv *server.Server
	consoleCfg.OnChange = func() {
		if srv != nil {
			srv.Broadcast()
		}
	}

	c := console.New(agent, consoleCfg)
	defer c.Close()

	srv = server.NewServer(cfg.ListenAddr, c)
	if err := srv.Start(); err != nil {
		slog.Error("Failed to start console server", "error", err)
		os.Exit(1)
	}

	c.Start()

	// Wait for signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	slog.Info("Received signal, shutting down", "signal", sig)

	c.Stop()
	if err := srv.Stop(); err != nil {
		slog.Warn("Console server shutdown", "error", err)
	}
	time.Sleep(500 * time.Millisecond)
}
