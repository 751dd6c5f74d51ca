package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"signbridge/internal/config"
	"signbridge/internal/daemon"
	"signbridge/internal/ipc"
	"signbridge/internal/logging"
	"signbridge/internal/runstore"
)

func main() {
	configPath := flag.String("config", "", "Path to the configuration file")
	socketPath := flag.String("socket", "", "Override the IPC socket path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if socket := strings.TrimSpace(*socketPath); socket != "" {
		cfg.Paths.SocketPath = socket
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := runstore.Open(cfg, logger)
	if err != nil {
		logger.Error("open run ledger", logging.Error(err))
		return
	}

	orch := buildOrchestrator(cfg, store, logger)

	d, err := daemon.New(cfg, store, orch, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("signbridged shutting down")
}
