// Command ragbot-worker runs the ask/truth job pipeline: the durable
// queue workers, the ingestion debounce hook's background rebuilder,
// and the admin/debug HTTP surface, all sharing one cancellation
// context per REDESIGN FLAGS (explicit goroutines instead of a hidden
// coroutine-cancellation runtime).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chatrag/ragcore/internal/config"
	"github.com/chatrag/ragcore/internal/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragbot-worker: load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.JSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "ragbot-worker: init failed", "error", err.Error())
		os.Exit(1)
	}
	defer a.Close()

	go a.askWorker.Run(ctx)
	go a.truthWorker.Run(ctx)
	go a.rebuilder.Run(ctx)

	go func() {
		if err := a.admin.ListenAndServe(cfg.Admin.ListenAddr); err != nil {
			logger.Error(ctx, "ragbot-worker: admin server stopped", "error", err.Error())
		}
	}()

	logger.Info(ctx, "ragbot-worker: started", "admin_addr", cfg.Admin.ListenAddr)
	<-ctx.Done()
	logger.Info(ctx, "ragbot-worker: shutting down")
}
