package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/echotwin/echotwin/internal/config"
	"github.com/echotwin/echotwin/internal/handler"
	"github.com/echotwin/echotwin/internal/model/archive"
	replicamodel "github.com/echotwin/echotwin/internal/model/replica"
	"github.com/echotwin/echotwin/internal/service/ai"
	"github.com/echotwin/echotwin/internal/service/chat"
	"github.com/echotwin/echotwin/internal/service/memory"
	"github.com/echotwin/echotwin/internal/service/replica"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	archives, err := archive.NewFileStore(cfg.Pipeline.UploadDir)
	if err != nil {
		log.Fatalf("failed to initialize archive store: %v", err)
	}

	if !cfg.AI.Enabled() {
		log.Println("warning: ARK_MODEL not configured - requests that reach the model will fail")
	}

	profiles := replicamodel.NewMemoryStore()
	aiSvc := ai.NewService(cfg.AI)
	tracker := replica.NewTracker()
	replicaSvc := replica.NewService(archives, profiles, aiSvc, tracker, cfg.Pipeline.ChunkSize)
	memorySvc := memory.NewService(archives, cfg.Pipeline.SearchLimit)
	chatSvc := chat.NewService(archives, profiles, memorySvc, aiSvc)

	router := handler.NewRouter(archives, replicaSvc, chatSvc, memorySvc)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("echotwin backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
