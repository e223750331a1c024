package main

import (
	"ImageValidator/internal/ai"
	"ImageValidator/internal/app/requester"
	"ImageValidator/internal/config"
	"ImageValidator/internal/service"
	"ImageValidator/internal/service/tracing"
	"ImageValidator/internal/service/web"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Веб-форма проверки картинок: критерий + картинка -> вердикт модели.
func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.DebugMode)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Infow(
		"Starting image validator",
		"DebugMode", cfg.DebugMode,
		"Model", cfg.OpenAI.Model,
		"BindAddr", cfg.BindAddr,
	)

	gin.SetMode(ginMode(cfg.DebugMode))

	tp, shutdownTracing := tracing.Setup(ctx, cfg.Tracing, sugar)
	validator := service.NewValidator(ai.NewClient(cfg, sugar), cfg.OpenAI.Model, tp, sugar)
	handler := requester.New(validator, sugar)
	server := web.NewServer(web.Config{
		BindAddr:       cfg.BindAddr,
		MaxUploadBytes: cfg.MaxUploadBytes,
		MaxPixels:      cfg.Image.MaxPixels,
	}, handler, sugar)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
		defer cancel()
		return shutdownTracing(flushCtx)
	})

	if err := g.Wait(); err != nil {
		sugar.Errorw("Server stopped with error", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	sugar.Infow("Server stopped")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// ginMode режим gin задаётся один раз на процесс.
func ginMode(debug bool) string {
	if debug {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}
