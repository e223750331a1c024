package main

import (
	"ImageValidator/internal/ai"
	"ImageValidator/internal/app/requester"
	"ImageValidator/internal/config"
	"ImageValidator/internal/service"
	"ImageValidator/internal/service/image"
	"ImageValidator/internal/service/tracing"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
)

// Разовая проверка картинки из файла, без веб-формы.
func main() {
	imagePath := flag.String("image", "", "путь к картинке")
	criterion := flag.String("criterion", "", "критерий проверки, напр. \"It should be a driver's license\"")

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// логи только в режиме дебага, иначе вывод CLI остаётся чистым
	logger := zap.NewNop()
	if cfg.DebugMode {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()
	tp, shutdownTracing := tracing.Setup(ctx, cfg.Tracing, sugar)
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			sugar.Warnw("Failed to flush traces", "error", err)
		}
	}()

	var upload *image.Upload
	if *imagePath != "" {
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			log.Fatalf("failed to read image file: %v", err)
		}
		upload, err = image.DecodeLimit(data, cfg.Image.MaxPixels)
		if err != nil {
			log.Fatalf("failed to decode image file: %v", err)
		}
	}

	validator := service.NewValidator(ai.NewClient(cfg, sugar), cfg.OpenAI.Model, tp, sugar)
	reply := requester.New(validator, sugar).Handle(ctx, *criterion, upload)

	fmt.Println(reply.Status)
	fmt.Println()
	fmt.Println(reply.Details)
}
