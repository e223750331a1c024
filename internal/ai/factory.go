package ai

import (
	"ImageValidator/internal/config"
	"ImageValidator/internal/service/image"

	"go.uber.org/zap"
)

// NewClient выбирает реализацию по конфигу: заглушка или OpenAI.
func NewClient(cfg *config.Config, logger *zap.SugaredLogger) Client {
	if cfg.StubAI {
		logger.Infow("AI client: stub")
		return NewStubClient()
	}
	processor := image.NewProcessor(cfg.Image.MaxWidth, cfg.Image.MaxSizeBytes, cfg.Image.JPEGQuality)
	logger.Infow("AI client: OpenAI", "model", cfg.OpenAI.Model, "base_url", cfg.OpenAI.BaseURL)
	return NewVisionClient(NewOpenAIClient(cfg.OpenAI), cfg.OpenAI.Model, processor, logger)
}
