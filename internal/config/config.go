package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// ErrMissingAPIKey возвращается, если ключ OpenAI не задан ни в .env, ни в окружении, ни флагом.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

type Config struct {
	DebugMode bool `env:"DEBUG_MODE"` //Режим дебага
	StubAI    bool `env:"STUB_AI"`    // Не ходить в OpenAI, отвечать заглушкой

	OpenAI OpenAIConfig

	// Веб-форма
	BindAddr       string `env:"BIND_ADDR"`        // Адрес слушателя, напр. 0.0.0.0:7860
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES"` // Максимальный размер загружаемого файла

	Image   ImageConfig
	Tracing TracingConfig
}

// OpenAIConfig настройки клиента модели.
type OpenAIConfig struct {
	APIKey  string        `env:"OPENAI_API_KEY"`  // Единственный обязательный секрет
	Model   string        `env:"OPENAI_MODEL"`    // Модель с поддержкой изображений
	BaseURL string        `env:"OPENAI_BASE_URL"` // Пусто — адрес по умолчанию из SDK
	Timeout time.Duration `env:"OPENAI_TIMEOUT"`  // 0 — таймаут клиента по умолчанию
}

// ImageConfig параметры подготовки картинки перед отправкой.
type ImageConfig struct {
	MaxWidth     int `env:"IMAGE_MAX_WIDTH"`
	MaxSizeBytes int `env:"IMAGE_MAX_SIZE_BYTES"`
	JPEGQuality  int `env:"IMAGE_JPEG_QUALITY"`
	// MaxPixels предел ширина*высота для загрузки, проверяется до полного декодирования.
	MaxPixels int64 `env:"IMAGE_MAX_PIXELS"`
}

// TracingConfig настройки OpenTelemetry.
type TracingConfig struct {
	Exporter     string `env:"TRACING_EXPORTER"`            // none|stdout|otlp
	ServiceName  string `env:"TRACING_SERVICE_NAME"`        // service.name в ресурсе
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"` // host:port коллектора для otlp
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode: false,
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		BindAddr:       "0.0.0.0:7860",
		MaxUploadBytes: 10 * 1024 * 1024,
		Image: ImageConfig{
			MaxWidth:     1280,
			MaxSizeBytes: 1 * 1024 * 1024,
			JPEGQuality:  80,
			MaxPixels:    50_000_000,
		},
		Tracing: TracingConfig{
			Exporter:     "none",
			ServiceName:  "image-validator",
			OTLPEndpoint: "localhost:4317",
		},
	}
}

// NewConfig загружает конфигурацию приложения: .env, окружение, флаги процесса.
// Без ключа OpenAI дальше ехать некуда, вызывающий должен завершить процесс.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()
	return Load(flag.CommandLine, os.Args[1:])
}

// Load стартует с дефолтов, затем перекрывает окружением и флагами из fs.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага (подробные логи)")
	fs.BoolVar(&cfg.StubAI, "stub", cfg.StubAI, "отвечать заглушкой вместо запроса в OpenAI")
	fs.StringVar(&cfg.OpenAI.APIKey, "openai-api-key", cfg.OpenAI.APIKey, "API ключ OpenAI (перекрывает ENV)")
	fs.StringVar(&cfg.OpenAI.Model, "openai-model", cfg.OpenAI.Model, "модель OpenAI с поддержкой изображений")
	fs.StringVar(&cfg.OpenAI.BaseURL, "openai-base-url", cfg.OpenAI.BaseURL, "базовый URL API OpenAI (пусто — по умолчанию)")
	fs.DurationVar(&cfg.OpenAI.Timeout, "openai-timeout", cfg.OpenAI.Timeout, "таймаут запроса к OpenAI, напр. 60s (0 — по умолчанию)")
	fs.StringVar(&cfg.BindAddr, "bind-addr", cfg.BindAddr, "адрес веб-формы (напр. 0.0.0.0:7860)")
	fs.Int64Var(&cfg.MaxUploadBytes, "max-upload-bytes", cfg.MaxUploadBytes, "максимальный размер загружаемого файла в байтах")
	fs.IntVar(&cfg.Image.MaxWidth, "image-max-width", cfg.Image.MaxWidth, "максимальная ширина картинки, отправляемой в модель")
	fs.IntVar(&cfg.Image.MaxSizeBytes, "image-max-size-bytes", cfg.Image.MaxSizeBytes, "максимальный размер JPEG, отправляемого в модель")
	fs.IntVar(&cfg.Image.JPEGQuality, "image-jpeg-quality", cfg.Image.JPEGQuality, "качество JPEG при перекодировании (1-100)")
	fs.Int64Var(&cfg.Image.MaxPixels, "image-max-pixels", cfg.Image.MaxPixels, "максимум пикселей в загруженной картинке")
	fs.StringVar(&cfg.Tracing.Exporter, "tracing-exporter", cfg.Tracing.Exporter, "экспортёр трейсов: none|stdout|otlp")
	fs.StringVar(&cfg.Tracing.ServiceName, "tracing-service-name", cfg.Tracing.ServiceName, "service.name для трейсов")
	fs.StringVar(&cfg.Tracing.OTLPEndpoint, "otlp-endpoint", cfg.Tracing.OTLPEndpoint, "адрес OTLP/gRPC коллектора (host:port)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg.OpenAI.APIKey = strings.TrimSpace(cfg.OpenAI.APIKey)
	if cfg.OpenAI.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg.Tracing.Exporter = strings.ToLower(strings.TrimSpace(cfg.Tracing.Exporter))

	return cfg, nil
}
