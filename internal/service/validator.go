package service

import (
	"ImageValidator/internal/ai"
	"ImageValidator/internal/service/image"
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	tracerName      = "image-validator"
	agentName       = "image_validator"
	spanDescription = 200
)

// ValidationResult вердикт по одной картинке. Живёт только до отрисовки ответа.
type ValidationResult struct {
	Description string
	Passes      bool
	TraceID     string
}

// Validator оборачивает AI-клиента: трейсинг, логи и превращение любой ошибки в отрицательный вердикт.
type Validator struct {
	client ai.Client
	model  string
	tracer trace.Tracer
	logger *zap.SugaredLogger
}

// NewValidator создаёт сервис. tp может быть nil — тогда трейсинг не пишется.
func NewValidator(client ai.Client, model string, tp trace.TracerProvider, logger *zap.SugaredLogger) *Validator {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Validator{
		client: client,
		model:  model,
		tracer: tp.Tracer(tracerName),
		logger: logger,
	}
}

// Validate никогда не возвращает ошибку: сбой модели превращается в Passes=false с текстом ошибки.
func (v *Validator) Validate(ctx context.Context, criterion string, img *image.Upload) (result ValidationResult) {
	traceID := uuid.NewString()[:8]

	ctx, span := v.tracer.Start(ctx, "image_validation_"+traceID)
	defer span.End()
	span.SetAttributes(
		attribute.String("validation.criteria", criterion),
		attribute.String("validation.trace_id", traceID),
		attribute.String("image.format", imageFormat(img)),
		attribute.String("image.size", imageSize(img)),
	)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			v.logger.Errorw("Ошибка проверки изображения", "trace_id", traceID, "error", err)
			result = failed(traceID, err)
		}
	}()

	v.logger.Infow("Начата проверка изображения", "trace_id", traceID, "criterion", criterion)

	agentCtx, agentSpan := v.tracer.Start(ctx, "agent_processing")
	defer agentSpan.End()
	agentSpan.SetAttributes(
		attribute.String("agent.name", agentName),
		attribute.String("agent.model", v.model),
	)

	verdict, err := v.client.Validate(agentCtx, criterion, img)
	if err != nil {
		agentSpan.RecordError(err)
		agentSpan.SetStatus(codes.Error, err.Error())
		span.SetStatus(codes.Error, err.Error())
		v.logger.Errorw("Ошибка проверки изображения", "trace_id", traceID, "error", err)
		return failed(traceID, err)
	}

	agentSpan.SetAttributes(
		attribute.Bool("validation.result", verdict.Passes),
		attribute.String("validation.description", truncate(verdict.Description, spanDescription)),
	)
	v.logger.Infow("Проверка завершена", "trace_id", traceID, "passes", verdict.Passes)

	return ValidationResult{Description: verdict.Description, Passes: verdict.Passes, TraceID: traceID}
}

func failed(traceID string, err error) ValidationResult {
	return ValidationResult{
		Description: fmt.Sprintf("Error processing image: %v", err),
		Passes:      false,
		TraceID:     traceID,
	}
}

func imageFormat(img *image.Upload) string {
	if img == nil || img.Format == "" {
		return "unknown"
	}
	return img.Format
}

func imageSize(img *image.Upload) string {
	if img == nil {
		return "0x0"
	}
	return img.Size()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
