package requester

import (
	"ImageValidator/internal/service"
	"ImageValidator/internal/service/image"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	StatusPasses = "✅ PASSES"
	StatusFails  = "❌ FAILS"
	StatusError  = "❌ Error"

	msgNoCriterion = "Please provide validation criteria"
	msgNoImage     = "Please upload an image"
)

// Validator проверяет одну картинку и никогда не возвращает ошибку.
type Validator interface {
	Validate(ctx context.Context, criterion string, img *image.Upload) service.ValidationResult
}

// Reply две строки для отображения: статус и подробности в markdown.
type Reply struct {
	Status  string `json:"status"`
	Details string `json:"details"`
	// Fields те же подробности без разметки, для HTML-формы. Пусто у ошибок ввода.
	Fields []Field `json:"-"`
}

// Field одна строка подробностей: «Label: Value».
type Field struct {
	Label string
	Value string
}

// Requester принимает ввод формы и возвращает ответ. Состояния между вызовами нет.
type Requester struct {
	validator Validator
	logger    *zap.SugaredLogger
}

func New(validator Validator, logger *zap.SugaredLogger) *Requester {
	return &Requester{
		validator: validator,
		logger:    logger,
	}
}

// Handle выполняет сценарий «Проверить картинку» один раз и блокирует вызывающего до ответа модели.
func (r *Requester) Handle(ctx context.Context, criterion string, img *image.Upload) Reply {
	// 1. Проверить ввод: без критерия и картинки в модель не ходим
	if strings.TrimSpace(criterion) == "" {
		return errorReply(msgNoCriterion)
	}
	if img == nil {
		return errorReply(msgNoImage)
	}

	// 2. Дождаться вердикта
	var result service.ValidationResult
	err := RunToCompletion(ctx, func(ctx context.Context) error {
		result = r.validator.Validate(ctx, criterion, img)
		return nil
	})
	if err != nil {
		r.logger.Errorw("Непредвиденная ошибка проверки", "error", err)
		return errorReply(fmt.Sprintf("An error occurred during validation: %v", err))
	}

	// 3. Отформатировать ответ
	fields := detailFields(criterion, result)
	return Reply{
		Status:  status(result.Passes),
		Details: formatDetails(fields),
		Fields:  fields,
	}
}

func status(passes bool) string {
	if passes {
		return StatusPasses
	}
	return StatusFails
}

func errorReply(msg string) Reply {
	return Reply{Status: StatusError, Details: msg}
}
