package ai

import (
	"ImageValidator/internal/service/image"
	"context"
)

// Verdict структурированный ответ модели: что на картинке и подходит ли она под критерий.
type Verdict struct {
	Description string `json:"description"`
	Passes      bool   `json:"passes"`
}

// Client интерфейс для проверки картинки моделью. Все реализации должны быть взаимозаменяемыми.
type Client interface {
	Validate(ctx context.Context, criterion string, img *image.Upload) (Verdict, error)
}
