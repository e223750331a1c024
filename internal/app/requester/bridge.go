package requester

import (
	"context"
	"fmt"
)

// RunToCompletion запускает fn в отдельной горутине и ждёт её завершения.
// Паника внутри fn возвращается как ошибка. Отмену ctx fn обрабатывает сама.
func RunToCompletion(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- fn(ctx)
	}()
	return <-done
}
