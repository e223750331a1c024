package ai

import (
	"ImageValidator/internal/service/image"
	"context"
)

// StubClient заглушка, которая не делает реальных запросов
type StubClient struct {
	verdict Verdict
}

func NewStubClient() *StubClient {
	return &StubClient{verdict: Verdict{
		Description: "Stub response: the image was received but not analyzed.",
		Passes:      false,
	}}
}

func (c *StubClient) Validate(_ context.Context, _ string, _ *image.Upload) (Verdict, error) {
	return c.verdict, nil
}
