package ai

import (
	"ImageValidator/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestNewClient(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	cfg := config.Defaults()
	cfg.OpenAI.APIKey = "sk-test"
	assert.IsType(t, &VisionClient{}, NewClient(cfg, logger))

	cfg.StubAI = true
	assert.IsType(t, &StubClient{}, NewClient(cfg, logger))
}
