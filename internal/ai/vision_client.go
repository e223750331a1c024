package ai

import (
	"ImageValidator/internal/config"
	"ImageValidator/internal/service/image"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const systemMessage = `You are an expert image validator. Your job is to analyze images and determine if they match specific validation criteria.

When given an image and validation criteria, you should:
1. Carefully examine the image
2. Provide a brief description of what you observe
3. Determine if the image matches the validation criteria
4. Return your assessment as structured data

Be thorough but concise in your analysis.`

const promptTemplate = `Please analyze this image and validate it against the following criteria:

Validation Criteria: %s

Please provide:
1. A brief description of what you observe in the image
2. Whether the image passes the validation (true/false)

Focus on whether the image content matches the validation criteria.`

// verdictSchema JSON Schema ответа модели. Strict-режим требует additionalProperties=false и все поля в required.
var verdictSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"description": map[string]any{
			"type":        "string",
			"description": "Brief description of what was observed in the image",
		},
		"passes": map[string]any{
			"type":        "boolean",
			"description": "True if the image passes the validation criteria, False otherwise",
		},
	},
	"required":             []string{"description", "passes"},
	"additionalProperties": false,
}

// NewOpenAIClient собирает клиента SDK. Повторы отключены: один клик — один запрос.
func NewOpenAIClient(cfg config.OpenAIConfig) *openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := openai.NewClient(opts...)
	return &client
}

// VisionClient отправляет критерий и картинку в OpenAI и получает структурированный вердикт
type VisionClient struct {
	client    *openai.Client
	model     string
	processor *image.Processor
	logger    *zap.SugaredLogger
}

func NewVisionClient(client *openai.Client, model string, processor *image.Processor, logger *zap.SugaredLogger) *VisionClient {
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &VisionClient{
		client:    client,
		model:     model,
		processor: processor,
		logger:    logger,
	}
}

// Model возвращает имя модели, в которую уходят запросы.
func (c *VisionClient) Model() string { return c.model }

func (c *VisionClient) Validate(ctx context.Context, criterion string, img *image.Upload) (Verdict, error) {
	if c.client == nil {
		return Verdict{}, errors.New("nil openai client")
	}

	prepared, err := c.processor.Prepare(img)
	if err != nil {
		return Verdict{}, fmt.Errorf("prepare image: %w", err)
	}

	content := responses.ResponseInputMessageContentListParam{
		responses.ResponseInputContentParamOfInputText(fmt.Sprintf(promptTemplate, criterion)),
	}
	imageParam := responses.ResponseInputContentParamOfInputImage(responses.ResponseInputImageDetailAuto)
	imageParam.OfInputImage.ImageURL = openai.String(prepared.DataURL)
	content = append(content, imageParam)

	params := responses.ResponseNewParams{
		Model:        c.model,
		Instructions: openai.String(systemMessage),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(content, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "validation_result",
					Description: openai.String("Image validation verdict"),
					Schema:      verdictSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	start := time.Now()
	c.logger.Debugw("Запрос в OpenAI...",
		"model", c.model,
		"width", prepared.Width,
		"height", prepared.Height,
		"bytes", prepared.SizeBytes,
	)
	resp, err := c.client.Responses.New(ctx, params)
	dur := time.Since(start)
	if err != nil {
		c.logger.Errorw("Ошибка ответа OpenAI", "duration", dur.String(), "error", err)
		return Verdict{}, err
	}
	c.logger.Debugw("Ответ OpenAI получен", "duration", dur.String())

	return parseVerdict(resp.OutputText())
}

// parseVerdict разбирает текст ответа. Модель обязана вернуть оба поля нужных типов.
func parseVerdict(out string) (Verdict, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return Verdict{}, errors.New("malformed response: empty output")
	}
	if !gjson.Valid(out) {
		return Verdict{}, fmt.Errorf("malformed response: not JSON: %.80q", out)
	}

	desc := gjson.Get(out, "description")
	if desc.Type != gjson.String {
		return Verdict{}, errors.New("malformed response: description is missing or not a string")
	}
	passes := gjson.Get(out, "passes")
	if passes.Type != gjson.True && passes.Type != gjson.False {
		return Verdict{}, errors.New("malformed response: passes is missing or not a boolean")
	}

	return Verdict{Description: desc.String(), Passes: passes.Bool()}, nil
}
