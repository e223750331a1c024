package ai

import (
	"ImageValidator/internal/config"
	"ImageValidator/internal/service/image"
	"bytes"
	"context"
	stdimage "image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"
)

func testUpload(t *testing.T) *image.Upload {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, stdimage.NewRGBA(stdimage.Rect(0, 0, 64, 32))))
	u, err := image.Decode(buf.Bytes())
	require.NoError(t, err)
	return u
}

func responseBody(text string) string {
	quoted := strings.ReplaceAll(text, `"`, `\"`)
	return `{
		"id": "resp_test",
		"object": "response",
		"created_at": 1700000000,
		"status": "completed",
		"model": "gpt-4o-mini",
		"output": [{
			"type": "message",
			"id": "msg_test",
			"status": "completed",
			"role": "assistant",
			"content": [{"type": "output_text", "text": "` + quoted + `", "annotations": []}]
		}]
	}`
}

func newTestVisionClient(t *testing.T, handler http.HandlerFunc) *VisionClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewOpenAIClient(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	return NewVisionClient(client, "gpt-4o-mini", image.NewProcessor(0, 0, 0), zaptest.NewLogger(t).Sugar())
}

func TestVisionClient_Validate(t *testing.T) {
	var body []byte
	vc := newTestVisionClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/responses"), r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, responseBody(`{"description":"A photo of a license","passes":true}`))
	})

	got, err := vc.Validate(context.Background(), "It should be a driver's license", testUpload(t))
	require.NoError(t, err)
	assert.Equal(t, Verdict{Description: "A photo of a license", Passes: true}, got)

	require.True(t, gjson.ValidBytes(body))
	req := gjson.ParseBytes(body)
	assert.Equal(t, "gpt-4o-mini", req.Get("model").String())
	assert.Contains(t, req.Get("instructions").String(), "expert image validator")
	assert.Equal(t, "json_schema", req.Get("text.format.type").String())
	assert.Equal(t, "validation_result", req.Get("text.format.name").String())
	assert.True(t, req.Get("text.format.strict").Bool())
	assert.Contains(t, string(body), "Validation Criteria: It should be a driver's license")
	assert.Contains(t, string(body), "data:image/jpeg;base64,")
}

func TestVisionClient_ProviderErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	vc := newTestVisionClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"upstream exploded","type":"server_error"}}`)
	})

	_, err := vc.Validate(context.Background(), "It should be a passport", testUpload(t))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestVisionClient_MalformedResponse(t *testing.T) {
	vc := newTestVisionClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, responseBody(`I think it is a passport`))
	})

	_, err := vc.Validate(context.Background(), "It should be a passport", testUpload(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed response")
}

func TestVisionClient_NilImage(t *testing.T) {
	vc := newTestVisionClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := vc.Validate(context.Background(), "anything", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prepare image")
}

func TestVisionClient_DefaultModel(t *testing.T) {
	vc := NewVisionClient(nil, "", image.NewProcessor(0, 0, 0), zaptest.NewLogger(t).Sugar())
	assert.Equal(t, "gpt-4o-mini", vc.Model())

	_, err := vc.Validate(context.Background(), "x", testUpload(t))
	require.Error(t, err)
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Verdict
		wantErr string
	}{
		{name: "passes", in: `{"description":"a cat","passes":true}`, want: Verdict{Description: "a cat", Passes: true}},
		{name: "fails", in: ` {"description":"a dog","passes":false} `, want: Verdict{Description: "a dog"}},
		{name: "empty", in: "  ", wantErr: "empty output"},
		{name: "not json", in: "yes", wantErr: "not JSON"},
		{name: "missing passes", in: `{"description":"a cat"}`, wantErr: "passes"},
		{name: "passes as string", in: `{"description":"a cat","passes":"true"}`, wantErr: "passes"},
		{name: "missing description", in: `{"passes":true}`, wantErr: "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVerdict(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStubClient(t *testing.T) {
	var c Client = NewStubClient()
	got, err := c.Validate(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.False(t, got.Passes)
	assert.NotEmpty(t, got.Description)
}
