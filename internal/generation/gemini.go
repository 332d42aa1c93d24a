// Package generation talks to the external collaborators that classify a video
// and produce its trivia: a Gemini model and an oEmbed title lookup.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"popup-orchestrator/internal/verdict"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-2.5-flash"

	maxResponseBytes = 4 << 20
)

// ErrMalformedResponse is returned when the model reply holds no usable JSON.
var ErrMalformedResponse = errors.New("model response was not valid JSON")

// GeminiConfig configures a GeminiClient.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiClient asks a Gemini model, with search grounding, for a verdict.
type GeminiClient struct {
	cfg GeminiConfig
	log *slog.Logger
}

// NewGeminiClient returns a client. Empty fields take their defaults.
func NewGeminiClient(cfg GeminiConfig, log *slog.Logger) *GeminiClient {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultGeminiModel
	}
	return &GeminiClient{cfg: cfg, log: log}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction geminiContent    `json:"systemInstruction"`
	Contents          []geminiContent  `json:"contents"`
	Tools             []map[string]any `json:"tools"`
}

// Generate returns the model's verdict for req.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (verdict.Verdict, error) {
	if c.cfg.APIKey == "" {
		return verdict.Verdict{}, fmt.Errorf("gemini api key is required")
	}

	prompt := BuildPrompt(req)
	if req.Title != "" {
		c.log.Debug("generating with verified title", slog.String("identifier", req.Identifier), slog.String("title", req.Title))
	} else {
		c.log.Debug("generating from url only", slog.String("identifier", req.Identifier))
	}

	body, err := json.Marshal(geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		Tools:             []map[string]any{{"googleSearch": map[string]any{}}},
	})
	if err != nil {
		return verdict.Verdict{}, fmt.Errorf("marshal generate request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1beta/models/" + c.cfg.Model + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return verdict.Verdict{}, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	res, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return verdict.Verdict{}, fmt.Errorf("generate request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return verdict.Verdict{}, fmt.Errorf("read generate response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := gjson.GetBytes(raw, "error.message").String()
		return verdict.Verdict{}, fmt.Errorf("generate request status %d: %s", res.StatusCode, msg)
	}

	var text strings.Builder
	for _, part := range gjson.GetBytes(raw, "candidates.0.content.parts.#.text").Array() {
		text.WriteString(part.String())
	}
	if text.Len() == 0 {
		return verdict.Verdict{}, fmt.Errorf("empty model reply: %w", ErrMalformedResponse)
	}

	return parseVerdict(text.String())
}

func parseVerdict(reply string) (verdict.Verdict, error) {
	doc := ExtractJSON(reply)
	if !gjson.Valid(doc) {
		return verdict.Verdict{}, ErrMalformedResponse
	}
	var v verdict.Verdict
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return verdict.Verdict{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return v, nil
}
