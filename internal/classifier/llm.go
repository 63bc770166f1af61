package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const systemPrompt = `You receive the OCR text of one scanned book page, possibly in Russian or English.
Decide whether the page is a table of contents: a list of chapter or section titles with page numbers.
Answer with a single JSON object and nothing else:
{"is_toc": true or false, "confidence": a number from 0 to 1 giving your certainty in that answer}`

// LLMConfig configures the chat completion classifier.
type LLMConfig struct {
	BaseURL   string
	Model     string
	APIKey    string
	Timeout   time.Duration
	Threshold float64 // minimum confidence for accepting a positive answer
	MaxChars  int     // page text beyond this is cut off, 0 means 6000
}

// LLM asks an OpenAI compatible chat model to label the page.
type LLM struct {
	client    openai.Client
	model     string
	timeout   time.Duration
	threshold float64
	maxChars  int
}

// NewLLM creates the classifier. Extra request options are appended after the
// ones derived from cfg.
func NewLLM(cfg LLMConfig, opts ...option.RequestOption) (*LLM, error) {
	if cfg.Model == "" {
		return nil, errors.New("llm classifier: model is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 6000
	}

	clientOpts := []option.RequestOption{option.WithMaxRetries(2)}
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &LLM{
		client:    openai.NewClient(clientOpts...),
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		threshold: cfg.Threshold,
		maxChars:  cfg.MaxChars,
	}, nil
}

// Classify implements Classifier. Blank pages are answered locally.
func (l *LLM) Classify(ctx context.Context, text string) (Decision, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Decision{IsTOC: false, Confidence: 1}, nil
	}
	if runes := []rune(text); len(runes) > l.maxChars {
		text = string(runes[:l.maxChars])
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	resp, err := l.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(l.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return Decision{}, fmt.Errorf("llm classifier: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Decision{}, errors.New("llm classifier: response has no choices")
	}

	d, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return Decision{}, fmt.Errorf("llm classifier: %w", err)
	}
	if d.IsTOC && d.Confidence < l.threshold {
		return Decision{IsTOC: false, Confidence: 1 - d.Confidence}, nil
	}
	return d, nil
}

type verdict struct {
	IsTOC      *bool    `json:"is_toc"`
	Confidence *float64 `json:"confidence"`
}

// parseVerdict reads the JSON object out of a model reply, tolerating code
// fences and surrounding prose.
func parseVerdict(content string) (Decision, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return Decision{}, fmt.Errorf("no JSON object in reply %q", truncate(content, 80))
	}

	var v verdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &v); err != nil {
		return Decision{}, fmt.Errorf("decode reply: %w", err)
	}
	if v.IsTOC == nil || v.Confidence == nil {
		return Decision{}, errors.New("reply is missing is_toc or confidence")
	}
	return Decision{IsTOC: *v.IsTOC, Confidence: Clamp(*v.Confidence)}, nil
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
