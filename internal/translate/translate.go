// Package translate provides the optional best-effort translation step
// applied to inbound messages before normalization.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"
)

// Translator converts text into the configured target language. A failed
// translation is reported as an error; callers fall back to the original
// text and must never abort the relay because of it.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// chatCompleter is the subset of the OpenAI client used here.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI translates text through an OpenAI-compatible chat completion API.
type OpenAI struct {
	client  chatCompleter
	model   string
	lang    string
	timeout time.Duration
}

// NewOpenAI creates a translator for the given API key, model, and target
// language. An empty model falls back to gpt-4o-mini.
func NewOpenAI(apiKey, model, lang string) *OpenAI {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{
		client:  openai.NewClient(apiKey),
		model:   model,
		lang:    lang,
		timeout: 20 * time.Second,
	}
}

// Translate sends the text for translation, retrying once with backoff on
// transient API errors.
func (t *OpenAI) Translate(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Translate the following message into %s. Preserve formatting, mention tokens like <#123> or <@123>, and URLs exactly. Reply with the translation only.",
		t.lang,
	)

	var out string
	backoff := retry.WithMaxRetries(1, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: t.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: prompt},
				{Role: openai.ChatMessageRoleUser, Content: text},
			},
			Temperature: 0.1,
		})
		if err != nil {
			return retry.RetryableError(fmt.Errorf("chat completion: %w", err))
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no response choices")
		}
		out = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("empty translation")
	}
	return out, nil
}
