package translate

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type mockCompleter struct {
	calls     int
	failFirst bool
	err       error
	content   string
	noChoices bool
}

func (m *mockCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.calls++
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	if m.failFirst && m.calls == 1 {
		return openai.ChatCompletionResponse{}, errors.New("rate limited")
	}
	if m.noChoices {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: m.content}},
		},
	}, nil
}

func newTestTranslator(client chatCompleter) *OpenAI {
	return &OpenAI{
		client:  client,
		model:   openai.GPT4oMini,
		lang:    "Russian",
		timeout: 5 * time.Second,
	}
}

func TestTranslate(t *testing.T) {
	mock := &mockCompleter{content: "  Привет  "}
	tr := newTestTranslator(mock)

	got, err := tr.Translate(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "Привет" {
		t.Errorf("expected trimmed translation, got %q", got)
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 API call, got %d", mock.calls)
	}
}

func TestTranslateRetriesTransientError(t *testing.T) {
	mock := &mockCompleter{failFirst: true, content: "Привет"}
	tr := newTestTranslator(mock)

	got, err := tr.Translate(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "Привет" {
		t.Errorf("unexpected translation %q", got)
	}
	if mock.calls != 2 {
		t.Errorf("expected a retry after the transient error, got %d calls", mock.calls)
	}
}

func TestTranslatePersistentError(t *testing.T) {
	mock := &mockCompleter{err: errors.New("invalid api key")}
	tr := newTestTranslator(mock)

	if _, err := tr.Translate(context.Background(), "Hello"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if mock.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", mock.calls)
	}
}

func TestTranslateNoChoices(t *testing.T) {
	mock := &mockCompleter{noChoices: true}
	tr := newTestTranslator(mock)

	if _, err := tr.Translate(context.Background(), "Hello"); err == nil {
		t.Fatal("expected error on empty choice list")
	}
	// An empty response is a malformed reply, not a transient failure.
	if mock.calls != 1 {
		t.Errorf("expected no retry on malformed response, got %d calls", mock.calls)
	}
}

func TestTranslateEmptyResult(t *testing.T) {
	mock := &mockCompleter{content: "   "}
	tr := newTestTranslator(mock)

	if _, err := tr.Translate(context.Background(), "Hello"); err == nil {
		t.Fatal("expected error on blank translation")
	}
}
