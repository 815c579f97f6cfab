// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package checker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
	openai "github.com/sashabaranov/go-openai"
)

// fakeCompletionAPI returns a canned response or error and records the
// last request for prompt assertions.
type fakeCompletionAPI struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeCompletionAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

// staticTestProvider supplies a fixed code of conduct for prompt tests.
type staticTestProvider struct {
	text string
}

func (p *staticTestProvider) Supports(ctx context.Context, format datatypes.TextFormat) bool {
	return true
}

func (p *staticTestProvider) Text(ctx context.Context, format datatypes.TextFormat) (string, error) {
	return p.text, nil
}

// newTestChecker wires an OpenAIChecker around a fake completion API.
func newTestChecker(fake *fakeCompletionAPI) *OpenAIChecker {
	return &OpenAIChecker{
		client:   fake,
		model:    openai.GPT4oMini,
		provider: &staticTestProvider{text: "Be excellent to each other."},
	}
}

// TestNewOpenAICheckerValidation verifies constructor argument checks.
func TestNewOpenAICheckerValidation(t *testing.T) {
	if _, err := NewOpenAIChecker("", "gpt-4o", &staticTestProvider{}); err == nil {
		t.Error("expected error for blank API key")
	}
	if _, err := NewOpenAIChecker("sk-test", "gpt-4o", nil); err == nil {
		t.Error("expected error for nil provider")
	}
	checker, err := NewOpenAIChecker("sk-test", "", &staticTestProvider{})
	if err != nil {
		t.Fatalf("NewOpenAIChecker returned error: %v", err)
	}
	if checker.model != openai.GPT4oMini {
		t.Errorf("blank model should default, got %q", checker.model)
	}
}

// TestOpenAICheckerParsesAnswer verifies the happy path: the model
// answer is parsed into state and reason, and the prompt carries the
// message and the code of conduct.
func TestOpenAICheckerParsesAnswer(t *testing.T) {
	fake := &fakeCompletionAPI{
		content: `{"result": "VIOLATION", "reason": "Contains a direct insult."}`,
	}
	checker := newTestChecker(fake)

	result, err := checker.Check(context.Background(), datatypes.Message{
		Title: "Angry issue",
		Body:  "You are an idiot",
		Link:  "https://example.com/issues/1",
	})
	if err != nil {
		t.Fatalf("Check() returned error: %v", err)
	}
	if result.State != datatypes.StateViolation {
		t.Errorf("state = %v, want VIOLATION", result.State)
	}
	if result.Reason != "Contains a direct insult." {
		t.Errorf("reason = %q", result.Reason)
	}

	prompt := fake.lastReq.Messages[0].Content
	if !strings.Contains(prompt, "You are an idiot") {
		t.Error("prompt should contain the message body")
	}
	if !strings.Contains(prompt, "Be excellent to each other.") {
		t.Error("prompt should contain the code of conduct text")
	}
	if fake.lastReq.Model != openai.GPT4oMini {
		t.Errorf("request model = %q", fake.lastReq.Model)
	}
}

// TestOpenAICheckerCodeFence verifies that a fenced JSON answer is
// tolerated.
func TestOpenAICheckerCodeFence(t *testing.T) {
	fake := &fakeCompletionAPI{
		content: "```json\n{\"result\": \"NONE\", \"reason\": \"Friendly message.\"}\n```",
	}
	checker := newTestChecker(fake)

	result, err := checker.Check(context.Background(), datatypes.Message{
		Body: "Thanks for the review!",
		Link: "https://example.com/issues/2",
	})
	if err != nil {
		t.Fatalf("Check() returned error: %v", err)
	}
	if result.State != datatypes.StateNone {
		t.Errorf("state = %v, want NONE", result.State)
	}
}

// TestOpenAICheckerInvalidState verifies that an unknown state token is
// a classification error rather than a silent default.
func TestOpenAICheckerInvalidState(t *testing.T) {
	fake := &fakeCompletionAPI{
		content: `{"result": "MAYBE", "reason": "Unclear."}`,
	}
	checker := newTestChecker(fake)

	_, err := checker.Check(context.Background(), datatypes.Message{
		Body: "hello",
		Link: "https://example.com/issues/3",
	})
	var classErr *ClassificationError
	if !errors.As(err, &classErr) {
		t.Fatalf("expected ClassificationError, got %v", err)
	}
}

// TestOpenAICheckerMalformedAnswer covers non-JSON output and output
// with missing fields.
func TestOpenAICheckerMalformedAnswer(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"prose", "The message looks fine to me."},
		{"missing reason", `{"result": "NONE"}`},
		{"missing result", `{"reason": "fine"}`},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checker := newTestChecker(&fakeCompletionAPI{content: tc.content})
			_, err := checker.Check(context.Background(), datatypes.Message{
				Body: "hello",
				Link: "https://example.com/issues/4",
			})
			var classErr *ClassificationError
			if !errors.As(err, &classErr) {
				t.Fatalf("expected ClassificationError, got %v", err)
			}
		})
	}
}

// TestOpenAICheckerTransportError verifies that API failures surface as
// classification errors wrapping the cause.
func TestOpenAICheckerTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	checker := newTestChecker(&fakeCompletionAPI{err: cause})

	_, err := checker.Check(context.Background(), datatypes.Message{
		Body: "hello",
		Link: "https://example.com/issues/5",
	})
	var classErr *ClassificationError
	if !errors.As(err, &classErr) {
		t.Fatalf("expected ClassificationError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("ClassificationError should wrap the transport error")
	}
}

// failingProvider cannot supply any code of conduct.
type failingProvider struct{}

func (p *failingProvider) Supports(ctx context.Context, format datatypes.TextFormat) bool {
	return false
}

func (p *failingProvider) Text(ctx context.Context, format datatypes.TextFormat) (string, error) {
	return "", errors.New("unavailable")
}

// TestOpenAICheckerNoCodeOfConduct verifies that a missing code of
// conduct fails the check before any API call.
func TestOpenAICheckerNoCodeOfConduct(t *testing.T) {
	fake := &fakeCompletionAPI{content: `{"result": "NONE", "reason": "x"}`}
	checker := &OpenAIChecker{client: fake, model: "gpt-4o", provider: &failingProvider{}}

	_, err := checker.Check(context.Background(), datatypes.Message{
		Body: "hello",
		Link: "https://example.com/issues/6",
	})
	var classErr *ClassificationError
	if !errors.As(err, &classErr) {
		t.Fatalf("expected ClassificationError, got %v", err)
	}
	if fake.lastReq.Model != "" {
		t.Error("no API call should be made when the code of conduct is missing")
	}
}
