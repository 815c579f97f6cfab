// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openelements/conduct-guardian/services/guardian/coc"
	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
	openai "github.com/sashabaranov/go-openai"
)

// checkTimeout bounds a single classification call so one message cannot
// stall the pipeline.
const checkTimeout = 10 * time.Second

const promptTemplate = `You are a code of conduct checker for an open source project.
Your task is to check if the following message violates the code of conduct of the project.

Your answer must be in a JSON format with the following fields:
- result: the result of the check. Allowed values are NONE, POSSIBLE_VIOLATION or VIOLATION
- reason: a short text explaining the result

The message has the title (can be empty and should be ignored then): %s
The message has the text: %s

The code of conduct is:
%s
`

// completionAPI is the slice of the OpenAI client the checker uses.
// Narrowed to an interface so tests can substitute a fake.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIChecker classifies messages with a chat-completion model, feeding
// it the governing code of conduct as context. No retry is performed
// here; every failure surfaces as a ClassificationError.
type OpenAIChecker struct {
	client   completionAPI
	model    string
	provider coc.Provider
}

// modelAnswer is the structured shape the model is required to answer in.
type modelAnswer struct {
	Result string `json:"result"`
	Reason string `json:"reason"`
}

// NewOpenAIChecker creates an OpenAI-backed checker. The provider
// supplies the code of conduct embedded into each prompt.
func NewOpenAIChecker(apiKey, model string, provider coc.Provider) (*OpenAIChecker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey must not be blank")
	}
	if provider == nil {
		return nil, fmt.Errorf("provider must not be nil")
	}
	if model == "" {
		model = openai.GPT4oMini
		slog.Warn("OpenAI model not set, defaulting", "model", model)
	}
	slog.Info("Initializing OpenAI conduct checker", "model", model)
	return &OpenAIChecker{
		client:   openai.NewClient(apiKey),
		model:    model,
		provider: provider,
	}, nil
}

// Check builds the prompt, calls the model, and parses the structured
// answer. Fails when the code of conduct cannot be supplied, the remote
// call fails or times out, or the answer cannot be parsed into a valid
// state and reason.
func (o *OpenAIChecker) Check(ctx context.Context, msg datatypes.Message) (datatypes.CheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	prompt, err := o.buildPrompt(ctx, msg)
	if err != nil {
		return datatypes.CheckResult{}, &ClassificationError{Checker: "openai", Err: err}
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		slog.Error("OpenAI API call failed", "link", msg.Link, "error", err)
		return datatypes.CheckResult{}, &ClassificationError{Checker: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return datatypes.CheckResult{}, &ClassificationError{
			Checker: "openai",
			Err:     fmt.Errorf("response contains no choices"),
		}
	}

	answer, err := parseAnswer(resp.Choices[0].Message.Content)
	if err != nil {
		return datatypes.CheckResult{}, &ClassificationError{Checker: "openai", Err: err}
	}

	state, err := datatypes.ParseViolationState(answer.Result)
	if err != nil {
		return datatypes.CheckResult{}, &ClassificationError{Checker: "openai", Err: err}
	}

	slog.Debug("OpenAI classification complete", "link", msg.Link, "state", state.String())
	return datatypes.CheckResult{
		Message: msg,
		State:   state,
		Reason:  answer.Reason,
	}, nil
}

// buildPrompt embeds the markdown code of conduct and the message into
// the fixed prompt shape.
func (o *OpenAIChecker) buildPrompt(ctx context.Context, msg datatypes.Message) (string, error) {
	if !o.provider.Supports(ctx, datatypes.FormatMarkdown) {
		return "", fmt.Errorf("no code of conduct available in markdown format")
	}
	text, err := o.provider.Text(ctx, datatypes.FormatMarkdown)
	if err != nil {
		return "", fmt.Errorf("loading code of conduct: %w", err)
	}
	return fmt.Sprintf(promptTemplate, msg.Title, msg.Body, text), nil
}

// parseAnswer extracts the required two fields from the model output.
// Tolerates a markdown code fence around the JSON.
func parseAnswer(content string) (modelAnswer, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var answer modelAnswer
	if err := json.Unmarshal([]byte(trimmed), &answer); err != nil {
		return modelAnswer{}, fmt.Errorf("response is not the required JSON shape: %w", err)
	}
	if answer.Result == "" || answer.Reason == "" {
		return modelAnswer{}, fmt.Errorf("response is missing result or reason")
	}
	return answer, nil
}

var _ ConductChecker = (*OpenAIChecker)(nil)
