// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sinks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
	"github.com/slack-go/slack"
)

// slackPoster is the slice of the Slack client the sink uses.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackSink posts violation results to a Slack channel. Results with
// state NONE are skipped.
type SlackSink struct {
	client    slackPoster
	channelID string
}

// NewSlackSink creates the sink and posts a connection message to the
// channel so misconfiguration is caught at startup, not at the first
// violation.
func NewSlackSink(token, channelID string) (*SlackSink, error) {
	if token == "" {
		return nil, fmt.Errorf("slack token must not be blank")
	}
	if channelID == "" {
		return nil, fmt.Errorf("slack channelID must not be blank")
	}
	slog.Info("Initializing Slack sink", "channel_id", channelID)

	s := &SlackSink{
		client:    slack.New(token),
		channelID: channelID,
	}
	_, _, err := s.client.PostMessageContext(context.Background(), channelID,
		slack.MsgOptionText(":rocket: *Conduct Guardian* has been connected to this channel. "+
			"Code of conduct violations will be reported here.", false))
	if err != nil {
		return nil, fmt.Errorf("sending slack connection message: %w", err)
	}
	return s, nil
}

// Name implements ResultSink.
func (s *SlackSink) Name() string { return "slack" }

// Handle posts the result to the configured channel, skipping NONE.
func (s *SlackSink) Handle(ctx context.Context, result datatypes.CheckResult) error {
	if result.State == datatypes.StateNone {
		slog.Debug("No violation found, not sending message to Slack", "link", result.Message.Link)
		return nil
	}

	emoji := ":warning:"
	if result.State == datatypes.StateViolation {
		emoji = ":no_entry_sign:"
	}
	message := fmt.Sprintf("%s Check result:\nLink: %s\nState: %s\nReason: %s",
		emoji, result.Message.Link, result.State.String(), result.Reason)

	if _, _, err := s.client.PostMessageContext(ctx, s.channelID, slack.MsgOptionText(message, false)); err != nil {
		return fmt.Errorf("sending message to slack channel %s: %w", s.channelID, err)
	}
	return nil
}

var _ ResultSink = (*SlackSink)(nil)
