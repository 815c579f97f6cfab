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

	"github.com/bwmarrin/discordgo"
	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
)

// channelSender is the slice of the Discord session the sink uses,
// narrowed so tests can substitute a fake.
type channelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordSink posts every classification result to a Discord channel.
type DiscordSink struct {
	session   channelSender
	channelID string
}

// NewDiscordSink opens a Discord session with the given bot token and
// targets the given channel.
func NewDiscordSink(token, channelID string) (*DiscordSink, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token must not be blank")
	}
	if channelID == "" {
		return nil, fmt.Errorf("discord channelID must not be blank")
	}
	slog.Info("Initializing Discord sink", "channel_id", channelID)
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	return &DiscordSink{session: session, channelID: channelID}, nil
}

// Name implements ResultSink.
func (s *DiscordSink) Name() string { return "discord" }

// Handle posts the result to the configured channel.
func (s *DiscordSink) Handle(ctx context.Context, result datatypes.CheckResult) error {
	message := fmt.Sprintf("Check result: %s, State: %s, Reason: %s",
		result.Message.Link, result.State.String(), result.Reason)
	if _, err := s.session.ChannelMessageSend(s.channelID, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending message to discord channel %s: %w", s.channelID, err)
	}
	return nil
}

var _ ResultSink = (*DiscordSink)(nil)
