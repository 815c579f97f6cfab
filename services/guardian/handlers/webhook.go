// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the gin HTTP handlers of the guardian
// service: the GitHub webhook boundary and the read-side API.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
	"github.com/openelements/conduct-guardian/services/guardian/pipeline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var webhookTracer = otel.Tracer("guardian.handlers")

// eventHeader is the GitHub header naming the delivered event kind.
const eventHeader = "X-GitHub-Event"

// eventKey pairs a GitHub event name with its action.
type eventKey struct {
	event  string
	action string
}

// handledEvents maps recognized (event, action) pairs to whether the
// content is "primary" (discussion/issue/PR, carries a title) or a
// comment. Everything else is dropped with a log.
var handledEvents = map[eventKey]bool{
	{"pull_request", "opened"}:        true,
	{"issues", "opened"}:              true,
	{"discussion", "created"}:         true,
	{"issue_comment", "created"}:      false,
	{"discussion_comment", "created"}: false,
}

// contentRef is the shared shape of issues, pull requests, discussions,
// and comments in webhook payloads.
type contentRef struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

// webhookPayload holds the payload fields the handler consumes.
type webhookPayload struct {
	Action      string      `json:"action"`
	Issue       *contentRef `json:"issue"`
	PullRequest *contentRef `json:"pull_request"`
	Discussion  *contentRef `json:"discussion"`
	Comment     *contentRef `json:"comment"`
}

// HandleGitHubWebhook turns recognized GitHub events into messages and
// feeds them to the moderation pipeline. Unrecognized event kinds are
// dropped, not errors.
func HandleGitHubWebhook(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := webhookTracer.Start(c.Request.Context(), "HandleGitHubWebhook")
		defer span.End()

		eventType := c.GetHeader(eventHeader)

		var payload webhookPayload
		if err := c.BindJSON(&payload); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse GitHub webhook payload", "event", eventType, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
			return
		}

		primary, recognized := handledEvents[eventKey{eventType, payload.Action}]
		if !recognized {
			slog.Warn("Unhandled GitHub event", "event", eventType, "action", payload.Action)
			c.Status(http.StatusNoContent)
			return
		}

		msg, ok := buildMessage(eventType, primary, payload)
		if !ok {
			slog.Error("GitHub webhook payload is missing required fields", "event", eventType)
			c.JSON(http.StatusBadRequest, gin.H{"error": "payload missing required fields"})
			return
		}

		slog.Info("Received GitHub event", "event", eventType, "action", payload.Action, "link", msg.Link)
		if err := p.Process(ctx, msg); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to process message", "link", msg.Link, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusAccepted)
	}
}

// buildMessage extracts the checked text and canonical URL for the
// event. Primary content carries its title; comments do not.
func buildMessage(eventType string, primary bool, payload webhookPayload) (datatypes.Message, bool) {
	if !primary {
		if payload.Comment == nil || payload.Comment.Body == "" || payload.Comment.HTMLURL == "" {
			return datatypes.Message{}, false
		}
		return datatypes.Message{
			Body: payload.Comment.Body,
			Link: payload.Comment.HTMLURL,
		}, true
	}

	var ref *contentRef
	switch eventType {
	case "issues":
		ref = payload.Issue
	case "pull_request":
		ref = payload.PullRequest
	case "discussion":
		ref = payload.Discussion
	}
	if ref == nil || ref.Body == "" || ref.HTMLURL == "" {
		return datatypes.Message{}, false
	}
	return datatypes.Message{
		Title: ref.Title,
		Body:  ref.Body,
		Link:  ref.HTMLURL,
	}, true
}
