// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package checker

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
)

// =============================================================================
// Term Sets
// =============================================================================

// Common offensive terms that might indicate CoC violations.
var offensiveTerms = []string{
	"idiot", "stupid", "dumb", "moron", "retard",
	"crap", "shit", "fuck", "damn", "ass", "asshole",
	"bitch", "bastard", "dick", "cunt", "whore", "slut",
	"hate", "kill", "die", "attack", "terrible", "horrible",
	"useless", "worthless", "incompetent", "pathetic",
}

// Terms that might indicate harassment or discrimination. These are only
// counted when they appear near a negative-sentiment word, so that neutral
// mentions of protected characteristics are not flagged. The list mixes
// slurs with protected-characteristic terms; the behavior is kept as-is
// and its precision limits are documented in the tests.
var discriminatoryTerms = []string{
	"racist", "sexist", "homophobic", "transphobic", "bigot",
	"nazi", "fascist", "communist", "terrorist",
	"gay", "lesbian", "trans", "queer", "black", "white", "asian", "latino", "hispanic",
	"jew", "muslim", "christian", "hindu", "buddhist",
	"woman", "man", "girl", "boy", "female", "male",
}

// Negative-sentiment words checked within the context window around a
// discriminatory term.
var negativeContextWords = []string{
	"hate", "stupid", "bad", "terrible", "awful", "worst",
	"not", "never", "against", "dislike", "reject", "wrong", "evil", "sick", "disgusting",
}

// Patterns that might indicate personal attacks.
var attackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)you are (a|an) ([a-z\s]+)`),
	regexp.MustCompile(`(?i)you're (a|an) ([a-z\s]+)`),
	regexp.MustCompile(`(?i)you ([a-z]+) (like|as) (a|an) ([a-z\s]+)`),
	regexp.MustCompile(`(?i)your ([a-z\s]+) is ([a-z\s]+)`),
	regexp.MustCompile(`(?i)go ([a-z]+) yourself`),
}

// contextWindow is the number of characters inspected on each side of a
// discriminatory term when looking for negative sentiment.
const contextWindow = 30

const closingSentence = "Please review the message against the code of conduct."

// =============================================================================
// Keyword Checker
// =============================================================================

// KeywordChecker is a conservative, explainable keyword heuristic. It has
// no external dependency and guarantees the pipeline always has a working
// checker. It intentionally over-flags compared to a semantic classifier.
type KeywordChecker struct{}

// NewKeywordChecker creates the heuristic checker and logs the accuracy
// caveat once at construction.
func NewKeywordChecker() *KeywordChecker {
	slog.Warn("Using keyword conduct checker with basic term analysis. This is less accurate than AI-based checkers.")
	return &KeywordChecker{}
}

// Check scans the lower-cased title and body for offensive terms,
// discriminatory terms in negative context, and personal-attack patterns.
//
// Decision rule: more than 2 hits across offensive terms and attack
// patterns, or any discriminatory-context hit, is a VIOLATION; any hit at
// all is a POSSIBLE_VIOLATION; otherwise NONE. The reason text enumerates
// the triggering categories.
func (k *KeywordChecker) Check(ctx context.Context, msg datatypes.Message) (datatypes.CheckResult, error) {
	slog.Info("Performing basic keyword analysis on message", "link", msg.Link)

	content := strings.ToLower(msg.Title) + " " + strings.ToLower(msg.Body)

	var foundOffensive []string
	for _, term := range offensiveTerms {
		if containsWholeWord(content, term) {
			foundOffensive = append(foundOffensive, term)
		}
	}
	sort.Strings(foundOffensive)

	var foundDiscriminatory []string
	for _, term := range discriminatoryTerms {
		if containsWholeWord(content, term) && inNegativeContext(content, term) {
			foundDiscriminatory = append(foundDiscriminatory, term)
		}
	}
	sort.Strings(foundDiscriminatory)

	attackHits := 0
	for _, pattern := range attackPatterns {
		if pattern.MatchString(content) {
			attackHits++
		}
	}

	if len(foundOffensive) == 0 && len(foundDiscriminatory) == 0 && attackHits == 0 {
		return datatypes.CheckResult{
			Message: msg,
			State:   datatypes.StateNone,
			Reason:  "No potential violations detected by basic keyword analysis.",
		}, nil
	}

	var reason strings.Builder
	reason.WriteString("Potential code of conduct violation detected: ")
	if len(foundOffensive) > 0 {
		reason.WriteString("Found offensive terms: ")
		reason.WriteString(strings.Join(foundOffensive, ", "))
		reason.WriteString(". ")
	}
	if len(foundDiscriminatory) > 0 {
		reason.WriteString("Found potentially discriminatory language around: ")
		reason.WriteString(strings.Join(foundDiscriminatory, ", "))
		reason.WriteString(". ")
	}
	if attackHits > 0 {
		reason.WriteString("Detected language patterns that may constitute personal attacks. ")
	}
	reason.WriteString(closingSentence)

	// Each matched attack pattern counts as one hit toward the threshold.
	state := datatypes.StatePossibleViolation
	if len(foundOffensive)+attackHits > 2 || len(foundDiscriminatory) > 0 {
		state = datatypes.StateViolation
	}

	return datatypes.CheckResult{
		Message: msg,
		State:   state,
		Reason:  reason.String(),
	}, nil
}

// containsWholeWord reports whether text contains word bounded on both
// sides, not as a substring of a longer word.
func containsWholeWord(text, word string) bool {
	pattern := `\b` + regexp.QuoteMeta(word) + `\b`
	matched, err := regexp.MatchString(pattern, text)
	return err == nil && matched
}

// inNegativeContext reports whether a negative-sentiment word appears
// within contextWindow characters of the term's first occurrence.
func inNegativeContext(text, term string) bool {
	idx := strings.Index(text, term)
	if idx < 0 {
		return false
	}
	start := idx - contextWindow
	if start < 0 {
		start = 0
	}
	end := idx + len(term) + contextWindow
	if end > len(text) {
		end = len(text)
	}
	window := text[start:end]
	for _, neg := range negativeContextWords {
		if containsWholeWord(window, neg) {
			return true
		}
	}
	return false
}

var _ ConductChecker = (*KeywordChecker)(nil)
