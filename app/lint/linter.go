package lint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/a1davida1/TPilot-sub011/app/database"
	"github.com/a1davida1/TPilot-sub011/app/rules"
)

// ErrInvalidInput marks malformed lint requests, rejected before any store
// access. Surfaced to HTTP callers as a client error.
var ErrInvalidInput = errors.New("invalid lint input")

const (
	titlePreviewLength = 100
	bodyPreviewLength  = 200
)

var linkTokenRe = regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+`)

// Input is one candidate post to evaluate.
type Input struct {
	UserID    string
	Subreddit string
	Title     string
	Body      string
	HasLink   bool
}

// Result is the linter's verdict. Violations are blocking, warnings are
// advisory; any violation makes the overall state blocked.
type Result struct {
	State      rules.PolicyState `json:"policyState"`
	Violations []string          `json:"violations"`
	Warnings   []string          `json:"warnings"`
}

// Linter evaluates candidate posts against stored RuleSpecs and appends a
// preview event per evaluation. It never mutates rule state; the gate is
// coupled to it only through the event log.
type Linter struct {
	ruleRepo  database.RuleRepository
	eventRepo database.EventRepository
}

func NewLinter(ruleRepo database.RuleRepository, eventRepo database.EventRepository) *Linter {
	return &Linter{
		ruleRepo:  ruleRepo,
		eventRepo: eventRepo,
	}
}

// Run lints one candidate post and records a preview event. The event
// write is part of the operation: if it fails, the lint call fails.
func (l *Linter) Run(ctx context.Context, in Input) (Result, error) {
	if strings.TrimSpace(in.Subreddit) == "" {
		return Result{}, fmt.Errorf("%w: subreddit is required", ErrInvalidInput)
	}

	spec, err := l.ruleRepo.GetRuleSpec(in.Subreddit)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load rule spec: %w", err)
	}

	result := l.evaluate(spec, in)

	event := database.PreviewEvent{
		UserID:       in.UserID,
		Subreddit:    in.Subreddit,
		TitlePreview: truncate(in.Title, titlePreviewLength),
		BodyPreview:  truncate(in.Body, bodyPreviewLength),
		PolicyState:  result.State,
		Warnings:     append(append([]string{}, result.Violations...), result.Warnings...),
		CreatedAt:    time.Now().UTC(),
	}
	if err := l.eventRepo.InsertPreviewEvent(event); err != nil {
		return Result{}, fmt.Errorf("failed to record preview event: %w", err)
	}

	return result, nil
}

// evaluate is the deterministic core: no I/O, verdict precedence
// blocked > warn > ok.
func (l *Linter) evaluate(spec *rules.RuleSpec, in Input) Result {
	result := Result{
		State:      rules.PolicyStateOK,
		Violations: []string{},
		Warnings:   []string{},
	}

	if spec == nil {
		// Fail open, not closed: absence of data must not silently block
		// users, but must not silently approve either.
		result.State = rules.PolicyStateWarn
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("No posting rules on file for r/%s; review the community rules manually", strings.ToLower(in.Subreddit)))
		return result
	}

	lowerTitle := strings.ToLower(in.Title)
	lowerBody := strings.ToLower(in.Body)

	for _, word := range spec.BannedWords {
		lowerWord := strings.ToLower(word)
		if lowerWord == "" {
			continue
		}
		if strings.Contains(lowerTitle, lowerWord) || strings.Contains(lowerBody, lowerWord) {
			result.Violations = append(result.Violations,
				fmt.Sprintf("Contains banned word '%s'", word))
		}
	}

	result.Violations = append(result.Violations,
		l.matchPatterns(spec.TitleRegexes, in.Title, "title")...)
	result.Violations = append(result.Violations,
		l.matchPatterns(spec.BodyRegexes, in.Body, "body")...)

	switch spec.LinkPolicy {
	case rules.LinkPolicyNoLink:
		if in.HasLink {
			result.Violations = append(result.Violations,
				"Links are not allowed in this community (link policy: no-link)")
		}
	case rules.LinkPolicyOneLink:
		linkCount := len(linkTokenRe.FindAllString(in.Body, -1))
		if linkCount > 1 {
			result.Violations = append(result.Violations,
				fmt.Sprintf("Only one link is allowed in this community, found %d (link policy: one-link)", linkCount))
		} else if linkCount == 1 {
			result.Warnings = append(result.Warnings,
				"This community allows a single link per post (link policy: one-link)")
		}
	}

	if len(spec.RequiredTags) > 0 && !containsAnyTag(in.Title, spec.RequiredTags) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Title is missing a required tag (one of %s)", strings.Join(spec.RequiredTags, ", ")))
	}

	// Limits are in characters, not bytes, matching the preview truncation
	if titleLen := utf8.RuneCountInString(in.Title); spec.MaxTitleLength != nil && titleLen > *spec.MaxTitleLength {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Title exceeds %d characters (%d)", *spec.MaxTitleLength, titleLen))
	}
	if bodyLen := utf8.RuneCountInString(in.Body); spec.MaxBodyLength != nil && bodyLen > *spec.MaxBodyLength {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Body exceeds %d characters (%d)", *spec.MaxBodyLength, bodyLen))
	}

	if len(result.Violations) > 0 {
		result.State = rules.PolicyStateBlocked
	} else if len(result.Warnings) > 0 {
		result.State = rules.PolicyStateWarn
	}

	return result
}

func (l *Linter) matchPatterns(patterns []string, value, field string) []string {
	var violations []string
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			// A stored pattern that no longer compiles is a curation bug,
			// not the poster's problem.
			slog.Warn("Skipping invalid rule pattern", "field", field, "pattern", pattern, "error", err)
			continue
		}
		if re.MatchString(value) {
			violations = append(violations,
				fmt.Sprintf("%s matches flagged pattern '%s'", strings.ToUpper(field[:1])+field[1:], pattern))
		}
	}
	return violations
}

// containsAnyTag checks for literal bracket tokens, case-insensitively.
func containsAnyTag(title string, tags []string) bool {
	lowerTitle := strings.ToLower(title)
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if strings.Contains(lowerTitle, strings.ToLower(tag)) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
