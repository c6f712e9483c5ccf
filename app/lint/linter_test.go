package lint

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/a1davida1/TPilot-sub011/app/database"
	"github.com/a1davida1/TPilot-sub011/app/rules"
)

func intPtr(n int) *int { return &n }

// fakeRuleRepo serves one spec per community
type fakeRuleRepo struct {
	specs  map[string]*rules.RuleSpec
	getErr error
}

func (f *fakeRuleRepo) GetRuleSpec(name string) (*rules.RuleSpec, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.specs[strings.ToLower(name)], nil
}

func (f *fakeRuleRepo) UpsertRuleSpec(name string, spec rules.RuleSpec) error     { return nil }
func (f *fakeRuleRepo) RegisterCommunity(name string) error                       { return nil }
func (f *fakeRuleRepo) UpdateNextSync(name string, nextSync time.Time) error      { return nil }
func (f *fakeRuleRepo) GetCommunitiesDueForSync(limit int) ([]string, error)      { return nil, nil }
func (f *fakeRuleRepo) ListCommunities() ([]database.Community, error)            { return nil, nil }
func (f *fakeRuleRepo) GetCommunityCount() (int, error)                           { return 0, nil }

// fakeEventRepo records inserted events
type fakeEventRepo struct {
	events    []database.PreviewEvent
	insertErr error
}

func (f *fakeEventRepo) InsertPreviewEvent(ev database.PreviewEvent) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEventRepo) CountPreviewEvents(userID string, since time.Time, state rules.PolicyState) (int, error) {
	return 0, nil
}
func (f *fakeEventRepo) GetRecentEvents(userID string, limit int) ([]database.PreviewEvent, error) {
	return nil, nil
}
func (f *fakeEventRepo) GetEventCount() (int, error)                      { return 0, nil }
func (f *fakeEventRepo) DeleteEventsBefore(cutoff time.Time) (int64, error) { return 0, nil }

func newTestLinter(specs map[string]*rules.RuleSpec) (*Linter, *fakeEventRepo) {
	eventRepo := &fakeEventRepo{}
	return NewLinter(&fakeRuleRepo{specs: specs}, eventRepo), eventRepo
}

func TestLintMissingSubreddit(t *testing.T) {
	linter, events := newTestLinter(nil)

	_, err := linter.Run(context.Background(), Input{UserID: "u1", Title: "Hello"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
	if len(events.events) != 0 {
		t.Error("Validation failures must not write events")
	}
}

func TestLintNoRulesOnFile(t *testing.T) {
	linter, events := newTestLinter(map[string]*rules.RuleSpec{})

	result, err := linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "unknownsub",
		Title:     "Hello",
	})
	if err != nil {
		t.Fatal(err)
	}

	// Fail open as warn, never silently ok or blocked
	if result.State != rules.PolicyStateWarn {
		t.Errorf("Expected warn for missing rules, got %s", result.State)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("Expected exactly one warning, got %v", result.Warnings)
	}
	if len(result.Violations) != 0 {
		t.Errorf("Expected no violations, got %v", result.Violations)
	}
	if len(events.events) != 1 {
		t.Fatal("Expected a preview event recorded")
	}
}

func TestLintBannedWordBlocks(t *testing.T) {
	linter, events := newTestLinter(map[string]*rules.RuleSpec{
		"testsub": {
			Subreddit:   "testsub",
			BannedWords: []string{"onlyfans"},
		},
	})

	result, err := linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Title:     "Check my OnlyFans page",
		Body:      "clean body",
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.State != rules.PolicyStateBlocked {
		t.Errorf("Expected blocked, got %s", result.State)
	}
	if len(result.Violations) != 1 || !strings.Contains(result.Violations[0], "onlyfans") {
		t.Errorf("Expected violation naming the banned word, got %v", result.Violations)
	}

	if events.events[0].PolicyState != rules.PolicyStateBlocked {
		t.Errorf("Expected blocked event, got %s", events.events[0].PolicyState)
	}
}

func TestLintNoLinkPolicyScenario(t *testing.T) {
	// gonewild: bannedWords=["spam"], linkPolicy=no-link; post has a link
	// but no literal banned-word match
	linter, _ := newTestLinter(map[string]*rules.RuleSpec{
		"gonewild": {
			Subreddit:   "gonewild",
			BannedWords: []string{"spam"},
			LinkPolicy:  rules.LinkPolicyNoLink,
		},
	})

	result, err := linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "gonewild",
		Title:     "Check this out",
		Body:      "no sp_m here",
		HasLink:   true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.State != rules.PolicyStateBlocked {
		t.Fatalf("Expected blocked, got %s", result.State)
	}
	if len(result.Violations) != 1 {
		t.Fatalf("Expected exactly the link violation, got %v", result.Violations)
	}
	// The violation names the link policy rule, not a generic message
	if !strings.Contains(result.Violations[0], "no-link") {
		t.Errorf("Expected violation to name the link policy, got %s", result.Violations[0])
	}
}

func TestLintOneLinkPolicy(t *testing.T) {
	specs := map[string]*rules.RuleSpec{
		"testsub": {
			Subreddit:  "testsub",
			LinkPolicy: rules.LinkPolicyOneLink,
		},
	}

	linter, _ := newTestLinter(specs)

	// Two links: blocked
	result, err := linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Body:      "see https://a.example.com and https://b.example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.State != rules.PolicyStateBlocked {
		t.Errorf("Expected blocked for two links, got %s", result.State)
	}

	// Exactly one link: warn
	result, err = linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Body:      "see https://a.example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.State != rules.PolicyStateWarn {
		t.Errorf("Expected warn for one link, got %s", result.State)
	}

	// No links: ok
	result, err = linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Body:      "no links at all",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.State != rules.PolicyStateOK {
		t.Errorf("Expected ok without links, got %s", result.State)
	}
}

func TestLintRegexPatterns(t *testing.T) {
	linter, _ := newTestLinter(map[string]*rules.RuleSpec{
		"testsub": {
			Subreddit:    "testsub",
			TitleRegexes: []string{`(?i)\bDM me\b`},
			BodyRegexes:  []string{`(?i)cashapp`, `[invalid`},
		},
	})

	result, err := linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Title:     "dm me for content",
		Body:      "pay via CashApp",
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.State != rules.PolicyStateBlocked {
		t.Errorf("Expected blocked, got %s", result.State)
	}
	// Invalid stored pattern is skipped, the two valid ones match
	if len(result.Violations) != 2 {
		t.Errorf("Expected 2 violations, got %v", result.Violations)
	}
}

func TestLintRequiredTagWarns(t *testing.T) {
	specs := map[string]*rules.RuleSpec{
		"testsub": {
			Subreddit:    "testsub",
			RequiredTags: []string{"[F]", "[M]"},
		},
	}

	linter, _ := newTestLinter(specs)

	result, err := linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Title:     "My first post",
	})
	if err != nil {
		t.Fatal(err)
	}
	// Missing tag is advisory, not a hard block
	if result.State != rules.PolicyStateWarn {
		t.Errorf("Expected warn for missing tag, got %s", result.State)
	}

	result, err = linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Title:     "[f] My first post",
	})
	if err != nil {
		t.Fatal(err)
	}
	// Tag matching is case-insensitive
	if result.State != rules.PolicyStateOK {
		t.Errorf("Expected ok with tag present, got %s", result.State)
	}
}

func TestLintLengthLimitsWarn(t *testing.T) {
	linter, _ := newTestLinter(map[string]*rules.RuleSpec{
		"testsub": {
			Subreddit:      "testsub",
			MaxTitleLength: intPtr(10),
			MaxBodyLength:  intPtr(20),
		},
	})

	result, err := linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Title:     "This title is far too long",
		Body:      strings.Repeat("x", 30),
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.State != rules.PolicyStateWarn {
		t.Errorf("Expected warn, got %s", result.State)
	}
	if len(result.Warnings) != 2 {
		t.Errorf("Expected 2 length warnings, got %v", result.Warnings)
	}
}

func TestLintLengthLimitsCountRunes(t *testing.T) {
	linter, _ := newTestLinter(map[string]*rules.RuleSpec{
		"testsub": {
			Subreddit:      "testsub",
			MaxTitleLength: intPtr(10),
		},
	})

	// 8 characters but 16 bytes; within the limit
	result, err := linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Title:     "éééééééé",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.State != rules.PolicyStateOK {
		t.Errorf("Expected multibyte title within limit to pass, got %s with %v", result.State, result.Warnings)
	}

	// 12 characters; over the limit
	result, err = linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Title:     "éééééééééééé",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.State != rules.PolicyStateWarn {
		t.Errorf("Expected overlong title to warn, got %s", result.State)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "(12)") {
		t.Errorf("Expected warning to report the character count, got %v", result.Warnings)
	}
}

func TestLintVerdictPrecedence(t *testing.T) {
	// A blocking violation wins regardless of simultaneous warn conditions
	linter, _ := newTestLinter(map[string]*rules.RuleSpec{
		"testsub": {
			Subreddit:      "testsub",
			BannedWords:    []string{"spam"},
			RequiredTags:   []string{"[F]"},
			MaxTitleLength: intPtr(5),
		},
	})

	result, err := linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Title:     "buy my spam collection",
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.State != rules.PolicyStateBlocked {
		t.Errorf("Expected blocked to win over warnings, got %s", result.State)
	}
	if len(result.Warnings) == 0 {
		t.Error("Expected warn conditions still reported alongside the block")
	}
}

func TestLintEventPreviewTruncated(t *testing.T) {
	linter, events := newTestLinter(map[string]*rules.RuleSpec{
		"testsub": {Subreddit: "testsub"},
	})

	longTitle := strings.Repeat("t", 500)
	longBody := strings.Repeat("b", 500)

	_, err := linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Title:     longTitle,
		Body:      longBody,
	})
	if err != nil {
		t.Fatal(err)
	}

	ev := events.events[0]
	if len(ev.TitlePreview) != titlePreviewLength {
		t.Errorf("Expected title preview truncated to %d, got %d", titlePreviewLength, len(ev.TitlePreview))
	}
	if len(ev.BodyPreview) != bodyPreviewLength {
		t.Errorf("Expected body preview truncated to %d, got %d", bodyPreviewLength, len(ev.BodyPreview))
	}
	if ev.UserID != "u1" || ev.Subreddit != "testsub" {
		t.Error("Expected event to carry user and subreddit")
	}
}

func TestLintEventWriteFailureFailsCall(t *testing.T) {
	eventRepo := &fakeEventRepo{insertErr: errors.New("database locked")}
	linter := NewLinter(&fakeRuleRepo{specs: map[string]*rules.RuleSpec{
		"testsub": {Subreddit: "testsub"},
	}}, eventRepo)

	_, err := linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
		Title:     "Hello",
	})
	if err == nil {
		t.Error("Expected event write failure to fail the lint call")
	}
}

func TestLintRuleStoreErrorPropagates(t *testing.T) {
	linter := NewLinter(&fakeRuleRepo{getErr: errors.New("database locked")}, &fakeEventRepo{})

	_, err := linter.Run(context.Background(), Input{
		UserID:    "u1",
		Subreddit: "testsub",
	})
	if err == nil {
		t.Error("Expected rule store error to propagate")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Error("Store errors are not client errors")
	}
}
