package rules

import (
	"testing"
)

func TestBuildCommunityViewDefaults(t *testing.T) {
	// All-null automated fields fall back to system defaults
	view := BuildCommunityView(RuleSpec{Subreddit: "gonewild"})

	if view.Subreddit != "gonewild" {
		t.Errorf("Expected subreddit 'gonewild', got '%s'", view.Subreddit)
	}
	if view.Eligibility.MinKarma != 0 {
		t.Errorf("Expected default min karma 0, got %d", view.Eligibility.MinKarma)
	}
	if view.Eligibility.MinAccountAgeDays != 0 {
		t.Errorf("Expected default min account age 0, got %d", view.Eligibility.MinAccountAgeDays)
	}
	if view.Eligibility.VerificationRequired {
		t.Error("Expected default verification requirement false")
	}
	if view.Policy.LinkPolicy != LinkPolicyUnknown {
		t.Errorf("Expected default link policy 'unknown', got '%s'", view.Policy.LinkPolicy)
	}
	if view.Policy.MaxTitleLength != DefaultMaxTitleLength {
		t.Errorf("Expected default max title length %d, got %d", DefaultMaxTitleLength, view.Policy.MaxTitleLength)
	}
	if view.Policy.MaxBodyLength != DefaultMaxBodyLength {
		t.Errorf("Expected default max body length %d, got %d", DefaultMaxBodyLength, view.Policy.MaxBodyLength)
	}
}

func TestBuildCommunityViewPopulated(t *testing.T) {
	spec := RuleSpec{
		Subreddit:      "testsub",
		BannedWords:    []string{"spam", "promo"},
		LinkPolicy:     LinkPolicyNoLink,
		FlairRequired:  true,
		RequiredTags:   []string{"[F]"},
		MaxTitleLength: intPtr(120),
		ManualFlags: ManualFlags{
			MinKarma:             intPtr(250),
			MinAccountAgeDays:    intPtr(90),
			VerificationRequired: true,
			Notes:                []string{"Verification via r/GetVerified"},
		},
		WikiNotes: []string{"Minimum 250 karma required"},
	}

	view := BuildCommunityView(spec)

	if view.DisplayName != "r/Testsub" {
		t.Errorf("Expected display name 'r/Testsub', got '%s'", view.DisplayName)
	}
	if view.Eligibility.MinKarma != 250 {
		t.Errorf("Expected min karma 250, got %d", view.Eligibility.MinKarma)
	}
	if view.Eligibility.MinAccountAgeDays != 90 {
		t.Errorf("Expected min account age 90, got %d", view.Eligibility.MinAccountAgeDays)
	}
	if !view.Eligibility.VerificationRequired {
		t.Error("Expected verification requirement")
	}
	if view.Policy.LinkPolicy != LinkPolicyNoLink {
		t.Errorf("Expected link policy 'no-link', got '%s'", view.Policy.LinkPolicy)
	}
	if view.Policy.BannedWords != 2 {
		t.Errorf("Expected banned word count 2, got %d", view.Policy.BannedWords)
	}
	if view.Policy.MaxTitleLength != 120 {
		t.Errorf("Expected max title length 120, got %d", view.Policy.MaxTitleLength)
	}
	if len(view.Notes) != 2 {
		t.Errorf("Expected 2 notes (manual + wiki), got %d", len(view.Notes))
	}
}
