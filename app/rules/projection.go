package rules

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CommunityView is the denormalized read-model consumed by the posting UI:
// eligibility thresholds, content policy flags, and human-facing notes.
type CommunityView struct {
	Subreddit   string      `json:"subreddit"`
	DisplayName string      `json:"displayName"`
	Eligibility Eligibility `json:"eligibility"`
	Policy      PolicyFlags `json:"policy"`
	Notes       []string    `json:"notes,omitempty"`
}

type Eligibility struct {
	MinKarma             int  `json:"minKarma"`
	MinAccountAgeDays    int  `json:"minAccountAgeDays"`
	VerificationRequired bool `json:"verificationRequired"`
}

type PolicyFlags struct {
	LinkPolicy     LinkPolicy `json:"linkPolicy"`
	FlairRequired  bool       `json:"flairRequired"`
	RequiredTags   []string   `json:"requiredTags,omitempty"`
	BannedWords    int        `json:"bannedWordCount"`
	MaxTitleLength int        `json:"maxTitleLength"`
	MaxBodyLength  int        `json:"maxBodyLength"`
}

// System defaults applied when automated extraction produced nothing.
const (
	DefaultMaxTitleLength = 300
	DefaultMaxBodyLength  = 40000
)

var titleCaser = cases.Title(language.English)

// BuildCommunityView projects a RuleSpec into the community read-model.
// Pure function of the spec; all-null automated fields fall back to the
// system defaults above.
func BuildCommunityView(spec RuleSpec) CommunityView {
	view := CommunityView{
		Subreddit:   spec.Subreddit,
		DisplayName: "r/" + titleCaser.String(spec.Subreddit),
		Eligibility: Eligibility{
			VerificationRequired: spec.ManualFlags.VerificationRequired,
		},
		Policy: PolicyFlags{
			LinkPolicy:     spec.LinkPolicy,
			FlairRequired:  spec.FlairRequired,
			RequiredTags:   spec.RequiredTags,
			BannedWords:    len(spec.BannedWords),
			MaxTitleLength: DefaultMaxTitleLength,
			MaxBodyLength:  DefaultMaxBodyLength,
		},
	}

	if view.Policy.LinkPolicy == "" {
		view.Policy.LinkPolicy = LinkPolicyUnknown
	}
	if spec.ManualFlags.MinKarma != nil {
		view.Eligibility.MinKarma = *spec.ManualFlags.MinKarma
	}
	if spec.ManualFlags.MinAccountAgeDays != nil {
		view.Eligibility.MinAccountAgeDays = *spec.ManualFlags.MinAccountAgeDays
	}
	if spec.MaxTitleLength != nil {
		view.Policy.MaxTitleLength = *spec.MaxTitleLength
	}
	if spec.MaxBodyLength != nil {
		view.Policy.MaxBodyLength = *spec.MaxBodyLength
	}

	view.Notes = append(view.Notes, spec.ManualFlags.Notes...)
	view.Notes = append(view.Notes, spec.WikiNotes...)

	return view
}
