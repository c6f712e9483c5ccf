package rules

import (
	"time"
)

// LinkPolicy describes a community's tolerance for promotional links.
type LinkPolicy string

const (
	LinkPolicyNoLink  LinkPolicy = "no-link"
	LinkPolicyOneLink LinkPolicy = "one-link"
	LinkPolicyOK      LinkPolicy = "ok"
	LinkPolicyUnknown LinkPolicy = "unknown"
)

func (p LinkPolicy) Valid() bool {
	switch p {
	case LinkPolicyNoLink, LinkPolicyOneLink, LinkPolicyOK, LinkPolicyUnknown:
		return true
	}
	return false
}

// PolicyState is the linter's three-valued verdict for a candidate post.
type PolicyState string

const (
	PolicyStateOK      PolicyState = "ok"
	PolicyStateWarn    PolicyState = "warn"
	PolicyStateBlocked PolicyState = "blocked"
)

// RuleSpec is the compiled constraint set for one community, keyed by
// lowercase community name. The persisted RuleSpec is always the automated
// base with Overrides already applied; Source.AutomatedBase retains the
// pre-override state so a re-sync can recompute automation without losing
// curator intent. The JSON shape is a stable contract.
type RuleSpec struct {
	Subreddit      string      `json:"subreddit"`
	BannedWords    []string    `json:"bannedWords,omitempty"`
	TitleRegexes   []string    `json:"titleRegexes,omitempty"`
	BodyRegexes    []string    `json:"bodyRegexes,omitempty"`
	LinkPolicy     LinkPolicy  `json:"linkPolicy"`
	FlairRequired  bool        `json:"flairRequired"`
	RequiredTags   []string    `json:"requiredTags,omitempty"`
	MaxTitleLength *int        `json:"maxTitleLength,omitempty"`
	MaxBodyLength  *int        `json:"maxBodyLength,omitempty"`
	ManualFlags    ManualFlags `json:"manualFlags"`
	WikiNotes      []string    `json:"wikiNotes,omitempty"`
	Overrides      *Override   `json:"overrides,omitempty"`
	Source         Source      `json:"source"`
}

// ManualFlags holds attributes not reliably derivable from free rule text,
// populated by curators or heuristic wiki extraction.
type ManualFlags struct {
	MinKarma             *int     `json:"minKarma,omitempty" yaml:"min_karma"`
	MinAccountAgeDays    *int     `json:"minAccountAgeDays,omitempty" yaml:"min_account_age_days"`
	VerificationRequired bool     `json:"verificationRequired" yaml:"verification_required"`
	Notes                []string `json:"notes,omitempty" yaml:"notes"`
}

// Source records ingestion provenance. AutomatedBase carries no Overrides
// and no nested Source.
type Source struct {
	FetchedAt     time.Time `json:"fetchedAt"`
	AutomatedBase *RuleSpec `json:"automatedBase,omitempty"`
}

// Override is a curator-supplied partial RuleSpec. A nil pointer or nil
// slice means "not overridden"; see ApplyOverrides for merge semantics.
type Override struct {
	BannedWords    []string     `json:"bannedWords,omitempty" yaml:"banned_words"`
	TitleRegexes   []string     `json:"titleRegexes,omitempty" yaml:"title_regexes"`
	BodyRegexes    []string     `json:"bodyRegexes,omitempty" yaml:"body_regexes"`
	LinkPolicy     *LinkPolicy  `json:"linkPolicy,omitempty" yaml:"link_policy"`
	FlairRequired  *bool        `json:"flairRequired,omitempty" yaml:"flair_required"`
	RequiredTags   []string     `json:"requiredTags,omitempty" yaml:"required_tags"`
	MaxTitleLength *int         `json:"maxTitleLength,omitempty" yaml:"max_title_length"`
	MaxBodyLength  *int         `json:"maxBodyLength,omitempty" yaml:"max_body_length"`
	ManualFlags    *ManualFlags `json:"manualFlags,omitempty" yaml:"manual_flags"`
	WikiNotes      []string     `json:"wikiNotes,omitempty" yaml:"wiki_notes"`
}

// IsEmpty reports whether no field of the override is set.
func (o *Override) IsEmpty() bool {
	if o == nil {
		return true
	}
	return o.BannedWords == nil && o.TitleRegexes == nil && o.BodyRegexes == nil &&
		o.LinkPolicy == nil && o.FlairRequired == nil && o.RequiredTags == nil &&
		o.MaxTitleLength == nil && o.MaxBodyLength == nil && o.ManualFlags == nil &&
		o.WikiNotes == nil
}
