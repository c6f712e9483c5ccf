package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/a1davida1/TPilot-sub011/app/rules"
)

// Heuristic extractors over free rule text. Each takes raw text and returns
// a typed value, never an error: ambiguous or missing signals leave fields
// empty/unknown, which the linter later surfaces as warn-level behavior.

const maxWikiNotes = 10

var (
	bannedListRe = regexp.MustCompile(`(?i)(?:banned|not allowed|prohibited|forbidden)\s*:\s*([^.\n]+)`)
	bracketTagRe = regexp.MustCompile(`\[([^\[\]]{1,20})\]`)

	minKarmaRe         = regexp.MustCompile(`(?i)(?:minimum|min\.?|at least|requires?)[^0-9\n]{0,30}(\d{1,6})[^0-9\n]{0,30}karma`)
	karmaFallbackRe    = regexp.MustCompile(`(?i)(\d{1,6})\s*\+?\s*(?:comment\s+|post\s+|combined\s+)?karma`)
	accountAgeRe       = regexp.MustCompile(`(?i)account[^0-9\n]{0,60}(\d{1,4})\s*\+?\s*(day|month|year)s?`)
	ageBeforeAccountRe = regexp.MustCompile(`(?i)(\d{1,4})\s*\+?\s*(day|month|year)s?[^.\n]{0,30}(?:account|old)`)
)

// ExtractBannedWords pulls comma/semicolon-separated terms following
// "banned:", "not allowed:" and similar phrases.
func ExtractBannedWords(text string) []string {
	var words []string
	for _, match := range bannedListRe.FindAllStringSubmatch(text, -1) {
		for _, term := range strings.FieldsFunc(match[1], func(r rune) bool {
			return r == ',' || r == ';'
		}) {
			words = append(words, strings.TrimSpace(term))
		}
	}
	return dedupeFold(words)
}

// ExtractLinkPolicy classifies a link-related rule. Returns unknown when
// the text never mentions links at all.
func ExtractLinkPolicy(text string) rules.LinkPolicy {
	lower := strings.ToLower(text)

	noLinkPhrases := []string{"no link", "no links", "links are not allowed", "do not post links", "don't post links"}
	for _, phrase := range noLinkPhrases {
		if strings.Contains(lower, phrase) {
			return rules.LinkPolicyNoLink
		}
	}

	oneLinkPhrases := []string{"one link", "single link", "1 link"}
	for _, phrase := range oneLinkPhrases {
		if strings.Contains(lower, phrase) {
			return rules.LinkPolicyOneLink
		}
	}

	if strings.Contains(lower, "link") {
		return rules.LinkPolicyOK
	}

	return rules.LinkPolicyUnknown
}

// ExtractFlairRequired detects "required" phrasing near flair/tag mentions.
func ExtractFlairRequired(text string) bool {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "flair") && !strings.Contains(lower, "tag") {
		return false
	}
	return strings.Contains(lower, "required") || strings.Contains(lower, "must")
}

// ExtractBracketTags collects [X]-style tokens as literal bracket tags.
func ExtractBracketTags(text string) []string {
	var tags []string
	for _, match := range bracketTagRe.FindAllStringSubmatch(text, -1) {
		tags = append(tags, "["+strings.TrimSpace(match[1])+"]")
	}
	return dedupeFold(tags)
}

// ExtractLengthLimit finds a numeric limit attached to the given field
// ("title" or "body"), accepting both "title max 100" and "max title
// length: 100" orderings.
func ExtractLengthLimit(text, field string) *int {
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?i)` + field + `[^0-9\n]{0,40}(?:max(?:imum)?|limit)[^0-9\n]{0,20}(\d{1,5})`),
		regexp.MustCompile(`(?i)(?:max(?:imum)?|limit)[^0-9\n]{0,20}` + field + `[^0-9\n]{0,20}(\d{1,5})`),
	}

	for _, re := range patterns {
		if match := re.FindStringSubmatch(text); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil && n > 0 {
				return &n
			}
		}
	}
	return nil
}

// ExtractMinKarma finds a minimum-karma threshold in wiki text.
func ExtractMinKarma(text string) *int {
	for _, re := range []*regexp.Regexp{minKarmaRe, karmaFallbackRe} {
		if match := re.FindStringSubmatch(text); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil && n > 0 {
				return &n
			}
		}
	}
	return nil
}

// ExtractMinAccountAgeDays finds an account-age requirement and normalizes
// it to days (months x30, years x365).
func ExtractMinAccountAgeDays(text string) *int {
	for _, re := range []*regexp.Regexp{accountAgeRe, ageBeforeAccountRe} {
		match := re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil || n <= 0 {
			continue
		}
		switch strings.ToLower(match[2]) {
		case "month":
			n *= 30
		case "year":
			n *= 365
		}
		return &n
	}
	return nil
}

// ExtractVerificationRequired reports whether the text mentions verification.
func ExtractVerificationRequired(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "verification") || strings.Contains(lower, "verified")
}

// ExtractWikiNotes retains lines mentioning karma, account age or
// verification verbatim for human review, capped at maxWikiNotes.
func ExtractWikiNotes(text string) []string {
	keywords := []string{"karma", "account age", "account must", "days old", "verification", "verified"}

	var notes []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		lower := strings.ToLower(trimmed)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				notes = append(notes, trimmed)
				break
			}
		}

		if len(notes) == maxWikiNotes {
			break
		}
	}

	return dedupeFold(notes)
}

// BuildAutomatedBase compiles both raw sources into an automated RuleSpec
// with no overrides attached. Empty sources yield an empty base; that is
// not an error.
func BuildAutomatedBase(community string, rawRules []RawRule, wiki string) rules.RuleSpec {
	spec := rules.RuleSpec{
		Subreddit:  strings.ToLower(community),
		LinkPolicy: rules.LinkPolicyUnknown,
	}

	for _, rule := range rawRules {
		text := rule.Name + " " + rule.Description

		spec.BannedWords = append(spec.BannedWords, ExtractBannedWords(text)...)
		spec.RequiredTags = append(spec.RequiredTags, ExtractBracketTags(text)...)

		if policy := ExtractLinkPolicy(text); policy != rules.LinkPolicyUnknown {
			spec.LinkPolicy = strictestLinkPolicy(spec.LinkPolicy, policy)
		}
		if ExtractFlairRequired(text) {
			spec.FlairRequired = true
		}
		if spec.MaxTitleLength == nil {
			spec.MaxTitleLength = ExtractLengthLimit(text, "title")
		}
		if spec.MaxBodyLength == nil {
			spec.MaxBodyLength = ExtractLengthLimit(text, "body")
		}
	}

	if wiki != "" {
		spec.WikiNotes = ExtractWikiNotes(wiki)
		spec.ManualFlags = rules.ManualFlags{
			MinKarma:             ExtractMinKarma(wiki),
			MinAccountAgeDays:    ExtractMinAccountAgeDays(wiki),
			VerificationRequired: ExtractVerificationRequired(wiki),
		}
	}

	spec.BannedWords = dedupeFold(spec.BannedWords)
	spec.RequiredTags = dedupeFold(spec.RequiredTags)

	return spec
}

// strictestLinkPolicy keeps the most restrictive signal seen across rules.
func strictestLinkPolicy(current, candidate rules.LinkPolicy) rules.LinkPolicy {
	rank := map[rules.LinkPolicy]int{
		rules.LinkPolicyUnknown: 0,
		rules.LinkPolicyOK:      1,
		rules.LinkPolicyOneLink: 2,
		rules.LinkPolicyNoLink:  3,
	}
	if rank[candidate] > rank[current] {
		return candidate
	}
	return current
}

// dedupeFold removes case-insensitive duplicates and empty strings while
// preserving first-seen order.
func dedupeFold(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(values))
	var result []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, v)
	}
	return result
}
