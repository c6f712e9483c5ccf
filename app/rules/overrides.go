package rules

// ApplyOverrides merges curated overrides onto an automated base and returns
// the effective RuleSpec. The merge is shallow and field-level: every field
// set in the override replaces the automated value wholesale, absent fields
// fall through to the base.
//
// Array fields are replaced, never unioned. Overriding bannedWords with a
// shorter list drops the automated entries on purpose: once a curator owns
// a field they own all of it, and a union would reintroduce words a curator
// deliberately removed. Callers wanting additive behavior must copy the
// automated values into the override themselves.
func ApplyOverrides(base RuleSpec, o *Override) RuleSpec {
	spec := base

	if o == nil {
		return spec
	}

	if o.BannedWords != nil {
		spec.BannedWords = o.BannedWords
	}
	if o.TitleRegexes != nil {
		spec.TitleRegexes = o.TitleRegexes
	}
	if o.BodyRegexes != nil {
		spec.BodyRegexes = o.BodyRegexes
	}
	if o.LinkPolicy != nil {
		spec.LinkPolicy = *o.LinkPolicy
	}
	if o.FlairRequired != nil {
		spec.FlairRequired = *o.FlairRequired
	}
	if o.RequiredTags != nil {
		spec.RequiredTags = o.RequiredTags
	}
	if o.MaxTitleLength != nil {
		spec.MaxTitleLength = o.MaxTitleLength
	}
	if o.MaxBodyLength != nil {
		spec.MaxBodyLength = o.MaxBodyLength
	}
	if o.ManualFlags != nil {
		spec.ManualFlags = *o.ManualFlags
	}
	if o.WikiNotes != nil {
		spec.WikiNotes = o.WikiNotes
	}

	return spec
}
