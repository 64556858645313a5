package services

import (
	"regexp"
	"strings"

	"songfetch/types"
)

const invalidReferenceReason = "Invalid URL"

var referenceSeparator = regexp.MustCompile(`[,\s]+`)

// referenceRules are tried in order; the first match wins
var referenceRules = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/|youtube\.com/shorts/|music\.youtube\.com/watch\?v=)([^&\n?#]+)`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
}

// ParseReferences splits pasted text into references and validates each one.
// It has no state, so the same text always yields the same result.
func ParseReferences(text string) []types.ParsedReference {
	tokens := referenceSeparator.Split(text, -1)

	refs := make([]types.ParsedReference, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		refs = append(refs, parseReference(token))
	}
	return refs
}

func parseReference(token string) types.ParsedReference {
	for _, rule := range referenceRules {
		if m := rule.FindStringSubmatch(token); m != nil {
			return types.ParsedReference{
				SourceText:  token,
				CanonicalID: m[1],
				Valid:       true,
			}
		}
	}
	return types.ParsedReference{
		SourceText:  token,
		Valid:       false,
		ErrorReason: invalidReferenceReason,
	}
}

// ValidReferences drops every invalid reference, keeping input order
func ValidReferences(refs []types.ParsedReference) []types.ParsedReference {
	valid := make([]types.ParsedReference, 0, len(refs))
	for _, ref := range refs {
		if ref.Valid && strings.TrimSpace(ref.CanonicalID) != "" {
			valid = append(valid, ref)
		}
	}
	return valid
}
