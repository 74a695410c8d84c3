// Package normalize rewrites inbound string fields into their canonical
// form before validation: whitespace trimming, empty-to-null collapsing
// and URL repair for fields named with a URL suffix.
package normalize

import (
	"sort"
	"strings"

	"github.com/safqa-app/safqagate/internal/model"
)

// Rules configures field normalization. URLSuffixes decides which field
// names get URL repair, matched case-insensitively against the end of
// the name.
type Rules struct {
	URLSuffixes []string
}

// DefaultRules repairs fields ending in "url" (website_url, social_url,
// plain url).
func DefaultRules() Rules {
	return Rules{URLSuffixes: []string{"url"}}
}

// IsURLField reports whether a field name is subject to URL repair.
func (r Rules) IsURLField(name string) bool {
	n := strings.ToLower(name)
	for _, suffix := range r.URLSuffixes {
		if strings.HasSuffix(n, suffix) {
			return true
		}
	}
	return false
}

// Apply returns a normalized copy of fields plus one delta per changed
// field, ordered by field name. The input map is never mutated, and
// non-string values pass through untouched. Applying the result again
// yields no further deltas.
func Apply(rules Rules, fields map[string]any) (map[string]any, []model.Delta) {
	out := make(map[string]any, len(fields))
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var deltas []model.Delta
	for _, name := range names {
		value := fields[name]
		s, ok := value.(string)
		if !ok {
			out[name] = value
			continue
		}
		normalized, null := normalizeString(rules, name, s)
		if null {
			out[name] = nil
			deltas = append(deltas, model.Delta{Field: name, From: s, To: nil})
			continue
		}
		out[name] = normalized
		if normalized != s {
			deltas = append(deltas, model.Delta{Field: name, From: s, To: normalized})
		}
	}
	return out, deltas
}

func normalizeString(rules Rules, name, s string) (value string, null bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", true
	}
	if rules.IsURLField(name) {
		trimmed = repairURL(trimmed)
	}
	return trimmed, false
}

// repairURL applies the prefix rules in order; anything it cannot
// classify is left for the validator to flag.
func repairURL(s string) string {
	switch {
	case strings.Contains(s, "://"):
		return s
	case strings.HasPrefix(s, "www."):
		return "https://" + s
	case s[0] >= '0' && s[0] <= '9':
		return "https://www." + s
	case strings.Contains(s, "."):
		return "https://" + s
	default:
		return s
	}
}
