// Package validate checks normalized request fields against a route's
// declared profile. Every rule runs and every finding is collected; a
// single bad field never hides the others.
package validate

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/safqa-app/safqagate/internal/model"
	"github.com/safqa-app/safqagate/internal/registry"
)

// Profile declares what gets checked for one route. LargeText maps a
// field name to its maximum length in characters.
type Profile struct {
	Required       []string       `json:"required,omitempty"`
	URLFields      []string       `json:"url_fields,omitempty"`
	RegistryFields []string       `json:"registry_fields,omitempty"`
	LargeText      map[string]int `json:"large_text,omitempty"`
}

// MustValidate reports whether the profile carries any rule at all.
// Routes without rules pass the gate untouched.
func (p Profile) MustValidate() bool {
	return len(p.Required)+len(p.URLFields)+len(p.RegistryFields)+len(p.LargeText) > 0
}

// Evaluate runs the profile against normalized fields using one registry
// snapshot for the whole pass. The result is never nil and lists
// findings in rule order: required, URLs, registry choices, large text.
func Evaluate(p Profile, fields map[string]any, snap *registry.Snapshot) []model.Diagnostic {
	diagnostics := []model.Diagnostic{}
	missing := map[string]bool{}

	for _, field := range p.Required {
		if isEmpty(fields[field]) {
			diagnostics = append(diagnostics, MissingField(field))
			missing[field] = true
		}
	}

	for _, field := range p.URLFields {
		value, ok := fields[field].(string)
		if !ok || value == "" {
			continue
		}
		if reason, bad := urlFailure(value); bad {
			diagnostics = append(diagnostics, InvalidURL(field, reason))
		}
	}

	for _, field := range p.RegistryFields {
		value := fields[field]
		if isEmpty(value) {
			// An empty bound field is a missing field, never a bad choice.
			if !missing[field] {
				diagnostics = append(diagnostics, MissingField(field))
				missing[field] = true
			}
			continue
		}
		received := stringify(value)
		if !snap.Contains(field, received) {
			allowed, _ := snap.Allowed(field)
			diagnostics = append(diagnostics, InvalidChoice(field, received, allowed))
		}
	}

	largeFields := make([]string, 0, len(p.LargeText))
	for field := range p.LargeText {
		largeFields = append(largeFields, field)
	}
	sort.Strings(largeFields)
	for _, field := range largeFields {
		value, ok := fields[field].(string)
		if !ok {
			continue
		}
		limit := p.LargeText[field]
		if length := utf8.RuneCountInString(value); length > limit {
			diagnostics = append(diagnostics, TooLarge(field, limit, length))
		}
	}

	return diagnostics
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// urlFailure checks a normalized URL value. Parse errors and forbidden
// characters (whitespace, quotes, backslash) are invalid_characters;
// otherwise a missing scheme or empty host is reported.
func urlFailure(value string) (reason string, bad bool) {
	u, err := url.Parse(value)
	if err != nil {
		return model.URLReasonInvalidChars, true
	}
	if u.Scheme == "" {
		return model.URLReasonMissingScheme, true
	}
	if u.Host == "" {
		return model.URLReasonEmptyHost, true
	}
	if strings.ContainsAny(value, " \t\n\"'\\") {
		return model.URLReasonInvalidChars, true
	}
	return "", false
}
