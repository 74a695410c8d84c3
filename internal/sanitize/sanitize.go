package sanitize

import "strings"

// Marker replaces every redacted value.
const Marker = "[REDACTED]"

// DefaultDenyList matches credential-bearing key names that must never
// reach a log sink. Matching is case-insensitive on substrings.
var DefaultDenyList = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"cookie",
	"csrf",
}

// Sanitizer produces redacted copies of request payloads. It never
// mutates its input.
type Sanitizer struct {
	deny []string
}

// New builds a Sanitizer matching DefaultDenyList plus any extra key
// names. The built-in entries always stay in force.
func New(extra []string) *Sanitizer {
	s := &Sanitizer{deny: make([]string, 0, len(DefaultDenyList)+len(extra))}
	for _, d := range DefaultDenyList {
		s.deny = append(s.deny, strings.ToLower(d))
	}
	for _, d := range extra {
		s.deny = append(s.deny, strings.ToLower(d))
	}
	return s
}

// Sensitive reports whether a key name matches the deny list.
func (s *Sanitizer) Sensitive(key string) bool {
	k := strings.ToLower(key)
	for _, d := range s.deny {
		if strings.Contains(k, d) {
			return true
		}
	}
	return false
}

// Clean returns a redacted deep copy of payload. Values under matching
// keys are replaced whole, containers are walked recursively, and every
// other value passes through untouched.
func (s *Sanitizer) Clean(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if s.Sensitive(k) {
			out[k] = Marker
			continue
		}
		out[k] = s.cleanValue(v)
	}
	return out
}

// CleanHeaders redacts a flat header map.
func (s *Sanitizer) CleanHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if s.Sensitive(k) {
			out[k] = Marker
			continue
		}
		out[k] = v
	}
	return out
}

func (s *Sanitizer) cleanValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return s.Clean(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = s.cleanValue(e)
		}
		return out
	default:
		return v
	}
}
