// Package registry holds the allowed-value lists that registry-bound
// request fields are validated against. Readers take an immutable
// snapshot; writers publish a replacement through an atomic swap, so a
// request sees one consistent registry for its whole lifetime.
package registry

import (
	"sort"
	"sync/atomic"
)

// Snapshot is an immutable field -> allowed values view. Construct with
// NewSnapshot; both construction and accessors copy, so a snapshot can
// never be changed through shared slices.
type Snapshot struct {
	fields map[string][]string
}

// NewSnapshot deep-copies fields into a Snapshot. A nil map yields an
// empty snapshot.
func NewSnapshot(fields map[string][]string) *Snapshot {
	s := &Snapshot{fields: make(map[string][]string, len(fields))}
	for name, values := range fields {
		s.fields[name] = append([]string(nil), values...)
	}
	return s
}

// Allowed returns the value list for a field, in publication order, and
// whether the field is known. The returned slice is the caller's to keep.
func (s *Snapshot) Allowed(field string) ([]string, bool) {
	values, ok := s.fields[field]
	if !ok {
		return nil, false
	}
	return append([]string(nil), values...), true
}

// Contains reports whether value is allowed for field. Unknown fields
// allow nothing.
func (s *Snapshot) Contains(field, value string) bool {
	for _, v := range s.fields[field] {
		if v == value {
			return true
		}
	}
	return false
}

// Fields lists the known field names, sorted.
func (s *Snapshot) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a deep copy of the whole registry, for the admin surface.
func (s *Snapshot) All() map[string][]string {
	out := make(map[string][]string, len(s.fields))
	for name, values := range s.fields {
		out[name] = append([]string(nil), values...)
	}
	return out
}

// Provider hands out the current snapshot. Current is wait-free; Publish
// swaps the whole snapshot in one atomic store.
type Provider struct {
	current atomic.Pointer[Snapshot]
}

// NewProvider starts from initial, or an empty snapshot when nil.
func NewProvider(initial *Snapshot) *Provider {
	if initial == nil {
		initial = NewSnapshot(nil)
	}
	p := &Provider{}
	p.current.Store(initial)
	return p
}

// Current returns the snapshot in effect right now. Never nil.
func (p *Provider) Current() *Snapshot {
	return p.current.Load()
}

// Publish makes snap the current snapshot. In-flight readers keep the
// snapshot they already hold.
func (p *Provider) Publish(snap *Snapshot) {
	if snap == nil {
		snap = NewSnapshot(nil)
	}
	p.current.Store(snap)
}

// PublishField publishes a new snapshot with one field's values replaced,
// keeping every other field, and returns it.
func (p *Provider) PublishField(field string, values []string) *Snapshot {
	next := p.Current().All()
	next[field] = append([]string(nil), values...)
	snap := NewSnapshot(next)
	p.current.Store(snap)
	return snap
}
