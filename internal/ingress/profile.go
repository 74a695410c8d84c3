package ingress

import (
	"sort"
	"strings"
	"sync"

	"github.com/safqa-app/safqagate/internal/validate"
)

// Profiles maps registered routes to their declared validation
// profiles. Routes declare profiles at startup next to their
// registration; lookups happen on every request, so reads take the
// cheap path of an RWMutex.
type Profiles struct {
	mu     sync.RWMutex
	routes map[string]validate.Profile
}

func NewProfiles() *Profiles {
	return &Profiles{routes: make(map[string]validate.Profile)}
}

// Declare binds a profile to method + route path. The path is the
// registered pattern (e.g. /api/companies/:id), not a concrete URL.
func (p *Profiles) Declare(method, path string, profile validate.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[routeKey(method, path)] = profile
}

// Remove drops a declaration. Requests to the route pass the gate
// unvalidated afterwards.
func (p *Profiles) Remove(method, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.routes, routeKey(method, path))
}

// Lookup returns the profile declared for a route, if any.
func (p *Profiles) Lookup(method, path string) (validate.Profile, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	profile, ok := p.routes[routeKey(method, path)]
	return profile, ok
}

// Declared returns a copy of every bound route and its profile, for the
// admin surface.
func (p *Profiles) Declared() map[string]validate.Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]validate.Profile, len(p.routes))
	for key, profile := range p.routes {
		out[key] = profile
	}
	return out
}

// RouteKeys returns the declaration keys sorted, for stable listings.
func (p *Profiles) RouteKeys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.routes))
	for key := range p.routes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}
