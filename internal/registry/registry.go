// Package registry maps caller-facing model identifiers to Bedrock agent
// identities. The registry is built once at startup and is safe for
// unsynchronized concurrent reads.
package registry

import (
	"fmt"
	"log"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/config"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
)

// Entry pairs a model id with its agent identity, for listing.
type Entry struct {
	ModelID  string
	Identity domain.AgentIdentity
}

// Registry is an immutable model-id → agent-identity mapping with a
// configured default fallback.
type Registry struct {
	agents    map[string]domain.AgentIdentity
	order     []string
	defaultID string
}

// New builds a registry from configuration entries. Later entries with a
// duplicate model id overwrite earlier ones without changing list order.
func New(entries []config.AgentEntry, defaultID string) *Registry {
	r := &Registry{
		agents:    make(map[string]domain.AgentIdentity, len(entries)),
		defaultID: defaultID,
	}
	for _, e := range entries {
		if _, seen := r.agents[e.ModelID]; !seen {
			r.order = append(r.order, e.ModelID)
		}
		r.agents[e.ModelID] = domain.AgentIdentity{
			AgentID: e.AgentID,
			AliasID: e.AliasID,
		}
	}
	return r
}

// Resolve looks up the agent identity for a model id. Unknown ids fall back
// to the default agent; if the default itself is unregistered the request
// cannot be served.
func (r *Registry) Resolve(modelID string) (domain.AgentIdentity, error) {
	if identity, ok := r.agents[modelID]; ok {
		return identity, nil
	}
	log.Printf("WARN: unknown model ID: %s, using default agent", modelID)
	if identity, ok := r.agents[r.defaultID]; ok {
		return identity, nil
	}
	return domain.AgentIdentity{}, fmt.Errorf("%w: default agent %q is not registered", domain.ErrAgentNotConfigured, r.defaultID)
}

// DefaultModelID returns the configured default model identifier.
func (r *Registry) DefaultModelID() string {
	return r.defaultID
}

// List returns every registered entry in registration order.
func (r *Registry) List() []Entry {
	entries := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, Entry{ModelID: id, Identity: r.agents[id]})
	}
	return entries
}
