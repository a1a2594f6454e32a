package model

import (
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
)

// AgentFamily selects the request shape a responder expects.
type AgentFamily string

const (
	// AgentFamilyFunctions agents accept {"question": ...} (Cloud Functions line).
	AgentFamilyFunctions AgentFamily = "functions"
	// AgentFamilyCloudRun agents accept {"user_query": ...} (Cloud Run line).
	AgentFamilyCloudRun AgentFamily = "cloudrun"
)

// IsValid checks if the agent family is valid
func (f AgentFamily) IsValid() bool {
	switch f {
	case AgentFamilyFunctions, AgentFamilyCloudRun:
		return true
	default:
		return false
	}
}

// QueryKey returns the JSON key carrying the user query for this family.
func (f AgentFamily) QueryKey() string {
	if f == AgentFamilyCloudRun {
		return "user_query"
	}
	return "question"
}

// AgentDescriptor is one registry entry for a specialized responder.
// The engine only reads descriptors; they are loaded once from static
// configuration, optionally overridden from an external collection.
type AgentDescriptor struct {
	ID                types.AgentID
	Description       string
	EndpointURL       string
	Family            AgentFamily
	Keywords          []string
	RequiresAuth      bool
	NeedsExtraContext bool
	Enabled           bool
}

// Validate checks if the descriptor is valid
func (a *AgentDescriptor) Validate() error {
	if err := a.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid agent descriptor")
	}
	if a.Family != "" && !a.Family.IsValid() {
		return goerr.New("invalid agent family", goerr.V("id", a.ID), goerr.V("family", a.Family))
	}
	return nil
}

// Invokable reports whether the orchestrator can actually call this agent.
func (a *AgentDescriptor) Invokable() bool {
	return a.Enabled && a.EndpointURL != ""
}

// AgentRegistry holds the known agent descriptors. Defaults come from static
// configuration; Override merges entries loaded from an external collection
// on top (unknown IDs in the collection are ignored).
type AgentRegistry struct {
	mu     sync.RWMutex
	agents map[types.AgentID]*AgentDescriptor
}

// NewAgentRegistry creates a registry from default descriptors.
func NewAgentRegistry(defaults []*AgentDescriptor) *AgentRegistry {
	agents := make(map[types.AgentID]*AgentDescriptor, len(defaults))
	for _, a := range defaults {
		copied := *a
		agents[a.ID] = &copied
	}
	return &AgentRegistry{agents: agents}
}

// Override applies a collection entry on top of the matching default.
// Entries for unknown agents are dropped: the engine only ever routes to
// agents it was configured with.
func (r *AgentRegistry) Override(entry *AgentDescriptor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	base, ok := r.agents[entry.ID]
	if !ok {
		return false
	}
	if entry.EndpointURL != "" {
		base.EndpointURL = entry.EndpointURL
	}
	if entry.Description != "" {
		base.Description = entry.Description
	}
	if entry.Family != "" {
		base.Family = entry.Family
	}
	if len(entry.Keywords) > 0 {
		base.Keywords = append([]string(nil), entry.Keywords...)
	}
	base.RequiresAuth = entry.RequiresAuth
	base.NeedsExtraContext = entry.NeedsExtraContext
	base.Enabled = entry.Enabled
	return true
}

// Get returns the descriptor for an agent ID, or nil when unknown.
func (r *AgentRegistry) Get(id types.AgentID) *AgentDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	if !ok {
		return nil
	}
	copied := *a
	return &copied
}

// List returns all descriptors sorted by ID.
func (r *AgentRegistry) List() []*AgentDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*AgentDescriptor, 0, len(r.agents))
	for _, a := range r.agents {
		copied := *a
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}
