package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
)

type agentRepository struct {
	mu     sync.RWMutex
	agents map[types.AgentID]*model.AgentDescriptor
}

func newAgentRepository() *agentRepository {
	return &agentRepository{
		agents: make(map[types.AgentID]*model.AgentDescriptor),
	}
}

func copyAgent(a *model.AgentDescriptor) *model.AgentDescriptor {
	copied := *a
	if a.Keywords != nil {
		copied.Keywords = append([]string(nil), a.Keywords...)
	}
	return &copied
}

func (r *agentRepository) List(ctx context.Context) ([]*model.AgentDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.AgentDescriptor, 0, len(r.agents))
	for _, a := range r.agents {
		result = append(result, copyAgent(a))
	}
	return result, nil
}

func (r *agentRepository) Get(ctx context.Context, id types.AgentID) (*model.AgentDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "agent override not found", goerr.V("id", id))
	}
	return copyAgent(a), nil
}

func (r *agentRepository) Put(ctx context.Context, agent *model.AgentDescriptor) error {
	if err := agent.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.agents[agent.ID] = copyAgent(agent)
	return nil
}
