package interfaces

import (
	"context"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
)

// AgentRepository defines the interface for agent registry overrides stored
// in an external collection. Entries override the static defaults.
type AgentRepository interface {
	// List retrieves all override entries
	List(ctx context.Context) ([]*model.AgentDescriptor, error)

	// Get retrieves a single override entry by agent ID
	Get(ctx context.Context, id types.AgentID) (*model.AgentDescriptor, error)

	// Put creates or replaces an override entry
	Put(ctx context.Context, agent *model.AgentDescriptor) error
}
