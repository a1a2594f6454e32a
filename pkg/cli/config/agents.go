package config

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/interfaces"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

// Agents holds CLI flags for the agent registry configuration
type Agents struct {
	configPath string
}

// Flags returns CLI flags for agent registry configuration
func (a *Agents) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "agents-config",
			Usage:       "Path to the TOML file declaring the agent registry",
			Required:    true,
			Sources:     cli.EnvVars("AGV_AGENTS_CONFIG"),
			Destination: &a.configPath,
		},
	}
}

// SetConfigPath overrides the configured file path. Used by tests and by
// commands that take the path as an argument.
func (a *Agents) SetConfigPath(path string) {
	a.configPath = path
}

// Load parses the configured TOML file without touching the repository.
func (a *Agents) Load() ([]*model.AgentDescriptor, error) {
	return LoadAgentsFile(a.configPath)
}

// AgentEntry is one agent declaration in the TOML file
type AgentEntry struct {
	ID                string   `toml:"id"`
	Description       string   `toml:"description"`
	EndpointURL       string   `toml:"endpoint_url"`
	Family            string   `toml:"family"`
	Keywords          []string `toml:"keywords"`
	RequiresAuth      bool     `toml:"requires_auth"`
	NeedsExtraContext bool     `toml:"needs_extra_context"`
	Enabled           bool     `toml:"enabled"`
}

// AgentsFile is the root of the agents TOML file
type AgentsFile struct {
	Agents []AgentEntry `toml:"agent"`
}

func (e *AgentEntry) toDescriptor() (*model.AgentDescriptor, error) {
	desc := &model.AgentDescriptor{
		ID:                types.AgentID(e.ID),
		Description:       e.Description,
		EndpointURL:       e.EndpointURL,
		Family:            model.AgentFamily(e.Family),
		Keywords:          e.Keywords,
		RequiresAuth:      e.RequiresAuth,
		NeedsExtraContext: e.NeedsExtraContext,
		Enabled:           e.Enabled,
	}
	if desc.Family == "" {
		desc.Family = model.AgentFamilyFunctions
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return desc, nil
}

// LoadAgentsFile parses and validates an agents TOML file
func LoadAgentsFile(path string) ([]*model.AgentDescriptor, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read agents config", goerr.V("path", path))
	}

	var file AgentsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse agents config", goerr.V("path", path))
	}
	if len(file.Agents) == 0 {
		return nil, goerr.New("agents config declares no agent", goerr.V("path", path))
	}

	seen := make(map[string]bool)
	defaults := make([]*model.AgentDescriptor, 0, len(file.Agents))
	for _, entry := range file.Agents {
		if seen[entry.ID] {
			return nil, goerr.New("duplicate agent ID", goerr.V("id", entry.ID))
		}
		seen[entry.ID] = true

		desc, err := entry.toDescriptor()
		if err != nil {
			return nil, goerr.Wrap(err, "invalid agent entry", goerr.V("id", entry.ID))
		}
		defaults = append(defaults, desc)
	}

	return defaults, nil
}

// Configure builds the agent registry from the TOML defaults and applies
// overrides stored in the repository. Unknown override IDs are dropped.
func (a *Agents) Configure(ctx context.Context, repo interfaces.Repository) (*model.AgentRegistry, error) {
	defaults, err := LoadAgentsFile(a.configPath)
	if err != nil {
		return nil, err
	}

	registry := model.NewAgentRegistry(defaults)

	overrides, err := repo.Agent().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load agent overrides")
	}

	applied := 0
	for _, o := range overrides {
		if registry.Override(o) {
			applied++
		} else {
			logging.Default().Warn("ignoring override for unknown agent", "id", o.ID)
		}
	}

	logging.Default().Info("agent registry loaded",
		"agents", len(defaults), "overrides", applied, "path", a.configPath)

	return registry, nil
}
