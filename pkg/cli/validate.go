package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/cli/config"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

func cmdValidate() *cli.Command {
	var agentsCfg config.Agents

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the agents configuration file",
		Flags:   agentsCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			agents, err := agentsCfg.Load()
			if err != nil {
				return goerr.Wrap(err, "agents configuration validation failed")
			}

			logger.Info("Agents configuration validation passed", "agent_count", len(agents))
			for _, agent := range agents {
				logger.Info("Agent validated",
					"id", agent.ID,
					"family", agent.Family,
					"endpoint", agent.EndpointURL,
					"enabled", agent.Enabled,
				)
			}

			return nil
		},
	}
}
