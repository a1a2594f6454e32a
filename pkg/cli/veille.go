package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

func cmdVeille() *cli.Command {
	var cfg serveConfig

	return &cli.Command{
		Name:  "veille",
		Usage: "Run a regulatory watch pass over all registered companies",
		Flags: cfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := cfg.configure(ctx)
			if err != nil {
				return err
			}
			defer closer()

			if uc.Veille == nil {
				return goerr.New("the watch agent is not registered, add a 'veille' entry to the agents config")
			}

			summary, err := uc.Veille.Run(ctx)
			if err != nil {
				return goerr.Wrap(err, "watch run failed")
			}

			logging.Default().Info("Watch run completed",
				"companies", summary.Companies,
				"alerts", summary.Alerts,
				"failures", summary.Failures,
			)
			return nil
		},
	}
}
