package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/usecase"
)

func cmdAsk() *cli.Command {
	var extraContext string
	var cfg serveConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "context",
			Usage:       "Extra business context forwarded to the selected agent",
			Sources:     cli.EnvVars("AGV_ASK_CONTEXT"),
			Destination: &extraContext,
		},
	}
	flags = append(flags, cfg.Flags()...)

	return &cli.Command{
		Name:      "ask",
		Aliases:   []string{"a"},
		Usage:     "Answer a single question from the command line",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return goerr.New("a question is required")
			}

			uc, closer, err := cfg.configure(ctx)
			if err != nil {
				return err
			}
			defer closer()

			answer, err := uc.Ask.AskWithContext(ctx, question, extraContext)
			if err != nil {
				envelope := usecase.EnvelopeFromError(err)
				fmt.Println(color.RedString(envelope.Message))
				return goerr.Wrap(err, "ask failed", goerr.V("kind", envelope.Kind))
			}

			printAnswer(answer)
			return nil
		},
	}
}

func printAnswer(answer *model.Answer) {
	if answer.Agent != "" {
		fmt.Printf("%s %s (%s, confiance %.2f)\n\n",
			color.CyanString("Agent:"), answer.Agent, answer.Method, answer.Confidence)
	}
	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println()
		fmt.Println(color.CyanString("Sources:"))
		for _, src := range answer.Sources {
			if src.Title != "" {
				fmt.Printf("  - %s (%s)\n", src.Title, src.URL)
			} else {
				fmt.Printf("  - %s\n", src.URL)
			}
		}
	}
}
