package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/cli/config"
	server "github.com/Nathan-c-cloud/agentGCP-veille/pkg/controller/http"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/embedding"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/invoke"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/retrieval"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/router"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/usecase"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

// serveConfig groups the flag sets shared by the serve, ask and veille
// commands so they wire the same stack.
type serveConfig struct {
	repo   config.Repository
	gemini config.Gemini
	agents config.Agents
	corpus config.Corpus
	router config.Router
}

func (c *serveConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, c.repo.Flags()...)
	flags = append(flags, c.gemini.Flags()...)
	flags = append(flags, c.agents.Flags()...)
	flags = append(flags, c.corpus.Flags()...)
	flags = append(flags, c.router.Flags()...)
	return flags
}

// configure builds the use case aggregate from the configured backends. The
// returned closer releases the repository connection.
func (c *serveConfig) configure(ctx context.Context) (*usecase.UseCases, func(), error) {
	logger := logging.From(ctx)

	repo, err := c.repo.Configure(ctx)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := repo.Close(); err != nil {
			logger.Warn("failed to close repository", "error", err)
		}
	}

	llmClient, err := c.gemini.Configure(ctx)
	if err != nil {
		closer()
		return nil, nil, err
	}
	if llmClient == nil {
		logger.Warn("no Gemini project configured, running with rules-only routing")
	} else {
		logger.Info("Gemini client ready", "gemini", &c.gemini)
	}

	registry, err := c.agents.Configure(ctx, repo)
	if err != nil {
		closer()
		return nil, nil, err
	}

	rt, err := router.New(registry, llmClient, c.router.Options()...)
	if err != nil {
		closer()
		return nil, nil, err
	}

	inv := invoke.New()

	var opts []usecase.Option

	corpusSvc, err := c.corpus.Configure(ctx)
	if err != nil {
		closer()
		return nil, nil, err
	}
	if corpusSvc != nil && llmClient != nil {
		cache, err := embedding.New(llmClient)
		if err != nil {
			closer()
			return nil, nil, err
		}
		retriever, err := retrieval.New(cache, corpusSvc)
		if err != nil {
			closer()
			return nil, nil, err
		}
		opts = append(opts, usecase.WithAnswer(usecase.NewAnswerUseCase(retriever, llmClient)))
	}

	if registry.Get(usecase.DefaultVeilleAgentID) != nil {
		opts = append(opts, usecase.WithVeille(usecase.NewVeilleUseCase(repo, registry, inv)))
	}

	uc := usecase.New(repo, registry, rt, inv, llmClient, opts...)

	return uc, closer, nil
}

func cmdServe() *cli.Command {
	var addr string
	var cfg serveConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Address to listen on",
			Sources:     cli.EnvVars("AGV_ADDR"),
			Value:       ":8080",
			Destination: &addr,
		},
	}
	flags = append(flags, cfg.Flags()...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP orchestration server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			uc, closer, err := cfg.configure(ctx)
			if err != nil {
				return err
			}
			defer closer()

			var serverOpts []server.Options
			if uc.Answer != nil {
				serverOpts = append(serverOpts, server.WithAnswer(uc.Answer))
			}
			if uc.Veille != nil {
				serverOpts = append(serverOpts, server.WithVeille(uc.Veille))
			}
			srv := server.New(uc.Ask, serverOpts...)

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           srv,
				ReadHeaderTimeout: 30 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting HTTP server", "addr", addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to listen and serve")
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("received signal, shutting down", "signal", sig.String())
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown HTTP server")
				}
			}

			return nil
		},
	}
}
