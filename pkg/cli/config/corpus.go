package config

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/service/corpus"
)

// Corpus holds CLI flags for the knowledge corpus backend
type Corpus struct {
	bucket string
	prefix string
	ttl    time.Duration
}

// Flags returns CLI flags for corpus configuration
func (c *Corpus) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "corpus-bucket",
			Usage:       "Cloud Storage bucket holding the document corpus",
			Sources:     cli.EnvVars("AGV_CORPUS_BUCKET"),
			Destination: &c.bucket,
		},
		&cli.StringFlag{
			Name:        "corpus-prefix",
			Usage:       "Object prefix of the corpus documents",
			Value:       "documents/",
			Sources:     cli.EnvVars("AGV_CORPUS_PREFIX"),
			Destination: &c.prefix,
		},
		&cli.DurationFlag{
			Name:        "corpus-ttl",
			Usage:       "How long a corpus snapshot stays fresh",
			Value:       corpus.DefaultTTL,
			Sources:     cli.EnvVars("AGV_CORPUS_TTL"),
			Destination: &c.ttl,
		},
	}
}

// Configure creates the corpus service over Cloud Storage. Returns nil if
// no bucket is configured (the local responder is then disabled).
func (c *Corpus) Configure(ctx context.Context) (*corpus.Service, error) {
	if c.bucket == "" {
		return nil, nil
	}

	store, err := corpus.NewGCSStore(ctx, c.bucket, c.prefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create corpus store")
	}

	return corpus.New(store, corpus.WithTTL(c.ttl))
}
