package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested document does not exist
var ErrNotFound = goerr.New("not found")

type Firestore struct {
	client  *firestore.Client
	agent   *agentRepository
	alert   *alertRepository
	company *companyRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prepends a prefix to all collection names. Used to
// share one Firestore database between environments.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.agent.collectionPrefix = prefix
		f.alert.collectionPrefix = prefix
		f.company.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID string, opts ...Option) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	f := &Firestore{
		client:  client,
		agent:   newAgentRepository(client),
		alert:   newAlertRepository(client),
		company: newCompanyRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Agent() interfaces.AgentRepository {
	return f.agent
}

func (f *Firestore) Alert() interfaces.AlertRepository {
	return f.alert
}

func (f *Firestore) Company() interfaces.CompanyRepository {
	return f.company
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
