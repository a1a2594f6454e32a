package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
)

// agentDoc is the Firestore document representation of a registry override
// entry. Field names match what the front office writes into the collection.
type agentDoc struct {
	ID                string   `firestore:"ID"`
	Description       string   `firestore:"Description,omitempty"`
	EndpointURL       string   `firestore:"EndpointURL,omitempty"`
	Family            string   `firestore:"Family,omitempty"`
	Keywords          []string `firestore:"Keywords,omitempty"`
	RequiresAuth      bool     `firestore:"RequiresAuth"`
	NeedsExtraContext bool     `firestore:"NeedsExtraContext"`
	Enabled           bool     `firestore:"Enabled"`
}

func toAgentDoc(a *model.AgentDescriptor) *agentDoc {
	return &agentDoc{
		ID:                string(a.ID),
		Description:       a.Description,
		EndpointURL:       a.EndpointURL,
		Family:            string(a.Family),
		Keywords:          a.Keywords,
		RequiresAuth:      a.RequiresAuth,
		NeedsExtraContext: a.NeedsExtraContext,
		Enabled:           a.Enabled,
	}
}

func fromAgentDoc(d *agentDoc) *model.AgentDescriptor {
	return &model.AgentDescriptor{
		ID:                types.AgentID(d.ID),
		Description:       d.Description,
		EndpointURL:       d.EndpointURL,
		Family:            model.AgentFamily(d.Family),
		Keywords:          d.Keywords,
		RequiresAuth:      d.RequiresAuth,
		NeedsExtraContext: d.NeedsExtraContext,
		Enabled:           d.Enabled,
	}
}

func docToAgent(doc *firestore.DocumentSnapshot) (*model.AgentDescriptor, error) {
	var d agentDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromAgentDoc(&d), nil
}

type agentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAgentRepository(client *firestore.Client) *agentRepository {
	return &agentRepository{
		client: client,
	}
}

func (r *agentRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "agents")
}

func (r *agentRepository) List(ctx context.Context) ([]*model.AgentDescriptor, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	agents := make([]*model.AgentDescriptor, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate agents")
		}

		a, err := docToAgent(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal agent")
		}

		agents = append(agents, a)
	}

	return agents, nil
}

func (r *agentRepository) Get(ctx context.Context, id types.AgentID) (*model.AgentDescriptor, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "agent override not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get agent", goerr.V("id", id))
	}

	return docToAgent(doc)
}

func (r *agentRepository) Put(ctx context.Context, agent *model.AgentDescriptor) error {
	if err := agent.Validate(); err != nil {
		return err
	}

	docRef := r.collection().Doc(string(agent.ID))
	if _, err := docRef.Set(ctx, toAgentDoc(agent)); err != nil {
		return goerr.Wrap(err, "failed to put agent", goerr.V("id", agent.ID))
	}

	return nil
}
