package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
)

type sourceRefDoc struct {
	Title string `firestore:"Title"`
	URL   string `firestore:"URL"`
}

type alertDoc struct {
	ID        string         `firestore:"ID"`
	CompanyID string         `firestore:"CompanyID"`
	Agent     string         `firestore:"Agent"`
	Title     string         `firestore:"Title"`
	Body      string         `firestore:"Body"`
	Sources   []sourceRefDoc `firestore:"Sources,omitempty"`
	CreatedAt time.Time      `firestore:"CreatedAt"`
}

func toAlertDoc(a *model.Alert) *alertDoc {
	doc := &alertDoc{
		ID:        string(a.ID),
		CompanyID: a.CompanyID,
		Agent:     string(a.Agent),
		Title:     a.Title,
		Body:      a.Body,
		CreatedAt: a.CreatedAt,
	}
	for _, s := range a.Sources {
		doc.Sources = append(doc.Sources, sourceRefDoc{Title: s.Title, URL: s.URL})
	}
	return doc
}

func fromAlertDoc(d *alertDoc) *model.Alert {
	a := &model.Alert{
		ID:        types.AlertID(d.ID),
		CompanyID: d.CompanyID,
		Agent:     types.AgentID(d.Agent),
		Title:     d.Title,
		Body:      d.Body,
		CreatedAt: d.CreatedAt,
	}
	for _, s := range d.Sources {
		a.Sources = append(a.Sources, model.SourceRef{Title: s.Title, URL: s.URL})
	}
	return a
}

func docToAlert(doc *firestore.DocumentSnapshot) (*model.Alert, error) {
	var d alertDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromAlertDoc(&d), nil
}

type alertRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAlertRepository(client *firestore.Client) *alertRepository {
	return &alertRepository{
		client: client,
	}
}

func (r *alertRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "alerts")
}

func (r *alertRepository) Create(ctx context.Context, alert *model.Alert) (*model.Alert, error) {
	created := *alert
	if created.ID == "" {
		created.ID = types.NewAlertID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	docRef := r.collection().Doc(string(created.ID))
	if _, err := docRef.Set(ctx, toAlertDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create alert", goerr.V("companyID", created.CompanyID))
	}

	return &created, nil
}

func (r *alertRepository) Get(ctx context.Context, id types.AlertID) (*model.Alert, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get alert", goerr.V("id", id))
	}

	return docToAlert(doc)
}

func (r *alertRepository) ListByCompanyID(ctx context.Context, companyID string) ([]*model.Alert, error) {
	// Requires the composite index on (CompanyID ASC, CreatedAt DESC); see
	// the migrate command.
	iter := r.collection().
		Where("CompanyID", "==", companyID).
		OrderBy("CreatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	alerts := make([]*model.Alert, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate alerts", goerr.V("companyID", companyID))
		}

		a, err := docToAlert(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal alert")
		}

		alerts = append(alerts, a)
	}

	return alerts, nil
}

func (r *alertRepository) Delete(ctx context.Context, id types.AlertID) error {
	docRef := r.collection().Doc(string(id))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get alert", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete alert", goerr.V("id", id))
	}

	return nil
}
