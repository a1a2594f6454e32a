package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
)

type companyDoc struct {
	ID       string         `firestore:"ID"`
	Name     string         `firestore:"Name"`
	Sector   string         `firestore:"Sector,omitempty"`
	Region   string         `firestore:"Region,omitempty"`
	Settings map[string]any `firestore:"Settings,omitempty"`
}

func toCompanyDoc(c *model.CompanyProfile) *companyDoc {
	return &companyDoc{
		ID:       c.ID,
		Name:     c.Name,
		Sector:   c.Sector,
		Region:   c.Region,
		Settings: c.Settings,
	}
}

func fromCompanyDoc(d *companyDoc) *model.CompanyProfile {
	return &model.CompanyProfile{
		ID:       d.ID,
		Name:     d.Name,
		Sector:   d.Sector,
		Region:   d.Region,
		Settings: d.Settings,
	}
}

func docToCompany(doc *firestore.DocumentSnapshot) (*model.CompanyProfile, error) {
	var d companyDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromCompanyDoc(&d), nil
}

type companyRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCompanyRepository(client *firestore.Client) *companyRepository {
	return &companyRepository{
		client: client,
	}
}

func (r *companyRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "companies")
}

func (r *companyRepository) List(ctx context.Context) ([]*model.CompanyProfile, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	companies := make([]*model.CompanyProfile, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate companies")
		}

		c, err := docToCompany(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal company")
		}

		companies = append(companies, c)
	}

	return companies, nil
}

func (r *companyRepository) Get(ctx context.Context, id string) (*model.CompanyProfile, error) {
	doc, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "company not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get company", goerr.V("id", id))
	}

	return docToCompany(doc)
}

func (r *companyRepository) Put(ctx context.Context, company *model.CompanyProfile) error {
	if company.ID == "" {
		return goerr.New("company ID is required")
	}

	docRef := r.collection().Doc(company.ID)
	if _, err := docRef.Set(ctx, toCompanyDoc(company)); err != nil {
		return goerr.Wrap(err, "failed to put company", goerr.V("id", company.ID))
	}

	return nil
}
