package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
)

type companyRepository struct {
	mu        sync.RWMutex
	companies map[string]*model.CompanyProfile
}

func newCompanyRepository() *companyRepository {
	return &companyRepository{
		companies: make(map[string]*model.CompanyProfile),
	}
}

func copyCompany(c *model.CompanyProfile) *model.CompanyProfile {
	copied := *c
	if c.Settings != nil {
		copied.Settings = make(map[string]any, len(c.Settings))
		for k, v := range c.Settings {
			copied.Settings[k] = v
		}
	}
	return &copied
}

func (r *companyRepository) List(ctx context.Context) ([]*model.CompanyProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.CompanyProfile, 0, len(r.companies))
	for _, c := range r.companies {
		result = append(result, copyCompany(c))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *companyRepository) Get(ctx context.Context, id string) (*model.CompanyProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.companies[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "company not found", goerr.V("id", id))
	}
	return copyCompany(c), nil
}

func (r *companyRepository) Put(ctx context.Context, company *model.CompanyProfile) error {
	if company.ID == "" {
		return goerr.New("company ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.companies[company.ID] = copyCompany(company)
	return nil
}
