package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
)

type alertRepository struct {
	mu     sync.RWMutex
	alerts map[types.AlertID]*model.Alert
}

func newAlertRepository() *alertRepository {
	return &alertRepository{
		alerts: make(map[types.AlertID]*model.Alert),
	}
}

func copyAlert(a *model.Alert) *model.Alert {
	copied := *a
	if a.Sources != nil {
		copied.Sources = append([]model.SourceRef(nil), a.Sources...)
	}
	return &copied
}

func (r *alertRepository) Create(ctx context.Context, alert *model.Alert) (*model.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyAlert(alert)
	if created.ID == "" {
		created.ID = types.NewAlertID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	r.alerts[created.ID] = created

	return copyAlert(created), nil
}

func (r *alertRepository) Get(ctx context.Context, id types.AlertID) (*model.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.alerts[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", id))
	}
	return copyAlert(a), nil
}

func (r *alertRepository) ListByCompanyID(ctx context.Context, companyID string) ([]*model.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Alert
	for _, a := range r.alerts {
		if a.CompanyID == companyID {
			result = append(result, copyAlert(a))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *alertRepository) Delete(ctx context.Context, id types.AlertID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.alerts[id]; !ok {
		return goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", id))
	}
	delete(r.alerts, id)
	return nil
}
