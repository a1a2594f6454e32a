package interfaces

import (
	"context"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
)

// AlertRepository defines the interface for Alert data persistence
type AlertRepository interface {
	// Create creates a new alert
	Create(ctx context.Context, alert *model.Alert) (*model.Alert, error)

	// Get retrieves an alert by ID
	Get(ctx context.Context, id types.AlertID) (*model.Alert, error)

	// ListByCompanyID retrieves alerts for a company, newest first
	ListByCompanyID(ctx context.Context, companyID string) ([]*model.Alert, error)

	// Delete deletes an alert by ID
	Delete(ctx context.Context, id types.AlertID) error
}

// CompanyRepository defines the interface for company profile access
type CompanyRepository interface {
	// List retrieves all company profiles
	List(ctx context.Context) ([]*model.CompanyProfile, error)

	// Get retrieves a company profile by ID
	Get(ctx context.Context, id string) (*model.CompanyProfile, error)

	// Put creates or replaces a company profile
	Put(ctx context.Context, company *model.CompanyProfile) error
}
