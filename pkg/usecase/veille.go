package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/interfaces"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/errutil"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

// DefaultVeilleAgentID is the registry entry used for watch runs unless
// overridden
const DefaultVeilleAgentID = types.AgentID("veille")

// defaultVeilleConcurrency bounds parallel company analyses per run
const defaultVeilleConcurrency = 4

// VeilleSummary reports the outcome of one watch run
type VeilleSummary struct {
	Companies int `json:"entreprises"`
	Alerts    int `json:"alertes"`
	Failures  int `json:"echecs"`
}

// VeilleUseCase runs the regulatory watch: for every stored company
// profile, ask the watch agent what changed and persist the findings as
// alerts.
type VeilleUseCase struct {
	repo        interfaces.Repository
	registry    *model.AgentRegistry
	invoker     Invoker
	agentID     types.AgentID
	concurrency int
}

// VeilleOption is a functional option for VeilleUseCase configuration
type VeilleOption func(*VeilleUseCase)

// WithVeilleAgent overrides which registry agent performs the watch
func WithVeilleAgent(id types.AgentID) VeilleOption {
	return func(uc *VeilleUseCase) {
		uc.agentID = id
	}
}

// WithVeilleConcurrency bounds parallel company analyses
func WithVeilleConcurrency(n int) VeilleOption {
	return func(uc *VeilleUseCase) {
		if n > 0 {
			uc.concurrency = n
		}
	}
}

// NewVeilleUseCase creates a VeilleUseCase instance
func NewVeilleUseCase(repo interfaces.Repository, registry *model.AgentRegistry, inv Invoker, opts ...VeilleOption) *VeilleUseCase {
	uc := &VeilleUseCase{
		repo:        repo,
		registry:    registry,
		invoker:     inv,
		agentID:     DefaultVeilleAgentID,
		concurrency: defaultVeilleConcurrency,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Run analyzes every company profile through the watch agent. A failing
// company is counted and logged, never aborting the rest of the run.
func (uc *VeilleUseCase) Run(ctx context.Context) (*VeilleSummary, error) {
	logger := logging.From(ctx)

	agent := uc.registry.Get(uc.agentID)
	if agent == nil {
		return nil, goerr.New("veille agent is not registered", goerr.V("agent", uc.agentID))
	}

	companies, err := uc.repo.Company().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list companies")
	}

	summary := &VeilleSummary{Companies: len(companies)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)

	for _, company := range companies {
		g.Go(func() error {
			created, err := uc.runCompany(gctx, agent, company)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failures++
				errutil.Handle(gctx, err, "veille failed for company")
				return nil
			}
			summary.Alerts += created
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, goerr.Wrap(err, "veille run aborted")
	}

	logger.Info("veille run finished",
		"companies", summary.Companies,
		"alerts", summary.Alerts,
		"failures", summary.Failures)

	return summary, nil
}

// runCompany asks the watch agent about one company and stores the
// resulting alert. Returns how many alerts were created.
func (uc *VeilleUseCase) runCompany(ctx context.Context, agent *model.AgentDescriptor, company *model.CompanyProfile) (int, error) {
	query := fmt.Sprintf(
		"Quelles évolutions réglementaires récentes concernent l'entreprise %s (secteur: %s, région: %s) ?",
		company.Name, company.Sector, company.Region)

	payload := map[string]any{
		agent.Family.QueryKey(): query,
		"entreprise_id":         company.ID,
	}

	raw, err := uc.invoker.Invoke(ctx, agent, payload)
	if err != nil {
		return 0, goerr.Wrap(err, "watch agent call failed", goerr.V("company", company.ID))
	}

	normalized := Normalize(raw)
	if normalized.AnswerText == "" {
		return 0, nil
	}

	alert := &model.Alert{
		CompanyID: company.ID,
		Agent:     agent.ID,
		Title:     fmt.Sprintf("Veille réglementaire: %s", company.Name),
		Body:      normalized.AnswerText,
		Sources:   normalized.Sources,
	}
	if _, err := uc.repo.Alert().Create(ctx, alert); err != nil {
		return 0, goerr.Wrap(err, "failed to store alert", goerr.V("company", company.ID))
	}

	return 1, nil
}
