package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/interfaces"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/repository/firestore"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/repository/memory"
)

func runAgentRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put and Get round-trips a descriptor", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id := types.AgentID(fmt.Sprintf("agent-fiscal-%d", time.Now().UnixNano()))
		agent := &model.AgentDescriptor{
			ID:           id,
			Description:  "Fiscalité des PME",
			EndpointURL:  "https://example.com/agent-fiscal",
			Family:       model.AgentFamilyFunctions,
			Keywords:     []string{"tva", "impôt"},
			RequiresAuth: true,
			Enabled:      true,
		}

		if err := repo.Agent().Put(ctx, agent); err != nil {
			t.Fatalf("failed to put agent: %v", err)
		}

		got, err := repo.Agent().Get(ctx, id)
		if err != nil {
			t.Fatalf("failed to get agent: %v", err)
		}
		if got.EndpointURL != agent.EndpointURL {
			t.Errorf("expected EndpointURL=%s, got %s", agent.EndpointURL, got.EndpointURL)
		}
		if got.Family != model.AgentFamilyFunctions {
			t.Errorf("expected Family=functions, got %s", got.Family)
		}
		if len(got.Keywords) != 2 {
			t.Errorf("expected 2 keywords, got %d", len(got.Keywords))
		}
		if !got.RequiresAuth {
			t.Error("expected RequiresAuth=true")
		}
	})

	t.Run("Get returns ErrNotFound for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id := types.AgentID(fmt.Sprintf("missing-%d", time.Now().UnixNano()))
		_, err := repo.Agent().Get(ctx, id)
		if err == nil {
			t.Fatal("expected error for unknown agent")
		}
		if !errors.Is(err, memory.ErrNotFound) && !errors.Is(err, firestore.ErrNotFound) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})

	t.Run("Put rejects invalid descriptor", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		err := repo.Agent().Put(ctx, &model.AgentDescriptor{ID: "Not Valid ID"})
		if err == nil {
			t.Fatal("expected validation error")
		}
	})
}

func runAlertRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns ID and timestamp", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		companyID := fmt.Sprintf("company-%d", time.Now().UnixNano())
		alert := &model.Alert{
			CompanyID: companyID,
			Agent:     "agent-veille",
			Title:     "Nouvelle obligation de facturation électronique",
			Body:      "La facturation électronique devient obligatoire pour les PME.",
			Sources:   []model.SourceRef{{Title: "Service Public", URL: "https://entreprendre.service-public.fr"}},
		}

		created, err := repo.Alert().Create(ctx, alert)
		if err != nil {
			t.Fatalf("failed to create alert: %v", err)
		}
		if created.ID == "" {
			t.Error("expected non-empty ID")
		}
		if created.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}

		got, err := repo.Alert().Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("failed to get alert: %v", err)
		}
		if got.Title != alert.Title {
			t.Errorf("expected Title=%s, got %s", alert.Title, got.Title)
		}
		if len(got.Sources) != 1 {
			t.Errorf("expected 1 source, got %d", len(got.Sources))
		}
	})

	t.Run("ListByCompanyID returns newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		companyID := fmt.Sprintf("company-%d", time.Now().UnixNano())
		base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
		for i := 0; i < 3; i++ {
			_, err := repo.Alert().Create(ctx, &model.Alert{
				CompanyID: companyID,
				Agent:     "agent-veille",
				Title:     fmt.Sprintf("alert %d", i),
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			})
			if err != nil {
				t.Fatalf("failed to create alert %d: %v", i, err)
			}
		}

		alerts, err := repo.Alert().ListByCompanyID(ctx, companyID)
		if err != nil {
			t.Fatalf("failed to list alerts: %v", err)
		}
		if len(alerts) != 3 {
			t.Fatalf("expected 3 alerts, got %d", len(alerts))
		}
		if alerts[0].Title != "alert 2" {
			t.Errorf("expected newest alert first, got %s", alerts[0].Title)
		}
	})

	t.Run("Delete removes the alert", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Alert().Create(ctx, &model.Alert{
			CompanyID: fmt.Sprintf("company-%d", time.Now().UnixNano()),
			Agent:     "agent-veille",
			Title:     "to delete",
		})
		if err != nil {
			t.Fatalf("failed to create alert: %v", err)
		}

		if err := repo.Alert().Delete(ctx, created.ID); err != nil {
			t.Fatalf("failed to delete alert: %v", err)
		}

		if _, err := repo.Alert().Get(ctx, created.ID); err == nil {
			t.Error("expected error after delete")
		}
	})
}

func runCompanyRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put and List", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id := fmt.Sprintf("company-%d", time.Now().UnixNano())
		company := &model.CompanyProfile{
			ID:     id,
			Name:   "Boulangerie Martin",
			Sector: "artisanat",
			Region: "Île-de-France",
			Settings: map[string]any{
				"veille_enabled": true,
			},
		}

		if err := repo.Company().Put(ctx, company); err != nil {
			t.Fatalf("failed to put company: %v", err)
		}

		got, err := repo.Company().Get(ctx, id)
		if err != nil {
			t.Fatalf("failed to get company: %v", err)
		}
		if got.Name != company.Name {
			t.Errorf("expected Name=%s, got %s", company.Name, got.Name)
		}
		if got.Settings["veille_enabled"] != true {
			t.Errorf("expected veille_enabled=true, got %v", got.Settings["veille_enabled"])
		}
	})

	t.Run("Put rejects empty ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		if err := repo.Company().Put(ctx, &model.CompanyProfile{Name: "no id"}); err == nil {
			t.Fatal("expected error for empty ID")
		}
	})
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID)
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func newMemoryRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

func TestMemoryAgentRepository(t *testing.T) {
	runAgentRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreAgentRepository(t *testing.T) {
	runAgentRepositoryTest(t, newFirestoreRepository)
}

func TestMemoryAlertRepository(t *testing.T) {
	runAlertRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreAlertRepository(t *testing.T) {
	runAlertRepositoryTest(t, newFirestoreRepository)
}

func TestMemoryCompanyRepository(t *testing.T) {
	runCompanyRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreCompanyRepository(t *testing.T) {
	runCompanyRepositoryTest(t, newFirestoreRepository)
}
