package memory

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = goerr.New("not found")

// Memory is an in-memory implementation of interfaces.Repository for
// development and tests.
type Memory struct {
	agent   *agentRepository
	alert   *alertRepository
	company *companyRepository
}

var _ interfaces.Repository = &Memory{}

// New creates a new in-memory repository
func New() *Memory {
	return &Memory{
		agent:   newAgentRepository(),
		alert:   newAlertRepository(),
		company: newCompanyRepository(),
	}
}

func (m *Memory) Agent() interfaces.AgentRepository {
	return m.agent
}

func (m *Memory) Alert() interfaces.AlertRepository {
	return m.alert
}

func (m *Memory) Company() interfaces.CompanyRepository {
	return m.company
}

func (m *Memory) Close() error {
	return nil
}
