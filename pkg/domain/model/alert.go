package model

import (
	"time"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/types"
)

// Alert is one regulatory-watch finding produced for a company during a
// veille run.
type Alert struct {
	ID        types.AlertID
	CompanyID string
	Agent     types.AgentID
	Title     string
	Body      string
	Sources   []SourceRef
	CreatedAt time.Time
}

// CompanyProfile is the stored profile a veille run analyzes. The engine
// reads these; they are maintained by the front office.
type CompanyProfile struct {
	ID       string
	Name     string
	Sector   string
	Region   string
	Settings map[string]any
}
