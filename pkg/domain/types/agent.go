package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// AgentID represents a unique identifier for a specialized responder agent
// (e.g. "fiscalite", "juridique", "aides").
type AgentID string

var idPattern = regexp.MustCompile(`^[a-z0-9]+([_-][a-z0-9]+)*$`)

// Validate checks if the AgentID is valid
func (a AgentID) Validate() error {
	if a == "" {
		return goerr.New("agent ID cannot be empty")
	}
	if !idPattern.MatchString(string(a)) {
		return goerr.New("agent ID must be lowercase alphanumeric with separators", goerr.V("id", a))
	}
	return nil
}

// String returns the string representation of AgentID
func (a AgentID) String() string {
	return string(a)
}
