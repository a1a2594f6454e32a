package types

import "fmt"

// RouteMethod identifies which signal produced a routing decision.
type RouteMethod string

const (
	// RouteMethodRules means keyword rules alone were decisive.
	RouteMethodRules RouteMethod = "rules"
	// RouteMethodLLM means the LLM classifier alone produced the target.
	RouteMethodLLM RouteMethod = "llm"
	// RouteMethodFused means rules and classifier agreed on the target.
	RouteMethodFused RouteMethod = "fused"
	// RouteMethodNone means no signal produced a usable target.
	RouteMethodNone RouteMethod = "none"
)

// AllRouteMethods returns all valid route methods
func AllRouteMethods() []RouteMethod {
	return []RouteMethod{
		RouteMethodRules,
		RouteMethodLLM,
		RouteMethodFused,
		RouteMethodNone,
	}
}

// IsValid checks if the route method is valid
func (m RouteMethod) IsValid() bool {
	switch m {
	case RouteMethodRules,
		RouteMethodLLM,
		RouteMethodFused,
		RouteMethodNone:
		return true
	default:
		return false
	}
}

// String returns the string representation of the route method
func (m RouteMethod) String() string {
	return string(m)
}

// ParseRouteMethod parses a string into a RouteMethod
func ParseRouteMethod(s string) (RouteMethod, error) {
	method := RouteMethod(s)
	if !method.IsValid() {
		return "", fmt.Errorf("invalid route method: %s", s)
	}
	return method, nil
}
