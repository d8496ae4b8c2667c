package middleware

import (
	"crypto/subtle"
	"net/http"

	"campus-life-api/services"
)

// RouteRule describes the authorization requirements of one route. The
// full set of rules is a static table resolved at startup; nothing is
// dispatched from a runtime-chosen name.
type RouteRule struct {
	Name         string
	Method       string
	Path         string
	RequiresAuth bool
	MinTier      int
	CSRFExempt   bool
}

// Mutating reports whether the route can change state. Safe methods
// skip the CSRF check.
func (r RouteRule) Mutating() bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

type DecisionKind int

const (
	DecisionAllow DecisionKind = iota
	DecisionForbidden
	DecisionRedirect
)

// Decision is the gate's verdict for one request.
type Decision struct {
	Kind   DecisionKind
	Reason string
}

// Authorize is the access gate. It is pure: given the route rule, the
// actor (nil when unauthenticated), the CSRF token supplied with the
// request and the token bound to the session, it decides without side
// effects. Checks run in a fixed order: CSRF, then authentication, then
// permission tier.
func Authorize(route RouteRule, actor *services.Actor, suppliedCSRF, sessionCSRF string) Decision {
	if route.Mutating() && !route.CSRFExempt {
		if sessionCSRF == "" || subtle.ConstantTimeCompare([]byte(suppliedCSRF), []byte(sessionCSRF)) != 1 {
			return Decision{Kind: DecisionForbidden, Reason: "invalid or missing CSRF token"}
		}
	}

	if route.RequiresAuth && actor == nil {
		return Decision{Kind: DecisionRedirect, Reason: "authentication required"}
	}

	if route.MinTier > 0 {
		if actor == nil || actor.PermissionTier < route.MinTier {
			return Decision{Kind: DecisionForbidden, Reason: "insufficient permissions"}
		}
	}

	return Decision{Kind: DecisionAllow}
}
