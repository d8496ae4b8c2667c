package middleware

import (
	"net/http"
	"testing"

	"campus-life-api/services"
)

var reviewRule = RouteRule{
	Name:         "final-club",
	Method:       http.MethodPost,
	Path:         "/api/v1/review/final-club",
	RequiresAuth: true,
	MinTier:      3,
}

func TestAuthorizeDeniesMismatchedCSRFAtEveryTier(t *testing.T) {
	for tier := 0; tier <= 5; tier++ {
		actor := &services.Actor{ID: 1, PermissionTier: tier}
		decision := Authorize(reviewRule, actor, "wrong-token", "session-token")
		if decision.Kind != DecisionForbidden {
			t.Fatalf("tier %d: expected forbidden on CSRF mismatch, got %v", tier, decision.Kind)
		}
	}
}

func TestAuthorizeDeniesMissingCSRF(t *testing.T) {
	actor := &services.Actor{ID: 1, PermissionTier: 5}
	decision := Authorize(reviewRule, actor, "", "session-token")
	if decision.Kind != DecisionForbidden {
		t.Fatalf("expected forbidden on missing token, got %v", decision.Kind)
	}
}

func TestAuthorizeCSRFCheckPrecedesAuthCheck(t *testing.T) {
	// No session at all: a mutating request still fails the CSRF check
	// first and is forbidden rather than redirected.
	decision := Authorize(reviewRule, nil, "anything", "")
	if decision.Kind != DecisionForbidden {
		t.Fatalf("expected forbidden, got %v", decision.Kind)
	}
}

func TestAuthorizeRedirectsAnonymousReads(t *testing.T) {
	rule := RouteRule{
		Name:         "final-queue",
		Method:       http.MethodGet,
		Path:         "/api/v1/review/final-queue",
		RequiresAuth: true,
		MinTier:      3,
	}
	decision := Authorize(rule, nil, "", "")
	if decision.Kind != DecisionRedirect {
		t.Fatalf("expected redirect for anonymous actor, got %v", decision.Kind)
	}
}

func TestAuthorizeEnforcesMinimumTier(t *testing.T) {
	actor := &services.Actor{ID: 1, PermissionTier: 2}
	decision := Authorize(reviewRule, actor, "token", "token")
	if decision.Kind != DecisionForbidden {
		t.Fatalf("expected forbidden below minimum tier, got %v", decision.Kind)
	}

	actor.PermissionTier = 3
	decision = Authorize(reviewRule, actor, "token", "token")
	if decision.Kind != DecisionAllow {
		t.Fatalf("expected allow at minimum tier, got %v (%s)", decision.Kind, decision.Reason)
	}
}

func TestAuthorizeExemptRouteSkipsCSRF(t *testing.T) {
	login := RouteRule{
		Name:       "login",
		Method:     http.MethodPost,
		Path:       "/api/v1/login",
		CSRFExempt: true,
	}
	decision := Authorize(login, nil, "", "")
	if decision.Kind != DecisionAllow {
		t.Fatalf("expected allow for exempt route, got %v", decision.Kind)
	}
}

func TestAuthorizeSafeMethodSkipsCSRF(t *testing.T) {
	rule := RouteRule{
		Name:         "my-clubs",
		Method:       http.MethodGet,
		Path:         "/api/v1/clubs",
		RequiresAuth: true,
		MinTier:      1,
	}
	actor := &services.Actor{ID: 1, PermissionTier: 1}
	decision := Authorize(rule, actor, "", "session-token")
	if decision.Kind != DecisionAllow {
		t.Fatalf("expected allow for GET without token, got %v", decision.Kind)
	}
}
