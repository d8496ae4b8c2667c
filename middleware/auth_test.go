package middleware

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"campus-life-api/config"
	"campus-life-api/models"
	"campus-life-api/services"

	"github.com/gin-gonic/gin"
)

func newPostContext(t *testing.T, contentType, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/review/validate-club", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.Request = req
	return c, w
}

func TestSuppliedCSRFPrefersHeader(t *testing.T) {
	c, _ := newPostContext(t, "application/json", `{"csrf_token":"from-body"}`)
	c.Request.Header.Set("X-CSRF-Token", "from-header")

	if got := suppliedCSRF(c); got != "from-header" {
		t.Fatalf("expected header token, got %q", got)
	}
}

func TestSuppliedCSRFFromJSONBody(t *testing.T) {
	c, _ := newPostContext(t, "application/json",
		`{"club_id":1,"action":"approve","csrf_token":"session-token"}`)

	if got := suppliedCSRF(c); got != "session-token" {
		t.Fatalf("expected token from JSON body, got %q", got)
	}

	// A token carried only in the JSON body must satisfy the gate.
	rule := RouteRule{Name: "validate-club", Method: http.MethodPost,
		Path: "/api/v1/review/validate-club", RequiresAuth: true, MinTier: 2}
	actor := &services.Actor{ID: 3, PermissionTier: 5}
	decision := Authorize(rule, actor, suppliedCSRF(c), "session-token")
	if decision.Kind != DecisionAllow {
		t.Fatalf("expected allow for matching body token, got %v (%s)", decision.Kind, decision.Reason)
	}
}

func TestSuppliedCSRFFromFormBody(t *testing.T) {
	c, _ := newPostContext(t, "application/x-www-form-urlencoded",
		"club_id=1&action=approve&csrf_token=form-token")

	if got := suppliedCSRF(c); got != "form-token" {
		t.Fatalf("expected token from form body, got %q", got)
	}
}

func TestSuppliedCSRFLeavesBodyReadable(t *testing.T) {
	c, _ := newPostContext(t, "application/json",
		`{"club_id":7,"action":"reject","csrf_token":"session-token"}`)

	_ = suppliedCSRF(c)

	var payload struct {
		ClubID int    `json:"club_id"`
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		t.Fatalf("body no longer bindable after token read: %v", err)
	}
	if payload.ClubID != 7 || payload.Action != "reject" {
		t.Fatalf("unexpected payload after token read: %+v", payload)
	}
}

func TestRotateCSRFReplacesExpiredToken(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, []*execStep{
		{pattern: regexp.MustCompile("UPDATE .user_sessions. SET")},
	})
	defer cleanup()
	orig := config.DB
	config.DB = db
	defer func() { config.DB = orig }()

	now := time.Now()
	session := &models.UserSession{
		SessionID:    "sess-1",
		CSRFToken:    "stale-token",
		CSRFIssuedAt: now.Add(-3 * time.Hour),
	}

	c, w := newPostContext(t, "application/json", `{}`)
	if err := rotateCSRF(c, session, now); err != nil {
		t.Fatalf("expected rotation to succeed, got %v", err)
	}

	if session.CSRFToken == "stale-token" || session.CSRFToken == "" {
		t.Fatalf("expected a fresh token, got %q", session.CSRFToken)
	}
	if !session.CSRFIssuedAt.Equal(now) {
		t.Fatalf("expected issue time reset to now, got %v", session.CSRFIssuedAt)
	}
	if got := w.Header().Get("X-CSRF-Token"); got != session.CSRFToken {
		t.Fatalf("expected new token surfaced in X-CSRF-Token, got %q", got)
	}

	// The replaced token stops satisfying the gate; the new one passes.
	rule := RouteRule{Name: "validate-club", Method: http.MethodPost,
		Path: "/api/v1/review/validate-club", RequiresAuth: true, MinTier: 2}
	actor := &services.Actor{ID: 3, PermissionTier: 5}
	if d := Authorize(rule, actor, "stale-token", session.CSRFToken); d.Kind != DecisionForbidden {
		t.Fatalf("expected replaced token to be refused, got %v", d.Kind)
	}
	if d := Authorize(rule, actor, session.CSRFToken, session.CSRFToken); d.Kind != DecisionAllow {
		t.Fatalf("expected new token to be accepted, got %v", d.Kind)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unsatisfied script: %v", err)
	}
}

func TestRotateCSRFKeepsFreshToken(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()
	orig := config.DB
	config.DB = db
	defer func() { config.DB = orig }()

	now := time.Now()
	session := &models.UserSession{
		SessionID:    "sess-1",
		CSRFToken:    "current-token",
		CSRFIssuedAt: now.Add(-time.Hour),
	}

	c, w := newPostContext(t, "application/json", `{}`)
	if err := rotateCSRF(c, session, now); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if session.CSRFToken != "current-token" {
		t.Fatalf("token rotated before expiry: %q", session.CSRFToken)
	}
	if got := w.Header().Get("X-CSRF-Token"); got != "" {
		t.Fatalf("expected no rotation header, got %q", got)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unsatisfied script: %v", err)
	}
}
