package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"campus-life-api/config"
	"campus-life-api/models"
	"campus-life-api/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "campus_session"

// SessionClaims wraps the server-side session id in a signed token so
// the cookie cannot be forged. Revocation still lives in the database.
type SessionClaims struct {
	SessionID string `json:"session_id"`
	UserID    int    `json:"user_id"`
	jwt.RegisteredClaims
}

// SignSessionToken creates the cookie value for a session row.
func SignSessionToken(sessionID string, userID int, lifetime time.Duration) (string, error) {
	claims := SessionClaims{
		SessionID: sessionID,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// ParseSessionToken validates a cookie value and returns its claims.
func ParseSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired session token")
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, errors.New("invalid session claims")
	}
	return claims, nil
}

// loadSession resolves the cookie into a live session and its user.
// Returns nils without error when the request is simply anonymous.
func loadSession(c *gin.Context) (*models.UserSession, *models.User, error) {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || cookie == "" {
		return nil, nil, nil
	}

	claims, err := ParseSessionToken(cookie)
	if err != nil {
		return nil, nil, nil
	}

	var session models.UserSession
	if err := config.DB.Where("session_id = ? AND is_revoked = ?", claims.SessionID, false).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var user models.User
	if err := config.DB.Where("user_id = ? AND delete_at IS NULL", session.UserID).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	return &session, &user, nil
}

// rotateCSRF replaces an expired CSRF token. The old token stops being
// valid immediately; the new one is surfaced in a response header so
// the client can pick it up.
func rotateCSRF(c *gin.Context, session *models.UserSession, now time.Time) error {
	if !session.CSRFExpired(now) {
		return nil
	}
	fresh := uuid.NewString()
	if err := config.DB.Model(&models.UserSession{}).
		Where("session_id = ?", session.SessionID).
		Updates(map[string]interface{}{
			"csrf_token":     fresh,
			"csrf_issued_at": now,
		}).Error; err != nil {
		return err
	}
	session.CSRFToken = fresh
	session.CSRFIssuedAt = now
	c.Header("X-CSRF-Token", fresh)
	return nil
}

// suppliedCSRF reads the token the client sent: the X-CSRF-Token
// header first, then a csrf_token field in the request body. The body
// is restored after peeking so the handler can still bind it.
func suppliedCSRF(c *gin.Context) string {
	if token := c.GetHeader("X-CSRF-Token"); token != "" {
		return token
	}
	if c.Request == nil || c.Request.Body == nil {
		return ""
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	contentType := c.ContentType()
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		var body struct {
			Token string `json:"csrf_token"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return ""
		}
		return body.Token
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return ""
		}
		return values.Get("csrf_token")
	default:
		return ""
	}
}

// Gate builds the per-route middleware enforcing the access gate. It
// resolves the session, rotates a stale CSRF token, calls Authorize and
// maps the decision onto the response.
func Gate(rule RouteRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, user, err := loadSession(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve session"})
			c.Abort()
			return
		}

		var actor *services.Actor
		sessionCSRF := ""
		if session != nil && user != nil {
			now := time.Now()
			if err := rotateCSRF(c, session, now); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh session"})
				c.Abort()
				return
			}
			sessionCSRF = session.CSRFToken
			actor = &services.Actor{ID: user.UserID, PermissionTier: user.PermissionTier}
		}

		decision := Authorize(rule, actor, suppliedCSRF(c), sessionCSRF)
		switch decision.Kind {
		case DecisionForbidden:
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			c.Abort()
			return
		case DecisionRedirect:
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		if actor != nil {
			c.Set("actor", *actor)
			c.Set("userID", user.UserID)
			c.Set("sessionID", session.SessionID)
			c.Set("permissionTier", user.PermissionTier)
		}
		c.Next()
	}
}

// CurrentActor extracts the authenticated actor placed by Gate.
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	value, exists := c.Get("actor")
	if !exists {
		return services.Actor{}, false
	}
	actor, ok := value.(services.Actor)
	return actor, ok
}
