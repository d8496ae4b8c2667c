package controllers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"strconv"
	"time"

	"campus-life-api/config"
	"campus-life-api/middleware"
	"campus-life-api/models"
	"campus-life-api/services"
	"campus-life-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	validationSvc *services.ValidationService

	// verifyLimiter guards verification-code checks: past the
	// threshold the account fails closed until the counter decays.
	verifyLimiter = services.NewAttemptLimiter(5, 15*time.Minute)

	sendMailFunc = config.SendMail
)

// Setup wires the shared services used by the handlers.
func Setup(svc *services.ValidationService) {
	validationSvc = svc
}

// Health is the unauthenticated liveness probe.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Campus Life API is running",
	})
}

type RegisterRequest struct {
	UserFname  string `json:"user_fname" binding:"required"`
	UserLname  string `json:"user_lname"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	Department string `json:"department"`
}

// Register creates an unverified account and e-mails a verification
// code. The raw code is only ever sent by mail; the database stores a
// bcrypt hash.
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Email = utils.SanitizeInput(req.Email)
	if !utils.ValidateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}
	if valid, message := utils.ValidatePassword(req.Password); !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return
	}

	var existing models.User
	if err := config.DB.Where("email = ? AND delete_at IS NULL", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to secure password"})
		return
	}

	now := time.Now()
	user := models.User{
		UserFname:      utils.SanitizeInput(req.UserFname),
		UserLname:      utils.SanitizeInput(req.UserLname),
		Email:          req.Email,
		Password:       hashed,
		PermissionTier: models.TierUnverified,
		CreateAt:       &now,
	}
	if req.Department != "" {
		dept := utils.SanitizeInput(req.Department)
		user.Department = &dept
	}
	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	if err := issueVerificationCode(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Account created. Check your email for the verification code.",
	})
}

func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func issueVerificationCode(user models.User) error {
	raw, err := generateVerificationCode()
	if err != nil {
		return err
	}
	hashed, err := HashPassword(raw)
	if err != nil {
		return err
	}

	now := time.Now()
	code := models.VerificationCode{
		UserID:    user.UserID,
		CodeHash:  hashed,
		ExpiresAt: now.Add(10 * time.Minute),
		CreatedAt: now,
	}
	if err := config.DB.Create(&code).Error; err != nil {
		return err
	}

	subject := "Your verification code"
	html := fmt.Sprintf("<p>Dear %s,</p><p>Your verification code is <strong>%s</strong>. It expires in 10 minutes.</p>",
		user.FullName(), raw)
	return sendMailFunc([]string{user.Email}, subject, html)
}

type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// VerifyEmail checks the e-mailed code and promotes the account to
// tier 1. Failed checks feed the attempt limiter; once the key is over
// the threshold the endpoint fails closed regardless of the code.
func VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Email = utils.SanitizeInput(req.Email)
	if !verifyLimiter.Allow(req.Email) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts. Try again later."})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ? AND delete_at IS NULL", req.Email).First(&user).Error; err != nil {
		verifyLimiter.RecordFailure(req.Email)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or code"})
		return
	}
	if user.EmailVerified {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account already verified"})
		return
	}

	now := time.Now()
	var codes []models.VerificationCode
	if err := config.DB.Where("user_id = ? AND used_at IS NULL AND expires_at > ?", user.UserID, now).
		Order("created_at DESC").Find(&codes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
		return
	}

	var matched *models.VerificationCode
	for i := range codes {
		if CheckPasswordHash(req.Code, codes[i].CodeHash) {
			matched = &codes[i]
			break
		}
	}
	if matched == nil {
		verifyLimiter.RecordFailure(req.Email)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or code"})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.VerificationCode{}).
			Where("code_id = ?", matched.CodeID).
			Update("used_at", now).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("user_id = ?", user.UserID).
			Updates(map[string]interface{}{
				"email_verified":  true,
				"permission_tier": models.TierStudent,
				"update_at":       now,
			}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify account"})
		return
	}

	verifyLimiter.Reset(req.Email)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account verified. You can now log in."})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user, creates the server-side session and sets
// the signed session cookie. The response carries the CSRF token bound
// to the new session; the client must echo it on every mutating
// request.
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ? AND delete_at IS NULL", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !user.EmailVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is not verified"})
		return
	}

	now := time.Now()
	session := models.UserSession{
		SessionID:    uuid.NewString(),
		UserID:       user.UserID,
		CSRFToken:    uuid.NewString(),
		CSRFIssuedAt: now,
		DeviceInfo:   c.GetHeader("User-Agent"),
		IPAddress:    c.ClientIP(),
		LastSeenAt:   now,
		CreatedAt:    now,
	}
	if err := config.DB.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	lifetime := sessionLifetime()
	token, err := middleware.SignSessionToken(session.SessionID, user.UserID, lifetime)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign session"})
		return
	}

	secure := os.Getenv("ENVIRONMENT") == "production"
	c.SetCookie(middleware.SessionCookieName, token, int(lifetime.Seconds()), "/", "", secure, true)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Login successful",
		"user":       user,
		"csrf_token": session.CSRFToken,
	})
}

func sessionLifetime() time.Duration {
	hours, err := strconv.Atoi(os.Getenv("SESSION_EXPIRE_HOURS"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// Logout revokes the server-side session and clears the cookie.
func Logout(c *gin.Context) {
	sessionID, _ := c.Get("sessionID")
	now := time.Now()
	if err := config.DB.Model(&models.UserSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"is_revoked": true,
			"revoked_at": now,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end session"})
		return
	}

	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

// GetProfile returns the current user.
func GetProfile(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := config.DB.Where("user_id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePassword verifies the current password before storing a new
// bcrypt hash.
func ChangePassword(c *gin.Context) {
	type PasswordChangeRequest struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := c.Get("userID")

	var user models.User
	if err := config.DB.Where("user_id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if !CheckPasswordHash(req.CurrentPassword, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hashed, err := HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to secure password"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&models.User{}).
		Where("user_id = ?", user.UserID).
		Updates(map[string]interface{}{
			"password":  hashed,
			"update_at": now,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed successfully"})
}

// GetNotifications lists the current user's in-app notifications.
func GetNotifications(c *gin.Context) {
	userID, _ := c.Get("userID")

	var notifications []models.Notification
	if err := config.DB.Where("user_id = ?", userID).
		Order("create_at DESC").
		Limit(50).
		Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": notifications,
		"total":         len(notifications),
	})
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// requestMeta captures audit attribution from the request.
func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// mapWorkflowError translates service errors onto response codes
// without leaking internals.
func mapWorkflowError(c *gin.Context, err error) {
	var wfErr *services.WorkflowError
	if errors.As(err, &wfErr) {
		switch wfErr.Code {
		case services.CodeNotAuthorized:
			c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to perform this action"})
		case services.CodeInvalidStageOrder:
			c.JSON(http.StatusConflict, gin.H{"error": "This submission is not ready for that decision"})
		case services.CodeAlreadyTerminal:
			c.JSON(http.StatusConflict, gin.H{"error": "A decision has already been recorded for this submission"})
		case services.CodeReasonRequired:
			c.JSON(http.StatusBadRequest, gin.H{"error": "A rejection reason is required"})
		default:
			c.JSON(http.StatusConflict, gin.H{"error": "The requested transition is not allowed"})
		}
		return
	}
	if errors.Is(err, services.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	var pErr *services.PersistenceError
	if errors.As(err, &pErr) {
		log.Printf("persistence failure: %v", pErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "A storage error occurred. Please try again."})
		return
	}

	log.Printf("unexpected error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
